package services

import (
	"fmt"

	"recipe-restful/models"
	"recipe-restful/repositories"
	"recipe-restful/serializers"

	"gorm.io/gorm"
)

// RecipeService creates and maintains recipes owned by a single user. Every method takes
// the owner id; recipes of other users behave as if they did not exist.
type RecipeService interface {
	CreateRecipe(userID uint, input *serializers.RecipeInput) (*models.Recipe, error)
	GetRecipe(id, userID uint) (*models.Recipe, error)
	ListRecipes(userID uint, filter repositories.RecipeFilter) ([]models.Recipe, error)
	UpdateRecipe(id, userID uint, input *serializers.RecipeInput) (*models.Recipe, error)
	DeleteRecipe(id, userID uint) error
	SetImage(id, userID uint, image string) (*models.Recipe, error)
}

type recipeService struct {
	db          *gorm.DB
	recipes     repositories.RecipeRepository
	tags        repositories.TagRepository
	ingredients repositories.IngredientRepository
}

func NewRecipeService(db *gorm.DB) RecipeService {
	return &recipeService{
		db:          db,
		recipes:     repositories.NewRecipeRepository(db),
		tags:        repositories.NewTagRepository(db),
		ingredients: repositories.NewIngredientRepository(db),
	}
}

// txRepos is the set of repositories bound to one transaction.
type txRepos struct {
	recipes     repositories.RecipeRepository
	tags        repositories.TagRepository
	ingredients repositories.IngredientRepository
}

func (s *recipeService) inTx(fn func(r txRepos) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{
			recipes:     s.recipes.WithTx(tx),
			tags:        s.tags.WithTx(tx),
			ingredients: s.ingredients.WithTx(tx),
		})
	})
}

// attachTags resolves each name to the user's tag, creating missing ones, and links them.
func attachTags(r txRepos, recipe *models.Recipe, names []string) error {
	tags := make([]*models.Tag, 0, len(names))
	for _, name := range names {
		tag, _, err := r.tags.GetOrCreate(recipe.UserID, name)
		if err != nil {
			return fmt.Errorf("get or create tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return r.recipes.AppendTags(recipe, tags...)
}

func attachIngredients(r txRepos, recipe *models.Recipe, names []string) error {
	ingredients := make([]*models.Ingredient, 0, len(names))
	for _, name := range names {
		ingredient, _, err := r.ingredients.GetOrCreate(recipe.UserID, name)
		if err != nil {
			return fmt.Errorf("get or create ingredient %q: %w", name, err)
		}
		ingredients = append(ingredients, ingredient)
	}
	return r.recipes.AppendIngredients(recipe, ingredients...)
}

func (s *recipeService) CreateRecipe(userID uint, input *serializers.RecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{UserID: userID}
	input.Apply(recipe)

	var created *models.Recipe
	err := s.inTx(func(r txRepos) error {
		if err := r.recipes.Create(recipe); err != nil {
			return err
		}
		if err := attachTags(r, recipe, serializers.Names(input.Tags)); err != nil {
			return err
		}
		if err := attachIngredients(r, recipe, serializers.Names(input.Ingredients)); err != nil {
			return err
		}
		var err error
		created, err = r.recipes.FindForUser(recipe.ID, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return created, nil
}

func (s *recipeService) GetRecipe(id, userID uint) (*models.Recipe, error) {
	recipe, err := s.recipes.FindForUser(id, userID)
	if err != nil {
		return nil, translate(err, "recipe")
	}
	return recipe, nil
}

func (s *recipeService) ListRecipes(userID uint, filter repositories.RecipeFilter) ([]models.Recipe, error) {
	return s.recipes.ListForUser(userID, filter)
}

// UpdateRecipe assigns the provided fields. A provided tags or ingredients list replaces
// the current set, an empty one clears it; an omitted list leaves it alone.
func (s *recipeService) UpdateRecipe(id, userID uint, input *serializers.RecipeInput) (*models.Recipe, error) {
	var updated *models.Recipe
	err := s.inTx(func(r txRepos) error {
		recipe, err := r.recipes.FindForUser(id, userID)
		if err != nil {
			return translate(err, "recipe")
		}

		input.Apply(recipe)
		if err := r.recipes.Save(recipe); err != nil {
			return err
		}

		if input.Tags != nil {
			if err := r.recipes.ClearTags(recipe); err != nil {
				return err
			}
			if err := attachTags(r, recipe, serializers.Names(input.Tags)); err != nil {
				return err
			}
		}
		if input.Ingredients != nil {
			if err := r.recipes.ClearIngredients(recipe); err != nil {
				return err
			}
			if err := attachIngredients(r, recipe, serializers.Names(input.Ingredients)); err != nil {
				return err
			}
		}

		updated, err = r.recipes.FindForUser(id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *recipeService) DeleteRecipe(id, userID uint) error {
	return s.inTx(func(r txRepos) error {
		recipe, err := r.recipes.FindForUser(id, userID)
		if err != nil {
			return translate(err, "recipe")
		}
		return r.recipes.Delete(recipe)
	})
}

// SetImage records the stored image path on the recipe.
func (s *recipeService) SetImage(id, userID uint, image string) (*models.Recipe, error) {
	recipe, err := s.recipes.FindForUser(id, userID)
	if err != nil {
		return nil, translate(err, "recipe")
	}
	recipe.Image = image
	if err := s.recipes.Save(recipe); err != nil {
		return nil, fmt.Errorf("failed to save recipe image: %w", err)
	}
	return recipe, nil
}
