package repositories

import (
	"recipe-restful/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Empty id lists do not filter.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository defines Recipe-related database operations. Every lookup is scoped
// to an owner so that rows of other users are indistinguishable from missing ones.
type RecipeRepository interface {
	WithTx(tx *gorm.DB) RecipeRepository
	Create(recipe *models.Recipe) error
	FindForUser(id, userID uint) (*models.Recipe, error)
	ListForUser(userID uint, filter RecipeFilter) ([]models.Recipe, error)
	Save(recipe *models.Recipe) error
	Delete(recipe *models.Recipe) error
	AppendTags(recipe *models.Recipe, tags ...*models.Tag) error
	ClearTags(recipe *models.Recipe) error
	AppendIngredients(recipe *models.Recipe, ingredients ...*models.Ingredient) error
	ClearIngredients(recipe *models.Recipe) error
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) WithTx(tx *gorm.DB) RecipeRepository {
	return &recipeRepository{db: tx}
}

// Create inserts the recipe row only; associations are attached separately.
func (r *recipeRepository) Create(recipe *models.Recipe) error {
	return r.db.Omit(clause.Associations).Create(recipe).Error
}

func (r *recipeRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

func (r *recipeRepository) FindForUser(id, userID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	result := r.preloaded().Where("id = ? AND user_id = ?", id, userID).First(&recipe)
	if result.Error != nil {
		return nil, result.Error
	}
	return &recipe, nil
}

// ListForUser returns the user's recipes, newest id first.
func (r *recipeRepository) ListForUser(userID uint, filter RecipeFilter) ([]models.Recipe, error) {
	query := r.preloaded().Where("user_id = ?", userID)
	if len(filter.TagIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}

	var recipes []models.Recipe
	if err := query.Order("id desc").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Save writes scalar columns; associations are managed through the Append/Clear methods.
func (r *recipeRepository) Save(recipe *models.Recipe) error {
	return r.db.Omit(clause.Associations).Save(recipe).Error
}

// Delete removes the recipe and its association rows, leaving tags and ingredients intact.
func (r *recipeRepository) Delete(recipe *models.Recipe) error {
	return r.db.Select("Tags", "Ingredients").Delete(recipe).Error
}

func (r *recipeRepository) AppendTags(recipe *models.Recipe, tags ...*models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.Model(recipe).Association("Tags").Append(tags)
}

func (r *recipeRepository) ClearTags(recipe *models.Recipe) error {
	return r.db.Model(recipe).Association("Tags").Clear()
}

func (r *recipeRepository) AppendIngredients(recipe *models.Recipe, ingredients ...*models.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	return r.db.Model(recipe).Association("Ingredients").Append(ingredients)
}

func (r *recipeRepository) ClearIngredients(recipe *models.Recipe) error {
	return r.db.Model(recipe).Association("Ingredients").Clear()
}
