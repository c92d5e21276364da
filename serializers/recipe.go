package serializers

import (
	"fmt"
	"strings"

	"recipe-restful/models"
)

// NamedInput is the nested payload for a tag or ingredient: {"name": "Vegan"}.
type NamedInput struct {
	Name string `json:"name" validate:"required,notblank,max=255" description:"Name, unique per user"`
}

// RecipeInput is the recipe payload for create, full update and partial update.
// Nil pointers and nil slices mean "omitted"; an empty tags list means "clear".
type RecipeInput struct {
	Title       *string       `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string       `json:"description"`
	TimeMinutes *int          `json:"time_minutes"`
	Price       *models.Price `json:"price"`
	Link        *string       `json:"link" validate:"omitempty,max=255"`
	Tags        []NamedInput  `json:"tags" validate:"omitempty,dive"`
	Ingredients []NamedInput  `json:"ingredients" validate:"omitempty,dive"`
}

// Validate trims the text fields and checks the payload. partial relaxes the required
// fields, as for PATCH.
func (in *RecipeInput) Validate(partial bool) error {
	verr := &ValidationError{}
	trimString(in.Title)
	trimNames(in.Tags, "tags", verr)
	trimNames(in.Ingredients, "ingredients", verr)

	for field, msg := range validateStruct(in).Fields {
		verr.add(field, msg)
	}
	if !partial {
		if in.Title == nil {
			verr.add("title", msgRequired)
		}
		if in.TimeMinutes == nil {
			verr.add("time_minutes", msgRequired)
		}
		if in.Price == nil {
			verr.add("price", msgRequired)
		}
	}
	if in.Price != nil && !in.Price.Fits() {
		verr.add("price", "Ensure that there are no more than 5 digits in total and no more than 2 decimal places.")
	}
	return verr.orNil()
}

// trimNames trims each nested name. A name made only of whitespace is reported as blank
// rather than missing.
func trimNames(items []NamedInput, field string, verr *ValidationError) {
	for i := range items {
		if items[i].Name != "" && strings.TrimSpace(items[i].Name) == "" {
			verr.add(fmt.Sprintf("%s[%d].name", field, i), msgBlank)
		}
		trimString(&items[i].Name)
	}
}

// Apply copies the provided scalar fields onto the recipe.
func (in *RecipeInput) Apply(recipe *models.Recipe) {
	if in.Title != nil {
		recipe.Title = *in.Title
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		recipe.Link = *in.Link
	}
}

// Names returns the distinct trimmed names of a nested list, keeping first-seen order.
func Names(items []NamedInput) []string {
	seen := make(map[string]struct{}, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type IngredientResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RecipeResponse is the list representation.
type RecipeResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	TimeMinutes int                  `json:"time_minutes"`
	Price       models.Price         `json:"price"`
	Link        string               `json:"link"`
	Tags        []TagResponse        `json:"tags"`
	Ingredients []IngredientResponse `json:"ingredients"`
}

// RecipeDetailResponse is the list representation plus the long-form fields.
type RecipeDetailResponse struct {
	RecipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// RecipeImageResponse answers an image upload.
type RecipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

func NewTagResponse(tag *models.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name}
}

func NewIngredientResponse(ingredient *models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: ingredient.ID, Name: ingredient.Name}
}

func NewRecipeResponse(recipe *models.Recipe) RecipeResponse {
	tags := make([]TagResponse, len(recipe.Tags))
	for i := range recipe.Tags {
		tags[i] = NewTagResponse(&recipe.Tags[i])
	}
	ingredients := make([]IngredientResponse, len(recipe.Ingredients))
	for i := range recipe.Ingredients {
		ingredients[i] = NewIngredientResponse(&recipe.Ingredients[i])
	}
	return RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// NewRecipeDetailResponse renders the detail shape. mediaURL maps a stored image path
// to the URL it is served from.
func NewRecipeDetailResponse(recipe *models.Recipe, mediaURL func(string) string) RecipeDetailResponse {
	resp := RecipeDetailResponse{
		RecipeResponse: NewRecipeResponse(recipe),
		Description:    recipe.Description,
	}
	if recipe.Image != "" {
		url := mediaURL(recipe.Image)
		resp.Image = &url
	}
	return resp
}

func NewRecipeListResponse(recipes []models.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		out[i] = NewRecipeResponse(&recipes[i])
	}
	return out
}
