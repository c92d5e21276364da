package models

import "time"

// Recipe is owned by exactly one user and labelled with that user's tags and ingredients.
type Recipe struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint   `gorm:"not null;index"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	TimeMinutes int    `gorm:"not null"`
	Price       Price  `gorm:"type:decimal(5,2);not null"`
	Link        string `gorm:"size:255"`
	Image       string `gorm:"size:255"`

	Tags        []Tag        `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;"`
}

func (r Recipe) String() string {
	return r.Title
}

// Tag labels recipes for filtering. Names are unique per user.
type Tag struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_tags_user_name"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_tags_user_name"`

	Recipes []Recipe `gorm:"many2many:recipe_tags;" json:"-"`
}

func (t Tag) String() string {
	return t.Name
}

// Ingredient follows the same per-user scoping as Tag.
type Ingredient struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_ingredients_user_name"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_ingredients_user_name"`

	Recipes []Recipe `gorm:"many2many:recipe_ingredients;" json:"-"`
}

func (i Ingredient) String() string {
	return i.Name
}
