package repositories

import (
	"errors"

	"recipe-restful/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeRepository stores user-scoped, named recipe attributes (tags and ingredients).
type AttributeRepository[T any] interface {
	WithTx(tx *gorm.DB) AttributeRepository[T]
	// GetOrCreate returns the user's row with the given name, inserting it when absent.
	// The boolean reports whether a row was created.
	GetOrCreate(userID uint, name string) (*T, bool, error)
	Create(item *T) error
	FindForUser(id, userID uint) (*T, error)
	// ListForUser orders by name descending. assignedOnly keeps rows attached to a recipe.
	ListForUser(userID uint, assignedOnly bool) ([]T, error)
	Save(item *T) error
	Delete(item *T) error
}

type (
	TagRepository        = AttributeRepository[models.Tag]
	IngredientRepository = AttributeRepository[models.Ingredient]
)

type attributeRepository[T any] struct {
	db         *gorm.DB
	joinTable  string
	joinColumn string
	build      func(userID uint, name string) *T
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &attributeRepository[models.Tag]{
		db:         db,
		joinTable:  "recipe_tags",
		joinColumn: "tag_id",
		build: func(userID uint, name string) *models.Tag {
			return &models.Tag{UserID: userID, Name: name}
		},
	}
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &attributeRepository[models.Ingredient]{
		db:         db,
		joinTable:  "recipe_ingredients",
		joinColumn: "ingredient_id",
		build: func(userID uint, name string) *models.Ingredient {
			return &models.Ingredient{UserID: userID, Name: name}
		},
	}
}

func (r *attributeRepository[T]) WithTx(tx *gorm.DB) AttributeRepository[T] {
	clone := *r
	clone.db = tx
	return &clone
}

func (r *attributeRepository[T]) findByName(userID uint, name string) (*T, error) {
	item := new(T)
	if err := r.db.Where("user_id = ? AND name = ?", userID, name).First(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *attributeRepository[T]) GetOrCreate(userID uint, name string) (*T, bool, error) {
	item, err := r.findByName(userID, name)
	if err == nil {
		return item, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	item = r.build(userID, name)
	// Nested transaction: a savepoint when already inside one, so a lost insert race
	// does not abort the caller's transaction.
	err = r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(item).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		item, err = r.findByName(userID, name)
		return item, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (r *attributeRepository[T]) Create(item *T) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

func (r *attributeRepository[T]) FindForUser(id, userID uint) (*T, error) {
	item := new(T)
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *attributeRepository[T]) ListForUser(userID uint, assignedOnly bool) ([]T, error) {
	query := r.db.Where("user_id = ?", userID)
	if assignedOnly {
		query = query.Where("id IN (?)", r.db.Table(r.joinTable).Select(r.joinColumn))
	}
	var items []T
	if err := query.Order("name desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *attributeRepository[T]) Save(item *T) error {
	return r.db.Omit(clause.Associations).Save(item).Error
}

// Delete detaches the row from every recipe, then removes it.
func (r *attributeRepository[T]) Delete(item *T) error {
	return r.db.Select("Recipes").Delete(item).Error
}
