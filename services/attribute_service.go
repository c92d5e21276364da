package services

import (
	"recipe-restful/models"
	"recipe-restful/repositories"
	"recipe-restful/serializers"

	"gorm.io/gorm"
)

// AttributeService manages a user's tags or ingredients.
type AttributeService[T any] interface {
	List(userID uint, assignedOnly bool) ([]T, error)
	Get(id, userID uint) (*T, error)
	Create(userID uint, name string) (*T, error)
	Update(id, userID uint, input *serializers.AttributeInput) (*T, error)
	Delete(id, userID uint) error
}

type (
	TagService        = AttributeService[models.Tag]
	IngredientService = AttributeService[models.Ingredient]
)

type attributeService[T any] struct {
	db      *gorm.DB
	repo    repositories.AttributeRepository[T]
	what    string
	setName func(item *T, name string)
}

func NewTagService(db *gorm.DB) TagService {
	return &attributeService[models.Tag]{
		db:      db,
		repo:    repositories.NewTagRepository(db),
		what:    "tag",
		setName: func(t *models.Tag, name string) { t.Name = name },
	}
}

func NewIngredientService(db *gorm.DB) IngredientService {
	return &attributeService[models.Ingredient]{
		db:      db,
		repo:    repositories.NewIngredientRepository(db),
		what:    "ingredient",
		setName: func(i *models.Ingredient, name string) { i.Name = name },
	}
}

func (s *attributeService[T]) List(userID uint, assignedOnly bool) ([]T, error) {
	return s.repo.ListForUser(userID, assignedOnly)
}

func (s *attributeService[T]) Get(id, userID uint) (*T, error) {
	item, err := s.repo.FindForUser(id, userID)
	if err != nil {
		return nil, translate(err, s.what)
	}
	return item, nil
}

// Create adds a new named row; an existing name for the same user is a conflict.
func (s *attributeService[T]) Create(userID uint, name string) (*T, error) {
	item, created, err := s.repo.GetOrCreate(userID, name)
	if err != nil {
		return nil, translate(err, s.what)
	}
	if !created {
		return nil, &Error{Kind: ErrConflict, Msg: s.what + " with this name already exists"}
	}
	return item, nil
}

func (s *attributeService[T]) Update(id, userID uint, input *serializers.AttributeInput) (*T, error) {
	item, err := s.repo.FindForUser(id, userID)
	if err != nil {
		return nil, translate(err, s.what)
	}
	if input.Name != nil {
		s.setName(item, *input.Name)
	}
	if err := s.repo.Save(item); err != nil {
		return nil, translate(err, s.what+" with this name")
	}
	return item, nil
}

func (s *attributeService[T]) Delete(id, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindForUser(id, userID)
		if err != nil {
			return translate(err, s.what)
		}
		return repo.Delete(item)
	})
}
