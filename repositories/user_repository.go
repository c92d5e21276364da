package repositories

import (
	"recipe-restful/models"

	"gorm.io/gorm"
)

// UserRepository interface defines User-related database operations
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(user *models.User) error
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// Create creates a new User
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds User by ID
func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail Find User by Email
func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// Update Update User Information
func (r *userRepository) Update(user *models.User) error {
	return r.db.Omit("Recipes", "Tags", "Ingredients").Save(user).Error
}

// Delete removes the user together with everything it owns. Association rows go first
// so that join-table foreign keys never point at a deleted recipe, tag or ingredient.
func (r *userRepository) Delete(user *models.User) error {
	recipeIDs := func() *gorm.DB {
		return r.db.Model(&models.Recipe{}).Select("id").Where("user_id = ?", user.ID)
	}

	steps := []func() error{
		func() error {
			return r.db.Exec("DELETE FROM recipe_tags WHERE recipe_id IN (?)", recipeIDs()).Error
		},
		func() error {
			return r.db.Exec("DELETE FROM recipe_ingredients WHERE recipe_id IN (?)", recipeIDs()).Error
		},
		func() error { return r.db.Where("user_id = ?", user.ID).Delete(&models.Recipe{}).Error },
		func() error { return r.db.Where("user_id = ?", user.ID).Delete(&models.Tag{}).Error },
		func() error { return r.db.Where("user_id = ?", user.ID).Delete(&models.Ingredient{}).Error },
		func() error { return r.db.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error },
		func() error { return r.db.Delete(user).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
