package repositories

import (
	"recipe-restful/models"

	"gorm.io/gorm"
)

// TokenRepository stores opaque authentication tokens.
type TokenRepository interface {
	FindByKey(key string) (*models.Token, error)
	FindByUserID(userID uint) (*models.Token, error)
	Create(token *models.Token) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// FindByKey loads the token with its user.
func (r *tokenRepository) FindByKey(key string) (*models.Token, error) {
	if key == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var token models.Token
	if err := r.db.Preload("User").Where(&models.Token{Key: key}).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) FindByUserID(userID uint) (*models.Token, error) {
	if userID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var token models.Token
	if err := r.db.Where(&models.Token{UserID: userID}).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Create(token *models.Token) error {
	return r.db.Omit("User").Create(token).Error
}
