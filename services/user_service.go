package services

import (
	"errors"
	"fmt"
	"strings"

	"recipe-restful/models"
	"recipe-restful/repositories"
	"recipe-restful/serializers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// unusablePasswordPrefix marks a hash that no password can match.
const unusablePasswordPrefix = "!"

// IsUnusablePassword reports whether hash was stored for an account without a password.
func IsUnusablePassword(hash string) bool {
	return strings.HasPrefix(hash, unusablePasswordPrefix)
}

// The UserService interface is the user manager: account creation, authentication and
// profile maintenance.
type UserService interface {
	CreateUser(email, password string, opts ...UserOption) (*models.User, error)
	CreateSuperuser(email, password string) (*models.User, error)
	// EnsureSuperuser creates the superuser unless an account with that email exists.
	EnsureSuperuser(email, password string) (*models.User, bool, error)
	Authenticate(email, password string) (*models.User, error)
	GetUser(id uint) (*models.User, error)
	UpdateUser(id uint, input *serializers.UserUpdateInput) (*models.User, error)
	DeleteUser(id uint) error
}

// UserOption sets an extra field on a user being created.
type UserOption func(*models.User)

func WithName(name string) UserOption {
	return func(u *models.User) { u.Name = name }
}

func WithStaff() UserOption {
	return func(u *models.User) { u.IsStaff = true }
}

func WithActive(active bool) UserOption {
	return func(u *models.User) { u.IsActive = active }
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	db     *gorm.DB
	repo   repositories.UserRepository
	hasher PasswordHasher
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, hasher PasswordHasher) UserService {
	return &userService{
		db:     db,
		repo:   repositories.NewUserRepository(db),
		hasher: hasher,
	}
}

func (s *userService) hashPassword(password string) (string, error) {
	if password == "" {
		return unusablePasswordPrefix + uuid.NewString(), nil
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return hashed, nil
}

// CreateUser creates, saves and returns a new user. The email is required and normalized;
// an empty password leaves the account without a usable password.
func (s *userService) CreateUser(email, password string, opts ...UserOption) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, serializers.NewValidationError("email", "User must have an email address.")
	}

	hashed, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    NormalizeEmail(email),
		Password: hashed,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(user)
	}

	if _, err := s.repo.FindByEmail(user.Email); err == nil {
		return nil, &Error{Kind: ErrConflict, Msg: "user with this email already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	if err := s.repo.Create(user); err != nil {
		return nil, translate(err, "user with this email")
	}
	return user, nil
}

// CreateSuperuser creates a user with staff and superuser rights.
func (s *userService) CreateSuperuser(email, password string) (*models.User, error) {
	user, err := s.CreateUser(email, password)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to elevate user: %w", err)
	}
	return user, nil
}

func (s *userService) EnsureSuperuser(email, password string) (*models.User, bool, error) {
	existing, err := s.repo.FindByEmail(NormalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("checking existing superuser: %w", err)
	}
	user, err := s.CreateSuperuser(email, password)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate returns the active user matching the credentials. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(id uint) (*models.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

// UpdateUser applies the provided fields. A new password is hashed before saving.
func (s *userService) UpdateUser(id uint, input *serializers.UserUpdateInput) (*models.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, translate(err, "user")
	}

	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email != user.Email {
			other, err := s.repo.FindByEmail(email)
			if err == nil && other.ID != user.ID {
				return nil, &Error{Kind: ErrConflict, Msg: "user with this email already exists"}
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("checking email uniqueness: %w", err)
			}
			user.Email = email
		}
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hashed, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.repo.Update(user); err != nil {
		return nil, translate(err, "user with this email")
	}
	return user, nil
}

// DeleteUser removes the user and everything it owns in one transaction.
func (s *userService) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(id)
		if err != nil {
			return translate(err, "user")
		}
		return repo.Delete(user)
	})
}
