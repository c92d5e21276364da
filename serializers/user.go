package serializers

import (
	"strings"

	"recipe-restful/models"
)

// UserInput registers a new account.
type UserInput struct {
	Email    string `json:"email" validate:"required,email,max=255" description:"Login email"`
	Password string `json:"password" validate:"required,min=5,max=128" description:"Password, at least 5 characters"`
	Name     string `json:"name" validate:"required,notblank,max=255"`
}

func (in *UserInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validateStruct(in).orNil()
}

// UserUpdateInput changes the authenticated user's profile; every field is optional.
type UserUpdateInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5,max=128"`
	Name     *string `json:"name" validate:"omitempty,notblank,max=255"`
}

func (in *UserUpdateInput) Validate(partial bool) error {
	trimString(in.Name)
	verr := validateStruct(in)
	if !partial {
		if in.Email == nil {
			verr.add("email", msgRequired)
		}
		if in.Name == nil {
			verr.add("name", msgRequired)
		}
	}
	return verr.orNil()
}

// TokenRequest exchanges credentials for tokens.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (in *TokenRequest) Validate() error {
	return validateStruct(in).orNil()
}

// TokenResponse carries the stored token and a signed access token.
type TokenResponse struct {
	Token  string `json:"token"`
	Access string `json:"access"`
}

type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{Email: user.Email, Name: user.Name}
}
