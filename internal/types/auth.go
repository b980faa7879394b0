// Package types provides request and response types shared by the HTTP API.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is shared across requests; validator.Validate caches struct metadata.
var validate = validator.New()

// CreateUserRequest is the body of POST /auth/register.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the user profile shape returned by the auth endpoints. It mirrors
// db.User minus the password hash; accounts provisioned from an external
// token have PasswordSet false until they register a password.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	PasswordSet bool      `json:"password_set"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoginResponse carries the user profile and a bearer token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdatePasswordRequest is the body of POST /auth/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Validate checks the request against its field constraints.
func (r *CreateUserRequest) Validate() error { return validate.Struct(r) }

// Validate checks the request against its field constraints.
func (r *LoginRequest) Validate() error { return validate.Struct(r) }

// Validate checks the request against its field constraints.
func (r *UpdatePasswordRequest) Validate() error { return validate.Struct(r) }
