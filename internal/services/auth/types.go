package auth

import (
	"errors"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/model"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AccessClaims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	AccessToken   string
	AccessExpires time.Time
	User          model.User
}
