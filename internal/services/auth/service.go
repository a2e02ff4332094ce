package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
)

type UserStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// Config holds the profile defaults given to freshly registered users.
type Config struct {
	DefaultBio    string
	AvatarBaseURL string
	DefaultLat    float64
	DefaultLng    float64
	BcryptCost    int
}

type Service struct {
	jwt   *JWTManager
	users UserStore
	cfg   Config
	now   func() time.Time
}

func NewService(jwtManager *JWTManager, users UserStore, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		jwt:   jwtManager,
		users: users,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || in.Password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, ErrInvalidInput
	}
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is nil")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	// Spread new users slightly around the default location.
	seed := float64(s.now().UnixNano()) / float64(time.Second)
	user, err := s.users.Create(ctx, model.User{
		Name:         name,
		Role:         strings.TrimSpace(in.Role),
		Bio:          s.cfg.DefaultBio,
		Stack:        []string{},
		Image:        s.avatarURL(name),
		LocationLat:  s.cfg.DefaultLat + math.Sin(seed)*0.01,
		LocationLng:  s.cfg.DefaultLng + math.Cos(seed)*0.01,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is nil")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("get user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, fmt.Errorf("jwt manager is nil")
	}
	return s.jwt.ParseAccessToken(accessToken)
}

func (s *Service) issue(user model.User) (AuthResult, error) {
	if s.jwt == nil {
		return AuthResult{}, fmt.Errorf("jwt manager is nil")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		AccessToken:   token,
		AccessExpires: expiresAt,
		User:          user,
	}, nil
}

func (s *Service) avatarURL(name string) string {
	if s.cfg.AvatarBaseURL == "" {
		return ""
	}
	return s.cfg.AvatarBaseURL + url.QueryEscape(name)
}
