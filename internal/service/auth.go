package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/models"
	"procurement-transparency/internal/store"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,user_role"`
}

type UserView struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type TokenView struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresAt   string   `json:"expires_at"`
	User        UserView `json:"user"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

type AuthService struct {
	Deps
	tokens *auth.TokenIssuer
}

func NewAuthService(d Deps, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{Deps: d.withDefaults(), tokens: tokens}
}

// Register creates a citizen account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenView, error) {
	u, err := s.CreateUser(ctx, CreateUserInput{
		Username: in.Username,
		Name:     in.Name,
		Password: in.Password,
		Role:     string(models.RoleCitizen),
	})
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// CreateUser creates an account with any role. Used by Register and by
// operators.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	taken, err := s.Store.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         models.UserRole(in.Role),
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Logger.InfoContext(ctx, "user created", "username", u.Username, "role", u.Role)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenView, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.Store.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*UserView, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	v := newUserView(u)
	return &v, nil
}

func (s *AuthService) issue(u *models.User) (*TokenView, error) {
	token, exp, err := s.tokens.Generate(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &TokenView{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   formatTime(exp),
		User:        newUserView(u),
	}, nil
}
