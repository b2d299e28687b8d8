package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockcast/stockcast/internal/auth"
	usermodel "github.com/stockcast/stockcast/internal/models/user"
	"github.com/stockcast/stockcast/internal/storage"
	"github.com/stockcast/stockcast/internal/validation"
)

var (
	ErrEmailTaken = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthResult struct {
	User      *usermodel.User
	Token     string
	ExpiresAt time.Time
}

type UserService struct {
	store      storage.UserStore
	jwtManager *auth.JWTManager
}

func NewUserService(store storage.UserStore, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		store:      store,
		jwtManager: jwtManager,
	}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Store the name the way it was validated: without surrounding
	// whitespace.
	user, err := s.store.CreateUser(ctx, &usermodel.CreateUserRequest{
		Name:  strings.TrimSpace(name),
		Email: validation.NormalizeEmail(email),
	}, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueToken(user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user.Public())
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*usermodel.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *UserService) ValidateToken(token string) (*auth.Claims, error) {
	return s.jwtManager.ValidateToken(token)
}

func (s *UserService) issueToken(user *usermodel.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwtManager.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
