package storage

import (
	"context"
	"errors"

	usermodel "github.com/stockcast/stockcast/internal/models/user"
)

var ErrDuplicateEmail = errors.New("user already exists with this email")

// UserStore persists user records. Emails are unique and stored
// normalized; lookups by id never include the password hash.
type UserStore interface {
	CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error)
	GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
	GetUserByID(ctx context.Context, userID string) (*usermodel.User, error)
}
