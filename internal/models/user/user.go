package user

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Name  string
	Email string
}

// Public strips everything a client must never see. The password hash is
// already excluded from JSON, this also drops it from in-process copies
// handed past the storage layer.
func (u *User) Public() *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
