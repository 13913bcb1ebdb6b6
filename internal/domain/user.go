package domain

import (
	"context"
	"strings"
	"time"
)

// Role separates learners from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a domain user object
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new learner with a normalized email.
func NewUser(name, email string) *User {
	now := time.Now()
	return &User{
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository defines the interface for user data persistence.
// Get methods return (nil, nil) when the user does not exist.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
}
