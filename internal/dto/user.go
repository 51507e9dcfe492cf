package dto

import (
	"time"

	"github.com/finbook/finbook_backend/internal/core/domain"
)

// CreateUserRequest defines the payload to register a new user. Username is
// typically an email address; OAuth sign-ins use the verified email directly.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=255"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// UpdateUserRequest defines the editable profile fields.
type UpdateUserRequest struct {
	Name *string `json:"name"`
}

// UserResponse is the API shape of a user profile. Credential fields are
// deliberately absent.
type UserResponse struct {
	UserID        string    `json:"userID"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ToUserResponse converts a domain.User to its API shape.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:        user.UserID,
		Username:      user.Username,
		Name:          user.Name,
		CreatedAt:     user.CreatedAt,
		LastUpdatedAt: user.LastUpdatedAt,
	}
}
