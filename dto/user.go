package dto

import (
	"time"

	"skilltracker/model"
)

type SignupRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is a partial update; absent fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,notblank"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"` // GET, PUT, DELETE
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Links     map[string]Link `json:"_links,omitempty"` // HAL links
}

func ToUserResponse(user *model.User, baseURL string) UserResponse {
	self := baseURL + "/users/" + user.ID.Hex()
	return UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Links: map[string]Link{
			"self":   {Href: self, Method: "GET"},
			"update": {Href: self, Method: "PUT"},
			"delete": {Href: self, Method: "DELETE"},
		},
	}
}

func ToUserResponses(users []*model.User, baseURL string) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u, baseURL))
	}
	return out
}
