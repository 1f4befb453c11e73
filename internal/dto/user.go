package dto

import "github.com/yukikurage/project-collab-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64            `json:"id"`
	Name  string            `json:"name"`
	Email string            `json:"email"`
	Role  models.GlobalRole `json:"role"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, user := range users {
		out[i] = ToUserDTO(user)
	}
	return out
}
