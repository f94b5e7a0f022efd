package converter

import (
	"find-my-doctor/internal/delivery/dto"
	"find-my-doctor/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO. The password
// hash is never copied.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	return &dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Gender:      user.Gender,
		Age:         user.Age,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}
