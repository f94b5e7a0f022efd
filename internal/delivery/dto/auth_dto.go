package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=6,maxbytes=72"`
	PhoneNumber string `json:"phoneNumber" validate:"required,notblank,max=20"`
	Gender      string `json:"gender" validate:"required,oneof=male female other"`
	Age         int    `json:"age" validate:"required,gte=1,lte=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expiresIn"`
	User      *UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Gender      string    `json:"gender"`
	Age         int       `json:"age"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}
