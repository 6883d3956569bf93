package auth

import "zyboard/internal/domain"

type RegisterRequest struct {
	Username string `json:"username" validate:"max=50"`
	Email    string `json:"email" validate:"max=255"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}
