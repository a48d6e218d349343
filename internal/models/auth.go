package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SignUpRequest holds the profile fields submitted at registration.
type SignUpRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	FirstName string `json:"firstName" validate:"required,max=128"`
	LastName  string `json:"lastName" validate:"required,max=128"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Password  string `json:"password" validate:"required,min=6"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token pair.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshRequest exchanges an expired access token plus a refresh token for a
// new pair.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
