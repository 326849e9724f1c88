package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the access token claims issued by the school identity service.
// Every timetable operation is scoped to SchoolID.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	SchoolID string   `json:"school_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
