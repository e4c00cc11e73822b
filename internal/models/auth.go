package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only principal the admin console knows about.
const RoleAdmin = "ADMIN"

// AdminLoginRequest holds the shared admin credential.
type AdminLoginRequest struct {
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AdminClaims is the JWT payload; the token ID doubles as the session ID.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the server-side session the token is bound to.
func (c *AdminClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// AdminSession is the server-side record backing an issued token.
type AdminSession struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}
