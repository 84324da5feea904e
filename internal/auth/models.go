package auth

import (
	"database/sql"
	"time"
)

// Role represents user permission levels
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status represents user account status
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

// Provider represents OAuth providers
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// User is an account that can sign in through OAuth, a password, or both
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	PasswordHash *string   `json:"-"`
	MaxTokens    int       `json:"maxTokens"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OAuthIdentity links a user to an OAuth provider
type OAuthIdentity struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Provider     Provider  `json:"provider"`
	ProviderID   string    `json:"providerId"`
	AccessToken  *string   `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents a server-side user session
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Token is a read-only API credential. Only its hash is stored.
type Token struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	TokenHash  string     `json:"-"`
	Label      string     `json:"label"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TokenWithRaw includes the raw token value (only returned on creation)
type TokenWithRaw struct {
	Token
	RawToken string `json:"token"`
}

// ValidatedToken holds the result of token validation
type ValidatedToken struct {
	Token *Token
	User  *User
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenCreateRequest represents the request body for creating a token
type TokenCreateRequest struct {
	Label     string     `json:"label" binding:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UserUpdateRequest represents the request body for updating a user
type UserUpdateRequest struct {
	Role      *Role   `json:"role"`
	Status    *Status `json:"status"`
	MaxTokens *int    `json:"maxTokens" binding:"omitempty,min=0"`
}

// ScanNullableString helper for scanning nullable string
func ScanNullableString(n sql.NullString) *string {
	if n.Valid {
		return &n.String
	}
	return nil
}

// ScanNullableTime helper for scanning nullable time
func ScanNullableTime(n sql.NullTime) *time.Time {
	if n.Valid {
		return &n.Time
	}
	return nil
}
