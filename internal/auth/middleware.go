package auth

import (
	"errors"
	"net/http"
	"strings"

	"MenuAPI/internal/common"
	"MenuAPI/internal/logging"

	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextKeyUser  = "auth_user"
	ContextKeyToken = "auth_token"

	HeaderAuthorization = "Authorization"
)

// Middleware provides authentication and authorization middleware
type Middleware struct {
	tokenStore   *TokenStore
	sessionStore *SessionStore
	usage        *UsageTracker
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokenStore *TokenStore, sessionStore *SessionStore, usage *UsageTracker) *Middleware {
	return &Middleware{tokenStore: tokenStore, sessionStore: sessionStore, usage: usage}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
// ok is false when the header is absent; a malformed header yields an error.
func bearerToken(c *gin.Context) (token string, ok bool, err error) {
	header := c.GetHeader(HeaderAuthorization)
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", true, errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// authenticateSession loads the user of the session cookie. It aborts and
// returns false when the cookie is missing, stale or the account is suspended.
func (m *Middleware) authenticateSession(c *gin.Context) bool {
	sessionID, err := m.sessionStore.GetSessionFromCookie(c)
	if err != nil || sessionID == "" {
		common.Abort(c, http.StatusUnauthorized, "not authenticated")
		return false
	}

	session, user, err := m.sessionStore.Resolve(c.Request.Context(), sessionID)
	if err != nil {
		logging.WithError(err).ErrorContext(c.Request.Context(), "Session lookup failed")
		common.Abort(c, http.StatusInternalServerError, "failed to load session")
		return false
	}
	if session == nil || user == nil {
		m.sessionStore.ClearSessionCookie(c)
		common.Abort(c, http.StatusUnauthorized, "session expired or invalid")
		return false
	}

	if user.Status != StatusActive {
		m.sessionStore.ClearSessionCookie(c)
		common.Abort(c, http.StatusForbidden, "account is "+string(user.Status))
		return false
	}

	// Keep the browser cookie in step with a sliding expiry
	m.sessionStore.SetSessionCookie(c, session.ID)
	c.Set(ContextKeyUser, user)
	return true
}

// authenticateToken validates a bearer token and loads its owner.
func (m *Middleware) authenticateToken(c *gin.Context, raw string) bool {
	validated, err := m.tokenStore.ValidateToken(c.Request.Context(), raw)
	switch {
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenRevoked):
		common.Abort(c, http.StatusUnauthorized, err.Error())
		return false
	case err != nil:
		logging.WithError(err).ErrorContext(c.Request.Context(), "Token validation failed")
		common.Abort(c, http.StatusInternalServerError, "failed to validate token")
		return false
	}

	if validated.User.Status != StatusActive {
		common.Abort(c, http.StatusForbidden, "account is "+string(validated.User.Status))
		return false
	}

	if m.usage != nil {
		m.usage.RecordTokenUse(validated.Token.ID)
	}

	c.Set(ContextKeyUser, validated.User)
	c.Set(ContextKeyToken, validated.Token)
	return true
}

// RequireSession returns a middleware that validates session cookies
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticateSession(c) {
			return
		}
		c.Next()
	}
}

// RequireSessionOrToken accepts a bearer token when one is sent and falls
// back to the session cookie otherwise
func (m *Middleware) RequireSessionOrToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present, err := bearerToken(c)
		if err != nil {
			common.Abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		if present {
			if !m.authenticateToken(c, raw) {
				return
			}
		} else if !m.authenticateSession(c) {
			return
		}
		c.Next()
	}
}

// RequireRole returns a middleware that checks if the user has the required role.
// Admins pass every role check.
func (m *Middleware) RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			common.Abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}

		if user.Role != role && user.Role != RoleAdmin {
			common.Abort(c, http.StatusForbidden, "requires "+string(role)+" role")
			return
		}

		c.Next()
	}
}

// OptionalSession attempts to load a session but doesn't fail if none exists
func (m *Middleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := m.sessionStore.GetSessionFromCookie(c)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		_, user, err := m.sessionStore.Resolve(c.Request.Context(), sessionID)
		if err == nil && user != nil && user.Status == StatusActive {
			c.Set(ContextKeyUser, user)
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) *User {
	userVal, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := userVal.(*User)
	if !ok {
		return nil
	}
	return user
}

// GetTokenFromContext retrieves the validated token from the context
func GetTokenFromContext(c *gin.Context) *Token {
	tokenVal, exists := c.Get(ContextKeyToken)
	if !exists {
		return nil
	}
	token, ok := tokenVal.(*Token)
	if !ok {
		return nil
	}
	return token
}
