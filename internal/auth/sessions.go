package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "menuapi_session"

	// DefaultSessionDuration is the default session lifetime
	DefaultSessionDuration = 7 * 24 * time.Hour
)

// SessionStore manages server-side sessions
type SessionStore struct {
	repo            *Repository
	clock           clockwork.Clock
	sessionDuration time.Duration
	secureCookie    bool
}

// NewSessionStore creates a new session store
func NewSessionStore(repo *Repository, clock clockwork.Clock, sessionDuration time.Duration, secureCookie bool) *SessionStore {
	if sessionDuration == 0 {
		sessionDuration = DefaultSessionDuration
	}
	return &SessionStore{
		repo:            repo,
		clock:           clock,
		sessionDuration: sessionDuration,
		secureCookie:    secureCookie,
	}
}

// CreateSession creates a new session for a user
func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	now := s.clock.Now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}

	_, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
	`, session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns a session if it exists and is not expired, or nil
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	err := s.repo.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, sessionID, s.clock.Now().UTC()).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Resolve returns the live session and its user, or nils when either is gone.
// Sessions past half their lifetime are extended.
func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (*Session, *User, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return nil, nil, err
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, nil, err
	}

	if session.ExpiresAt.Sub(s.clock.Now()) < s.sessionDuration/2 {
		if err := s.ExtendSession(ctx, session); err != nil {
			return nil, nil, err
		}
	}
	return session, user, nil
}

// DeleteSession removes a session
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

// DeleteUserSessions removes all sessions for a user
func (s *SessionStore) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// CleanupExpiredSessions removes all expired sessions
func (s *SessionStore) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.repo.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExtendSession pushes the session expiry a full duration from now
func (s *SessionStore) ExtendSession(ctx context.Context, session *Session) error {
	expiresAt := s.clock.Now().UTC().Add(s.sessionDuration)
	if _, err := s.repo.db.ExecContext(ctx, `
		UPDATE sessions SET expires_at = ? WHERE id = ?
	`, expiresAt, session.ID); err != nil {
		return err
	}
	session.ExpiresAt = expiresAt
	return nil
}

// SetSessionCookie sets the session cookie on the response
func (s *SessionStore) SetSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName,
		sessionID,
		int(s.sessionDuration.Seconds()),
		"/",
		"",
		s.secureCookie,
		true, // httpOnly
	)
}

// ClearSessionCookie removes the session cookie
func (s *SessionStore) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.secureCookie, true)
}

// GetSessionFromCookie retrieves the session ID from the request cookie
func (s *SessionStore) GetSessionFromCookie(c *gin.Context) (string, error) {
	return c.Cookie(SessionCookieName)
}
