package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// OAuthStateExpiry is how long an OAuth state is valid
	OAuthStateExpiry = 10 * time.Minute
)

// OAuthStateStore manages OAuth CSRF state tokens
type OAuthStateStore struct {
	repo  *Repository
	clock clockwork.Clock
}

// NewOAuthStateStore creates a new OAuth state store
func NewOAuthStateStore(repo *Repository, clock clockwork.Clock) *OAuthStateStore {
	return &OAuthStateStore{repo: repo, clock: clock}
}

// CreateState generates a new random state token for CSRF protection
func (s *OAuthStateStore) CreateState(ctx context.Context) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(bytes)

	_, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO oauth_states (state, expires_at) VALUES (?, ?)
	`, state, s.clock.Now().UTC().Add(OAuthStateExpiry))
	if err != nil {
		return "", err
	}
	return state, nil
}

// ValidateState checks if a state token is valid and not expired.
// The token is deleted after validation (single-use).
func (s *OAuthStateStore) ValidateState(ctx context.Context, state string) (bool, error) {
	result, err := s.repo.db.ExecContext(ctx, `
		DELETE FROM oauth_states
		WHERE state = ? AND expires_at > ?
	`, state, s.clock.Now().UTC())
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// CleanupExpiredStates removes all expired state tokens
func (s *OAuthStateStore) CleanupExpiredStates(ctx context.Context) (int64, error) {
	result, err := s.repo.db.ExecContext(ctx, `
		DELETE FROM oauth_states WHERE expires_at <= ?
	`, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
