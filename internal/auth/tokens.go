package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
)

const (
	// TokenPrefix is the prefix for all generated tokens
	TokenPrefix = "menu_"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenStore manages API token operations
type TokenStore struct {
	repo  *Repository
	clock clockwork.Clock
}

// NewTokenStore creates a new token store
func NewTokenStore(repo *Repository, clock clockwork.Clock) *TokenStore {
	return &TokenStore{repo: repo, clock: clock}
}

// GenerateToken creates a new random token
// Format: menu_ + Base58(SHA256(random_bytes))
func GenerateToken() (rawToken string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(randomBytes)

	rawToken = TokenPrefix + base58.Encode(sum[:])
	return rawToken, hashToken(rawToken), nil
}

// hashToken creates a SHA256 hash of a token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// CreateUserToken creates a token for a user, enforcing their max_tokens limit
func (s *TokenStore) CreateUserToken(ctx context.Context, user *User, label string, expiresAt *time.Time) (*TokenWithRaw, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("token label is required")
	}
	if expiresAt != nil && !expiresAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("token expiry must be in the future")
	}

	count, err := s.activeTokenCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if count >= user.MaxTokens {
		return nil, fmt.Errorf("maximum token limit (%d) reached", user.MaxTokens)
	}

	rawToken, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if expiresAt != nil {
		utc := expiresAt.UTC()
		expiresAt = &utc
	}
	result, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO api_tokens (user_id, token_hash, label, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, tokenHash, label, expiresAt, now)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &TokenWithRaw{
		Token: Token{
			ID:        id,
			UserID:    user.ID,
			TokenHash: tokenHash,
			Label:     label,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		},
		RawToken: rawToken,
	}, nil
}

func (s *TokenStore) activeTokenCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.repo.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM api_tokens
		WHERE user_id = ? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
	`, userID, s.clock.Now().UTC()).Scan(&count)
	return count, err
}

const tokenColumns = `id, user_id, token_hash, label, expires_at, revoked_at, last_used_at, created_at`

func scanToken(row rowScanner) (*Token, error) {
	var t Token
	var expiresAt, revokedAt, lastUsedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Label, &expiresAt, &revokedAt, &lastUsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ExpiresAt = ScanNullableTime(expiresAt)
	t.RevokedAt = ScanNullableTime(revokedAt)
	t.LastUsedAt = ScanNullableTime(lastUsedAt)
	return &t, nil
}

// ValidateToken resolves a raw bearer token to its owner
func (s *TokenStore) ValidateToken(ctx context.Context, rawToken string) (*ValidatedToken, error) {
	if !strings.HasPrefix(rawToken, TokenPrefix) {
		return nil, ErrTokenInvalid
	}

	token, err := scanToken(s.repo.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE token_hash = ?`, hashToken(rawToken)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if token.RevokedAt != nil {
		return nil, ErrTokenRevoked
	}
	if token.ExpiresAt != nil && !token.ExpiresAt.After(now) {
		return nil, ErrTokenExpired
	}

	user, err := s.repo.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}

	return &ValidatedToken{Token: token, User: user}, nil
}

// ListUserTokens returns all tokens of a user, newest first
func (s *TokenStore) ListUserTokens(ctx context.Context, userID int64) ([]Token, error) {
	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT `+tokenColumns+` FROM api_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// RevokeToken revokes a token owned by userID
func (s *TokenStore) RevokeToken(ctx context.Context, tokenID, userID int64) error {
	result, err := s.repo.db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = ?
		WHERE id = ? AND user_id = ? AND revoked_at IS NULL
	`, s.clock.Now().UTC(), tokenID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("token not found or already revoked")
	}
	return nil
}

// AdminRevokeToken revokes any token
func (s *TokenStore) AdminRevokeToken(ctx context.Context, tokenID int64) error {
	result, err := s.repo.db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`, s.clock.Now().UTC(), tokenID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("token not found or already revoked")
	}
	return nil
}
