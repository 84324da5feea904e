package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ErrEmailTaken is returned when signing up with an email that has an account.
var ErrEmailTaken = errors.New("an account with this email already exists")

// Repository provides access to auth-related database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// --- User Operations ---

const userColumns = `id, email, display_name, role, status, password_hash, max_tokens, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var hash sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Status, &hash, &u.MaxTokens, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PasswordHash = ScanNullableString(hash)
	return &u, nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUserByID returns a user by ID
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail returns a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetAllUsers returns all users with pagination
func (r *Repository) GetAllUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateUser creates a new user. The first account ever created becomes an
// admin so a fresh install can manage the dish catalogue.
func (r *Repository) CreateUser(ctx context.Context, email, displayName string, passwordHash *string) (*User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return nil, err
	}
	role := RoleUser
	if count == 0 {
		role = RoleAdmin
	}

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO users (email, display_name, role, password_hash) VALUES (?, ?, ?, ?)
	`, NormalizeEmail(email), strings.TrimSpace(displayName), role, passwordHash)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// UpdateUser updates user fields
func (r *Repository) UpdateUser(ctx context.Context, id int64, role *Role, status *Status, maxTokens *int) error {
	if role != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", *role, id); err != nil {
			return err
		}
	}
	if status != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET status = ? WHERE id = ?", *status, id); err != nil {
			return err
		}
	}
	if maxTokens != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET max_tokens = ? WHERE id = ?", *maxTokens, id); err != nil {
			return err
		}
	}
	return nil
}

// --- OAuth Identity Operations ---

// GetOAuthIdentity returns an OAuth identity by provider and provider ID
func (r *Repository) GetOAuthIdentity(ctx context.Context, provider Provider, providerID string) (*OAuthIdentity, error) {
	var o OAuthIdentity
	var accessToken, refreshToken sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, provider_id, access_token, refresh_token, created_at
		FROM oauth_identities
		WHERE provider = ? AND provider_id = ?
	`, provider, providerID).Scan(&o.ID, &o.UserID, &o.Provider, &o.ProviderID, &accessToken, &refreshToken, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.AccessToken = ScanNullableString(accessToken)
	o.RefreshToken = ScanNullableString(refreshToken)
	return &o, nil
}

// CreateOAuthIdentity links a provider account to a user
func (r *Repository) CreateOAuthIdentity(ctx context.Context, userID int64, provider Provider, providerID, accessToken, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_identities (user_id, provider, provider_id, access_token, refresh_token)
		VALUES (?, ?, ?, ?, ?)
	`, userID, provider, providerID, accessToken, refreshToken)
	return err
}

// UpdateOAuthIdentityTokens updates the tokens for an OAuth identity
func (r *Repository) UpdateOAuthIdentityTokens(ctx context.Context, id int64, accessToken, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE oauth_identities SET access_token = ?, refresh_token = ? WHERE id = ?
	`, accessToken, refreshToken, id)
	return err
}
