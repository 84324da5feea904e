package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"MenuAPI/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testStores struct {
	repo     *Repository
	clock    *clockwork.FakeClock
	sessions *SessionStore
	tokens   *TokenStore
	states   *OAuthStateStore
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	sqlDB, _ := database.OpenTestDB(t)
	repo := NewRepository(sqlDB)
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC))

	return &testStores{
		repo:     repo,
		clock:    clock,
		sessions: NewSessionStore(repo, clock, 2*time.Hour, false),
		tokens:   NewTokenStore(repo, clock),
		states:   NewOAuthStateStore(repo, clock),
	}
}

func (s *testStores) createUser(t *testing.T, email string) *User {
	t.Helper()
	user, err := s.repo.CreateUser(context.Background(), email, "Test User", nil)
	require.NoError(t, err)
	return user
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
