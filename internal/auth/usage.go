package auth

import (
	"context"
	"sync"
	"time"

	"MenuAPI/internal/logging"

	"github.com/jonboulle/clockwork"
)

const (
	// UsageBufferSize is the size of the token-use buffer
	UsageBufferSize = 1000

	// UsageFlushInterval is how often buffered token uses are written
	UsageFlushInterval = 2 * time.Second

	// CleanupInterval is how often expired sessions and OAuth states are removed
	CleanupInterval = 10 * time.Minute

	usageBatchSize = 100
)

// TokenUse records that a token authenticated a request
type TokenUse struct {
	TokenID int64
	At      time.Time
}

// UsageTracker batches token last-used writes off the request path and
// periodically purges expired sessions and OAuth states
type UsageTracker struct {
	repo         *Repository
	clock        clockwork.Clock
	buffer       chan TokenUse
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	stateStore   *OAuthStateStore
	sessionStore *SessionStore
}

// NewUsageTracker creates a new usage tracker
func NewUsageTracker(repo *Repository, clock clockwork.Clock, stateStore *OAuthStateStore, sessionStore *SessionStore) *UsageTracker {
	return &UsageTracker{
		repo:         repo,
		clock:        clock,
		buffer:       make(chan TokenUse, UsageBufferSize),
		stopCh:       make(chan struct{}),
		stateStore:   stateStore,
		sessionStore: sessionStore,
	}
}

// RecordTokenUse queues a last-used update (non-blocking)
func (t *UsageTracker) RecordTokenUse(tokenID int64) {
	select {
	case t.buffer <- TokenUse{TokenID: tokenID, At: t.clock.Now().UTC()}:
	default:
		logging.Logger.Warn("Token usage buffer full, dropping entry", "token_id", tokenID)
	}
}

// Start begins the background goroutines for flushing and cleanup
func (t *UsageTracker) Start(ctx context.Context) {
	t.wg.Add(2)

	go func() {
		defer t.wg.Done()
		t.usageWriter(ctx)
	}()

	go func() {
		defer t.wg.Done()
		t.cleanupTicker(ctx)
	}()
}

// Stop flushes pending writes and waits for the goroutines to exit
func (t *UsageTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

func (t *UsageTracker) usageWriter(ctx context.Context) {
	ticker := t.clock.NewTicker(UsageFlushInterval)
	defer ticker.Stop()

	var batch []TokenUse
	for {
		select {
		case <-ctx.Done():
			t.drainAndFlush(batch)
			return
		case <-t.stopCh:
			t.drainAndFlush(batch)
			return
		case use := <-t.buffer:
			batch = append(batch, use)
			if len(batch) >= usageBatchSize {
				t.flushBatch(batch)
				batch = nil
			}
		case <-ticker.Chan():
			if len(batch) > 0 {
				t.flushBatch(batch)
				batch = nil
			}
		}
	}
}

func (t *UsageTracker) drainAndFlush(batch []TokenUse) {
	for {
		select {
		case use := <-t.buffer:
			batch = append(batch, use)
		default:
			t.flushBatch(batch)
			return
		}
	}
}

// flushBatch keeps the latest use per token and writes it in one transaction.
func (t *UsageTracker) flushBatch(batch []TokenUse) {
	if len(batch) == 0 {
		return
	}

	latest := make(map[int64]time.Time, len(batch))
	for _, use := range batch {
		if use.At.After(latest[use.TokenID]) {
			latest[use.TokenID] = use.At
		}
	}

	// Detached from the request/server context so a shutdown flush still lands
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := t.repo.db.BeginTx(ctx, nil)
	if err != nil {
		logging.WithError(err).Error("Failed to flush token usage")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE api_tokens SET last_used_at = ? WHERE id = ?")
	if err != nil {
		logging.WithError(err).Error("Failed to flush token usage")
		return
	}
	defer stmt.Close()

	for id, at := range latest {
		if _, err := stmt.ExecContext(ctx, at, id); err != nil {
			logging.WithError(err).Error("Failed to flush token usage", "token_id", id)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		logging.WithError(err).Error("Failed to flush token usage")
	}
}

func (t *UsageTracker) cleanupTicker(ctx context.Context) {
	ticker := t.clock.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.Chan():
			t.Cleanup(ctx)
		}
	}
}

// Cleanup removes expired sessions and OAuth states
func (t *UsageTracker) Cleanup(ctx context.Context) {
	if t.sessionStore != nil {
		n, err := t.sessionStore.CleanupExpiredSessions(ctx)
		if err != nil {
			logging.WithError(err).Error("Failed to clean up sessions")
		} else if n > 0 {
			logging.Logger.Debug("Expired sessions removed", "count", n)
		}
	}

	if t.stateStore != nil {
		n, err := t.stateStore.CleanupExpiredStates(ctx)
		if err != nil {
			logging.WithError(err).Error("Failed to clean up OAuth states")
		} else if n > 0 {
			logging.Logger.Debug("Expired OAuth states removed", "count", n)
		}
	}
}
