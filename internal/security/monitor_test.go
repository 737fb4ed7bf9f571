package security

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-core/internal/audit"
	"auction-core/internal/auctionerrors"
	"auction-core/internal/config"
	"auction-core/internal/counter"
	"auction-core/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable clock shared by the monitor and its counter store
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStore simulates an unreachable counter store
type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("counter store unreachable")
}

func (failingStore) Count(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("counter store unreachable")
}

func newTestMonitor(clock *fakeClock) (*Monitor, *audit.MemoryLog) {
	log := audit.NewMemoryLog()
	store := counter.NewMemoryStoreWithClock(clock.Now)
	monitor := NewMonitor(store, log, config.Default().Security).WithClock(clock.Now)
	return monitor, log
}

// Test failed-login lockout with window expiry
func TestMonitor_FailedLoginLockout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	monitor, _ := newTestMonitor(clock)

	// Below the threshold no lockout applies
	for i := 0; i < 4; i++ {
		require.NoError(t, monitor.RecordFailedLogin(ctx, "alice@example.com", "10.0.0.1"))
	}
	locked, err := monitor.IsLockedOut(ctx, "alice@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, locked)

	// Fifth failure trips the lockout
	require.NoError(t, monitor.RecordFailedLogin(ctx, "alice@example.com", "10.0.0.1"))
	locked, err = monitor.IsLockedOut(ctx, "alice@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, locked)

	// A different (email, ip) pair is unaffected
	locked, err = monitor.IsLockedOut(ctx, "alice@example.com", "10.0.0.99")
	require.NoError(t, err)
	require.False(t, locked)

	// After the window elapses the next attempt is evaluated normally
	clock.Advance(15*time.Minute + time.Second)
	locked, err = monitor.IsLockedOut(ctx, "alice@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, locked)
}

// Test suspicious-IP blocking
func TestMonitor_IPBlocking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	monitor, log := newTestMonitor(clock)

	for i := 0; i < 2; i++ {
		require.NoError(t, monitor.RecordSuspiciousEvent(ctx, "10.0.0.5", "scanner probe"))
	}
	blocked, err := monitor.IsIPBlocked(ctx, "10.0.0.5")
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, monitor.RecordSuspiciousEvent(ctx, "10.0.0.5", "scanner probe"))
	blocked, err = monitor.IsIPBlocked(ctx, "10.0.0.5")
	require.NoError(t, err)
	require.True(t, blocked)

	// Each suspicious event landed in the audit log
	entries, err := log.Query(ctx, audit.Filter{IPAddress: "10.0.0.5", Action: models.ActionSuspicious})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// The window rolls over and the block lifts
	clock.Advance(time.Hour + time.Second)
	blocked, err = monitor.IsIPBlocked(ctx, "10.0.0.5")
	require.NoError(t, err)
	require.False(t, blocked)
}

// Test rapid-bidding detection is a soft signal
func TestMonitor_RapidBidding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	monitor, log := newTestMonitor(clock)

	for i := 0; i < 4; i++ {
		monitor.RecordBid(ctx, "user1", "10.0.0.1", "bid", 100+float64(i))
		clock.Advance(time.Second)
	}
	require.False(t, monitor.IsRapidBidding(ctx, "user1"))

	monitor.RecordBid(ctx, "user1", "10.0.0.1", "bid5", 110)
	require.True(t, monitor.IsRapidBidding(ctx, "user1"))

	// The detection raised a SUSPICIOUS entry for review
	entries, err := log.Query(ctx, audit.Filter{UserID: "user1", Action: models.ActionSuspicious})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.Equal(t, "rapid bidding", entries[0].Details["reason"])

	// A minute later the window has slid past the burst
	clock.Advance(time.Minute + time.Second)
	require.False(t, monitor.IsRapidBidding(ctx, "user1"))
}

// Test hard gates fail closed when the counter store is unreachable
func TestMonitor_FailClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := audit.NewMemoryLog()
	monitor := NewMonitor(failingStore{}, log, config.Default().Security)

	_, err := monitor.IsLockedOut(ctx, "alice@example.com", "10.0.0.1")
	require.ErrorIs(t, err, auctionerrors.ErrSecurityCheckUnavailable)

	_, err = monitor.IsIPBlocked(ctx, "10.0.0.1")
	require.ErrorIs(t, err, auctionerrors.ErrSecurityCheckUnavailable)

	// Repeated failures eventually trip the breaker; the error stays typed
	for i := 0; i < 10; i++ {
		_, err = monitor.IsIPBlocked(ctx, "10.0.0.1")
		require.ErrorIs(t, err, auctionerrors.ErrSecurityCheckUnavailable)
	}
}

// Test the soft rapid-bid signal fails open on the same outage
func TestMonitor_RapidBiddingFailsOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := audit.NewMemoryLog()
	monitor := NewMonitor(failingStore{}, log, config.Default().Security)

	// The counter store is down but RecordBid and the rapid check proceed
	monitor.RecordBid(ctx, "user1", "10.0.0.1", "bid1", 100)
	require.False(t, monitor.IsRapidBidding(ctx, "user1"))

	// The audit trail still received the BID_PLACE entry
	entries, err := log.Query(ctx, audit.Filter{UserID: "user1", Action: models.ActionBidPlace})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// Test the plain audit record helpers land the right entries
func TestMonitor_AuditRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	monitor, log := newTestMonitor(clock)

	monitor.RecordLoginSuccess(ctx, "user1", "alice@example.com", "10.0.0.1", "agent/1.0")
	monitor.RecordRegistration(ctx, "user2", "bob@example.com", "10.0.0.2")
	monitor.RecordResourceAccess(ctx, "user1", "10.0.0.1", "/admin/audit", false)
	monitor.RecordResourceAccess(ctx, "user1", "10.0.0.1", "/auctions/a1/bids", true)

	entries, err := log.Query(ctx, audit.Filter{UserID: "user1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, models.ActionLogin, entries[0].Action)
	require.Equal(t, models.AuditSuccess, entries[0].Status)
	require.Equal(t, "agent/1.0", entries[0].UserAgent)

	// A denied access is recorded as UNAUTHORIZED_ACCESS with failure status
	entries, err = log.Query(ctx, audit.Filter{Action: models.ActionUnauthorizedAccess})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.AuditFailure, entries[0].Status)
	require.Equal(t, "/admin/audit", entries[0].Details["resource"])

	entries, err = log.Query(ctx, audit.Filter{Email: "bob@example.com"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.ActionRegister, entries[0].Action)
}
