package security

import (
	"context"
	"fmt"
	"time"

	"auction-core/internal/audit"
	"auction-core/internal/auctionerrors"
	"auction-core/internal/config"
	"auction-core/internal/counter"
	"auction-core/internal/models"
	"auction-core/utils"

	"github.com/sony/gobreaker"
)

// Counter key prefixes. Keys combine the subject with the action so the same
// email or IP can be tracked independently per behavior.
const (
	keyFailedLogin  = "login_fail:"
	keySuspiciousIP = "suspicious:"
	keyBidRate      = "bid_rate:"
)

// Monitor consumes the audit log and the counter store to make lockout and
// block decisions. Hard gates (lockout, IP block) fail closed when the
// counter store is unreachable; the rapid-bidding signal fails open because
// it never gates a bid.
type Monitor struct {
	counters counter.Store
	auditLog audit.Log
	cfg      config.SecurityConfig
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time
}

// NewMonitor creates a security monitor over the given stores. The circuit
// breaker trips after the configured number of consecutive counter-store
// failures; while open, hard-gate checks report unavailability immediately
// instead of hammering a dead dependency.
func NewMonitor(counters counter.Store, auditLog audit.Log, cfg config.SecurityConfig) *Monitor {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "security-counters",
		Timeout: cfg.BreakerResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureCount
		},
	})

	return &Monitor{
		counters: counters,
		auditLog: auditLog,
		cfg:      cfg,
		breaker:  breaker,
		now:      time.Now,
	}
}

// WithClock overrides the monitor's clock. Intended for tests.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// RecordFailedLogin registers a failed authentication attempt for the
// (email, ip) pair and appends the corresponding audit entry.
func (m *Monitor) RecordFailedLogin(ctx context.Context, email, ip string) error {
	entry := models.AuditEntry{
		Timestamp: m.now().UTC(),
		Email:     email,
		IPAddress: ip,
		Action:    models.ActionLogin,
		Status:    models.AuditFailure,
	}
	if err := m.auditLog.Append(ctx, entry); err != nil {
		utils.Error("security: failed to audit login failure", map[string]any{"email": email, "ip": ip, "error": err.Error()})
	}

	_, err := m.incrementGuarded(ctx, keyFailedLogin+email+":"+ip, m.cfg.FailedLoginWindow)
	if err != nil {
		return fmt.Errorf("security: record failed login: %w", err)
	}
	return nil
}

// IsLockedOut reports whether authentication for (email, ip) must be rejected
// with ACCOUNT_LOCKED before any password check is performed. A counter-store
// outage fails closed: the caller receives ErrSecurityCheckUnavailable and
// must deny the attempt.
func (m *Monitor) IsLockedOut(ctx context.Context, email, ip string) (bool, error) {
	count, err := m.countGuarded(ctx, keyFailedLogin+email+":"+ip, m.cfg.FailedLoginWindow)
	if err != nil {
		return false, fmt.Errorf("security: lockout check for %s: %w", email, auctionerrors.ErrSecurityCheckUnavailable)
	}
	return count >= int64(m.cfg.FailedLoginLimit), nil
}

// RecordLoginSuccess audits a successful authentication.
func (m *Monitor) RecordLoginSuccess(ctx context.Context, userID, email, ip, userAgent string) {
	m.appendEntry(ctx, models.AuditEntry{
		UserID:    userID,
		Email:     email,
		IPAddress: ip,
		UserAgent: userAgent,
		Action:    models.ActionLogin,
		Status:    models.AuditSuccess,
	})
}

// RecordRegistration audits a new account registration.
func (m *Monitor) RecordRegistration(ctx context.Context, userID, email, ip string) {
	m.appendEntry(ctx, models.AuditEntry{
		UserID:    userID,
		Email:     email,
		IPAddress: ip,
		Action:    models.ActionRegister,
		Status:    models.AuditSuccess,
	})
}

// RecordResourceAccess audits an access to a protected resource.
func (m *Monitor) RecordResourceAccess(ctx context.Context, userID, ip, resource string, allowed bool) {
	status := models.AuditSuccess
	action := models.ActionResourceAccess
	if !allowed {
		status = models.AuditFailure
		action = models.ActionUnauthorizedAccess
	}
	m.appendEntry(ctx, models.AuditEntry{
		UserID:    userID,
		IPAddress: ip,
		Action:    action,
		Status:    status,
		Details:   map[string]any{"resource": resource},
	})
}

// RecordSuspiciousEvent appends a SUSPICIOUS audit entry for the IP and
// advances its hourly counter toward the block threshold.
func (m *Monitor) RecordSuspiciousEvent(ctx context.Context, ip, reason string) error {
	m.appendEntry(ctx, models.AuditEntry{
		IPAddress: ip,
		Action:    models.ActionSuspicious,
		Status:    models.AuditFailure,
		Details:   map[string]any{"reason": reason},
	})

	count, err := m.incrementGuarded(ctx, keySuspiciousIP+ip, m.cfg.SuspiciousIPWindow)
	if err != nil {
		return fmt.Errorf("security: record suspicious event for %s: %w", ip, err)
	}
	if count >= int64(m.cfg.SuspiciousIPLimit) {
		utils.Warn("security: ip crossed suspicious threshold", map[string]any{"ip": ip, "count": count, "reason": reason})
	}
	return nil
}

// IsIPBlocked reports whether every request from ip must be rejected with
// IP_BLOCKED for the remainder of the window, independent of route. Fails
// closed on counter-store outage.
func (m *Monitor) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	count, err := m.countGuarded(ctx, keySuspiciousIP+ip, m.cfg.SuspiciousIPWindow)
	if err != nil {
		return false, fmt.Errorf("security: ip block check for %s: %w", ip, auctionerrors.ErrSecurityCheckUnavailable)
	}
	return count >= int64(m.cfg.SuspiciousIPLimit), nil
}

// RecordBid audits a placed bid and advances the bidder's rate counter. This
// path never fails a bid: audit or counter errors are logged and swallowed.
func (m *Monitor) RecordBid(ctx context.Context, userID, ip string, bidID string, amount float64) {
	m.appendEntry(ctx, models.AuditEntry{
		UserID:    userID,
		IPAddress: ip,
		Action:    models.ActionBidPlace,
		Status:    models.AuditSuccess,
		Details:   map[string]any{"bid_id": bidID, "amount": amount},
	})

	if _, err := m.counters.Increment(ctx, keyBidRate+userID, m.cfg.RapidBidWindow); err != nil {
		utils.Warn("security: bid rate counter unavailable", map[string]any{"user_id": userID, "error": err.Error()})
	}
}

// IsRapidBidding reports whether the user has placed at least the configured
// number of bids within the trailing window, judged from BID_PLACE audit
// entries. A positive result raises a SUSPICIOUS entry for later review but
// is never a hard gate: legitimate last-second bidding wars look identical.
// Fails open on audit-log unavailability.
func (m *Monitor) IsRapidBidding(ctx context.Context, userID string) bool {
	since := m.now().Add(-m.cfg.RapidBidWindow)
	count, err := m.auditLog.CountSince(ctx, audit.Filter{UserID: userID, Action: models.ActionBidPlace}, since)
	if err != nil {
		utils.Warn("security: rapid bid check unavailable", map[string]any{"user_id": userID, "error": err.Error()})
		return false
	}
	if count < m.cfg.RapidBidLimit {
		return false
	}

	m.appendEntry(ctx, models.AuditEntry{
		UserID:    userID,
		Action:    models.ActionSuspicious,
		Status:    models.AuditFailure,
		Details:   map[string]any{"reason": "rapid bidding", "bids_in_window": count},
	})
	return true
}

// incrementGuarded routes a counter increment through the circuit breaker.
func (m *Monitor) incrementGuarded(ctx context.Context, key string, window time.Duration) (int64, error) {
	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.counters.Increment(ctx, key, window)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// countGuarded routes a counter read through the circuit breaker.
func (m *Monitor) countGuarded(ctx context.Context, key string, window time.Duration) (int64, error) {
	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.counters.Count(ctx, key, window)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// appendEntry writes an audit entry, timestamping it from the monitor's clock
// and logging (not propagating) append failures.
func (m *Monitor) appendEntry(ctx context.Context, entry models.AuditEntry) {
	entry.Timestamp = m.now().UTC()
	if err := m.auditLog.Append(ctx, entry); err != nil {
		utils.Error("security: failed to append audit entry", map[string]any{"action": string(entry.Action), "error": err.Error()})
	}
}
