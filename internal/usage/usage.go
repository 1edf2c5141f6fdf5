package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Tier names and their monthly debate allowances.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// DefaultLimits maps tier names to debates per monthly window.
var DefaultLimits = map[string]int{
	TierFree: 10,
	TierPro:  200,
}

// LimitError reports an exhausted monthly allowance.
type LimitError struct {
	Used  int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("debate limit reached: %d of %d used this month", e.Used, e.Limit)
}

// Profile is a user's current usage window.
type Profile struct {
	DebatesUsed   int
	DebatesLimit  int
	Tier          string
	WindowResetAt time.Time
}

// Store persists per-user usage counters.
type Store interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
	ResetWindow(ctx context.Context, userID string, resetAt time.Time) error
	Increment(ctx context.Context, userID string) error
}

// Gate enforces monthly debate limits. It fails open on store errors so a
// counter outage never blocks debates.
type Gate struct {
	store  Store
	limits map[string]int
	now    func() time.Time
	logger *logrus.Logger
}

// NewGate creates a gate over the given store. nil limits selects the
// defaults.
func NewGate(store Store, limits map[string]int, logger *logrus.Logger) *Gate {
	if limits == nil {
		limits = DefaultLimits
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Gate{store: store, limits: limits, now: time.Now, logger: logger}
}

// Check evaluates whether userID may start a debate. Guests (empty userID)
// always pass and get a nil profile. Returns a *LimitError when the monthly
// allowance is exhausted.
func (g *Gate) Check(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, nil
	}

	profile, err := g.store.Profile(ctx, userID)
	if err != nil {
		g.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("usage lookup failed, allowing debate")
		return nil, nil
	}

	if limit, ok := g.limits[profile.Tier]; ok {
		profile.DebatesLimit = limit
	}

	if !g.now().Before(profile.WindowResetAt) {
		profile.DebatesUsed = 0
		profile.WindowResetAt = firstOfNextMonth(g.now())
		if err := g.store.ResetWindow(ctx, userID, profile.WindowResetAt); err != nil {
			g.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("usage window reset failed")
		}
	}

	if profile.DebatesUsed >= profile.DebatesLimit {
		return profile, &LimitError{Used: profile.DebatesUsed, Limit: profile.DebatesLimit}
	}
	return profile, nil
}

// Record increments userID's counter after a successful debate. Best effort:
// failures are logged, never surfaced. Guests are not counted.
func (g *Gate) Record(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := g.store.Increment(ctx, userID); err != nil {
		g.logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("usage increment failed")
	}
}

// firstOfNextMonth returns midnight UTC on the first day of the month after t.
func firstOfNextMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
