package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned when a key has spent its budget for the current window.
var ErrLimited = errors.New("ratelimit: too many requests")

// admitScript increments the counter and arms the window TTL in one step, so
// a crash between the two commands can never leave an immortal counter.
//
//nolint:gochecknoglobals // script is loaded once and reused
var admitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter admits or rejects an action for a key.
//
// Callers should treat any non-nil error as a denial: a limiter that cannot
// reach its counter store must not wave requests through.
type Limiter interface {
	Admit(ctx context.Context, key string) error
}

// FixedWindow counts hits per key in Redis over a fixed window.
//
// The counter lives in Redis so every replica shares one budget per key. The
// first hit creates the counter and arms the window TTL; subsequent hits only
// increment, so the window never slides.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow builds a limiter allowing limit hits per window for each key.
func NewFixedWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *FixedWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &FixedWindow{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Admit records a hit for key and reports whether it is within budget.
//
// It returns nil when admitted, ErrLimited when the budget is spent, and a
// wrapped Redis error when the counter store is unreachable.
func (l *FixedWindow) Admit(ctx context.Context, key string) error {
	fk := l.prefix + key

	n, err := admitScript.Run(ctx, l.client, []string{fk}, l.window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("ratelimit: count hit for %q: %w", fk, err)
	}

	if n > l.limit {
		return ErrLimited
	}

	return nil
}
