package identity

import (
	"testing"
	"time"
)

// stubConfig returns configured values for the limiter keys and zero for
// everything else.
type stubConfig struct {
	ints    map[string]int64
	seconds map[string]time.Duration
}

func (c stubConfig) Close() error                      { return nil }
func (c stubConfig) GetSecond(k string) time.Duration  { return c.seconds[k] }
func (c stubConfig) GetMinute(string) time.Duration    { return 0 }
func (c stubConfig) GetHour(string) time.Duration      { return 0 }
func (c stubConfig) GetDay(string) time.Duration       { return 0 }
func (c stubConfig) GetInt(string) int                 { return 0 }
func (c stubConfig) GetInt32(string) int32             { return 0 }
func (c stubConfig) GetInt64(k string) int64           { return c.ints[k] }
func (c stubConfig) GetUint(string) uint               { return 0 }
func (c stubConfig) GetUint16(string) uint16           { return 0 }
func (c stubConfig) GetUint32(string) uint32           { return 0 }
func (c stubConfig) GetUint64(string) uint64           { return 0 }
func (c stubConfig) GetFloat32(string) float32         { return 0 }
func (c stubConfig) GetFloat64(string) float64         { return 0 }
func (c stubConfig) GetBool(string) bool               { return false }
func (c stubConfig) GetString(string) string           { return "" }
func (c stubConfig) GetBinary(string) []byte           { return nil }
func (c stubConfig) GetArray(string) []string          { return nil }
func (c stubConfig) GetMap(string) map[string]string   { return nil }

func TestLimiterSettingsDefaults(t *testing.T) {
	limit, window := limiterSettings(stubConfig{})

	if limit != 10 {
		t.Fatalf("default limit: got %d, want 10", limit)
	}
	if window != time.Minute {
		t.Fatalf("default window: got %v, want %v", window, time.Minute)
	}
}

func TestLimiterSettingsConfigured(t *testing.T) {
	limit, window := limiterSettings(stubConfig{
		ints:    map[string]int64{"modules.identity.rate_limit.max_attempts": 3},
		seconds: map[string]time.Duration{"modules.identity.rate_limit.window_seconds": 30 * time.Second},
	})

	if limit != 3 {
		t.Fatalf("limit: got %d, want 3", limit)
	}
	if window != 30*time.Second {
		t.Fatalf("window: got %v, want %v", window, 30*time.Second)
	}
}
