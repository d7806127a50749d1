package hostlib

import (
	"context"
	"time"
)

// TimerHost exposes a monotonic clock and sleeping.
type TimerHost struct {
	startTime time.Time
	maxSleep  time.Duration
}

// NewTimerHost returns a timer host. A positive maxSleep caps every
// sleep.
func NewTimerHost(maxSleep time.Duration) *TimerHost {
	return &TimerHost{startTime: time.Now(), maxSleep: maxSleep}
}

func (h *TimerHost) Namespace() string {
	return "timers"
}

func (h *TimerHost) AsyncFunctions() []string {
	return []string{"sleep"}
}

// Now returns milliseconds since the host was created.
func (h *TimerHost) Now() float64 {
	return float64(time.Since(h.startTime).Nanoseconds()) / 1e6
}

// Sleep waits ms milliseconds and resolves to the time actually slept.
func (h *TimerHost) Sleep(ctx context.Context, ms float64) (float64, error) {
	d := time.Duration(ms * float64(time.Millisecond))
	if d < 0 {
		d = 0
	}
	if h.maxSleep > 0 && d > h.maxSleep {
		d = h.maxSleep
	}

	start := time.Now()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
	}
	return float64(time.Since(start).Nanoseconds()) / 1e6, nil
}
