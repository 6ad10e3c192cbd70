package ratelimit

import (
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// frozenClock returns a clock for l that only moves when advance is called.
func frozenClock(l *Limiter) (advance func(time.Duration)) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

var toolBudgets = []struct {
	tool      string
	perSecond float64
	burst     int
}{
	{"washout_update", 2.0, 20},
	{"washout_simulate", 1.0, 10},
	{"washout_trials", 10.0 / 60.0, 3},
	{"washout_chart", 30.0 / 60.0, 5},
}

func TestNewToolLimiters_Budgets(t *testing.T) {
	limiters := NewToolLimiters()
	if len(limiters) != len(toolBudgets) {
		t.Errorf("got %d limiters, want %d", len(limiters), len(toolBudgets))
	}

	for _, tt := range toolBudgets {
		t.Run(tt.tool, func(t *testing.T) {
			l, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("no limiter for %s", tt.tool)
			}
			if l.rate != rate.Limit(tt.perSecond) || l.burst != tt.burst {
				t.Errorf("rate/burst = %v/%d, want %v/%d", l.rate, l.burst, tt.perSecond, tt.burst)
			}
		})
	}
}

func TestToolBudgets_BurstThenRefill(t *testing.T) {
	for _, tt := range toolBudgets {
		t.Run(tt.tool, func(t *testing.T) {
			l := NewToolLimiters()[tt.tool]
			advance := frozenClock(l)

			for i := 0; i < tt.burst; i++ {
				if !l.Allow(tt.tool) {
					t.Fatalf("call %d rejected within burst of %d", i+1, tt.burst)
				}
			}
			if l.Allow(tt.tool) {
				t.Fatal("call after burst allowed")
			}

			interval := time.Duration(float64(time.Second) / tt.perSecond)
			advance(interval / 2)
			if l.Allow(tt.tool) {
				t.Error("allowed after half a refill interval")
			}
			advance(interval/2 + time.Millisecond)
			if !l.Allow(tt.tool) {
				t.Errorf("rejected after a full refill interval of %v", interval)
			}
			if l.Allow(tt.tool) {
				t.Error("one interval refilled more than one token")
			}
		})
	}
}

// The wrapper must decide exactly like a bare x/time/rate bucket fed the
// same timestamps.
func TestAllow_MatchesTokenBucket(t *testing.T) {
	l := NewLimiter(4, 3)
	advance := frozenClock(l)
	start := l.nowFunc()
	ref := rate.NewLimiter(4, 3)

	steps := []time.Duration{0, 0, 0, 0, 100, 150, 10, 250, 0, 0, 1000, 0, 0, 0, 0, 60}
	for i, ms := range steps {
		advance(time.Duration(ms) * time.Millisecond)
		now := l.nowFunc()
		got := l.Allow("k")
		want := ref.AllowN(now, 1)
		if got != want {
			t.Errorf("step %d (t=%v): Allow = %v, token bucket = %v", i, now.Sub(start), got, want)
		}
	}
}

func TestAllow_KeysHaveSeparateBuckets(t *testing.T) {
	l := NewLimiter(0, 1)
	frozenClock(l)

	if !l.Allow("a") || l.Allow("a") {
		t.Fatal("key a should allow exactly one call")
	}
	if !l.Allow("b") {
		t.Error("key b shares a's bucket")
	}
}

func TestAllow_ConcurrentCallersShareBurst(t *testing.T) {
	l := NewLimiter(0, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed %d concurrent calls, want exactly the burst of 50", allowed)
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters()
	frozenClock(limiters["washout_trials"])

	if err := CheckLimit(limiters, "not_a_tool"); err != nil {
		t.Errorf("unlimited tool returned %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := CheckLimit(limiters, "washout_trials"); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	err := CheckLimit(limiters, "washout_trials")
	if err == nil {
		t.Fatal("expected rate limit error after the trials burst")
	}
	if !strings.HasPrefix(err.Error(), "rate limit exceeded for washout_trials") {
		t.Errorf("error = %q", err)
	}

	// Other tools keep their own budget.
	if err := CheckLimit(limiters, "washout_update"); err != nil {
		t.Errorf("washout_update limited by trials usage: %v", err)
	}
}
