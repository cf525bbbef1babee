package quota

import (
	"sync"
	"testing"
)

func TestGuardSequentialAcquire(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		max      int
		want     int
	}{
		{name: "fewer attempts than max", attempts: 2, max: 5, want: 2},
		{name: "equal", attempts: 3, max: 3, want: 3},
		{name: "more attempts than max", attempts: 4, max: 3, want: 3},
		{name: "zero max", attempts: 4, max: 0, want: 0},
	}

	for _, mode := range []Mode{BestEffort, Strict} {
		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				g := NewGuard(tt.max, mode)
				got := 0
				for i := 0; i < tt.attempts; i++ {
					if g.Acquire() {
						got++
					}
					if g.Emitted() > tt.max {
						t.Fatalf("emitted %d exceeds max %d", g.Emitted(), tt.max)
					}
				}
				if got != tt.want {
					t.Fatalf("acquired %d, want %d", got, tt.want)
				}
				if g.Emitted() != tt.want {
					t.Fatalf("emitted = %d, want %d", g.Emitted(), tt.want)
				}
			})
		}
	}
}

func TestGuardCanEmitAndRecord(t *testing.T) {
	g := NewGuard(1, BestEffort)
	if !g.CanEmit() {
		t.Fatalf("fresh guard should allow emission")
	}
	g.RecordEmitted()
	if g.CanEmit() {
		t.Fatalf("guard should be exhausted after one emission")
	}
	g.RecordEmitted()
	if g.Emitted() != 2 {
		t.Fatalf("RecordEmitted must always count, got %d", g.Emitted())
	}
}

func TestGuardStrictConcurrentNeverOvershoots(t *testing.T) {
	const max = 50
	g := NewGuard(max, Strict)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Acquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != max || g.Emitted() != max {
		t.Fatalf("acquired=%d emitted=%d, want %d", acquired, g.Emitted(), max)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != BestEffort {
		t.Fatalf("empty mode = %q, %v", m, err)
	}
	if m, err := ParseMode("strict"); err != nil || m != Strict {
		t.Fatalf("strict mode = %q, %v", m, err)
	}
	if _, err := ParseMode("exact"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
