package utils

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("tanishq_mumbai_22k_2025-07-21") {
		t.Error("first Add should return true")
	}
	if s.Add("tanishq_mumbai_22k_2025-07-21") {
		t.Error("second Add of same key should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
	if !s.Contains("tanishq_mumbai_22k_2025-07-21") {
		t.Error("Contains should report the added key")
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestKeySetSorted(t *testing.T) {
	s := NewKeySet()
	for _, k := range []string{"Pune", "Delhi", "Mumbai", "Delhi"} {
		s.Add(k)
	}
	got := strings.Join(s.Sorted(), ",")
	if got != "Delhi,Mumbai,Pune" {
		t.Errorf("Sorted: got %q", got)
	}
}

func TestThrottleFirstCallImmediate(t *testing.T) {
	th := NewThrottle(time.Second)
	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait took %v, expected no pause", elapsed)
	}
}

func TestThrottleFixedPause(t *testing.T) {
	interval := 100 * time.Millisecond
	th := NewThrottle(interval)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		timestamps = append(timestamps, time.Now())
	}

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < interval {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestThrottleCancelled(t *testing.T) {
	th := NewThrottle(time.Hour)
	_ = th.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); err == nil {
		t.Error("expected context error from cancelled Wait")
	}
}

func TestThrottleReset(t *testing.T) {
	th := NewThrottle(time.Hour)
	_ = th.Wait(context.Background())
	th.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := th.Wait(ctx); err != nil {
		t.Errorf("Wait after Reset should not pause: %v", err)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions(&buf, slog.LevelWarn, true)

	l.Info("[test] hidden %d", 1)
	l.Warn("[test] shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[test] shown 2") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
