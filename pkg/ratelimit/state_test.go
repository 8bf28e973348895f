package ratelimit

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestClassifyTooManyRequests(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		want      error
	}{
		{"quota left means per-second limit", "500", ErrPerSecondLimit},
		{"zero quota means daily limit", "0", ErrDailyLimit},
		{"missing header means daily limit", "", ErrDailyLimit},
		{"garbage header means daily limit", "lots", ErrDailyLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.remaining != "" {
				h.Set(HeaderRemainingDay, tt.remaining)
			}
			if got := ClassifyTooManyRequests(h); !errors.Is(got, tt.want) {
				t.Errorf("ClassifyTooManyRequests() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_Known(t *testing.T) {
	if DefaultState().Known() {
		t.Error("default state should be unknown")
	}
	s := &State{RemainingDay: 0}
	if !s.Known() {
		t.Error("zero remaining is a known state")
	}
}

func TestState_Exhausted(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		want      bool
	}{
		{"unknown", Unknown, false},
		{"exhausted", 0, true},
		{"healthy", 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{RemainingDay: tt.remaining, LastUpdate: time.Now()}
			if got := s.Exhausted(); got != tt.want {
				t.Errorf("Exhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_NeedsWarning(t *testing.T) {
	s := &State{RemainingDay: WarningThreshold - 1, LastUpdate: time.Now()}
	if !s.NeedsWarning() {
		t.Error("state below threshold should warn")
	}

	s.RemainingDay = WarningThreshold
	if s.NeedsWarning() {
		t.Error("state at threshold should not warn")
	}

	s.RemainingDay = 0
	if s.NeedsWarning() {
		t.Error("exhausted state blocks, it does not warn")
	}
}

func TestState_IsStale(t *testing.T) {
	s := &State{RemainingDay: 10, LastUpdate: time.Now().Add(-2 * time.Hour)}
	if !s.IsStale(time.Hour) {
		t.Error("two hour old state should be stale")
	}

	s.LastUpdate = time.Now()
	if s.IsStale(time.Hour) {
		t.Error("fresh state should not be stale")
	}
}
