// Package ratelimit tracks the API's daily request budget and gates
// requests before the vendor starts rejecting them. The API reports the
// remaining daily quota in the x-ratelimit-remaining-day header and
// answers both per-second bursts and an exhausted daily budget with 429.
package ratelimit

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

// HeaderRemainingDay carries the requests left in the daily quota.
const HeaderRemainingDay = "x-ratelimit-remaining-day"

// Redis keys for shared rate limit state.
const (
	RedisKeyRemainingDay = "spgci:rate_limit:remaining_day"
	RedisKeyLastUpdate   = "spgci:rate_limit:last_update"
)

// WarningThreshold triggers warn logging when the remaining daily quota
// falls below it.
const WarningThreshold = 100

// Unknown marks a state with no quota information yet.
const Unknown = -1

var (
	// ErrPerSecondLimit is returned for a 429 with daily quota remaining.
	// Callers may retry after a short wait.
	ErrPerSecondLimit = errors.New("per second rate limit reached")

	// ErrDailyLimit is returned for a 429 with no daily quota remaining.
	// There is no point retrying until the quota resets.
	ErrDailyLimit = errors.New("daily rate limit reached")
)

// ClassifyTooManyRequests decides which limit a 429 response hit.
func ClassifyTooManyRequests(h http.Header) error {
	remaining, err := strconv.Atoi(h.Get(HeaderRemainingDay))
	if err == nil && remaining > 0 {
		return ErrPerSecondLimit
	}
	return ErrDailyLimit
}

// State is the shared view of the daily request budget.
type State struct {
	// RemainingDay is the last reported daily quota, or Unknown.
	RemainingDay int `json:"remaining_day"`

	// LastUpdate is when the quota was last observed.
	LastUpdate time.Time `json:"last_update"`
}

// DefaultState returns a state with no quota information.
func DefaultState() *State {
	return &State{RemainingDay: Unknown}
}

// Known reports whether any quota information has been observed.
func (s *State) Known() bool {
	return s.RemainingDay != Unknown
}

// IsStale returns true if the state is older than maxAge. A stale state
// should not block requests; the quota may have reset since.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Exhausted returns true when the daily budget is known to be used up.
func (s *State) Exhausted() bool {
	return s.Known() && s.RemainingDay <= 0
}

// NeedsWarning returns true when the budget is running low but not empty.
func (s *State) NeedsWarning() bool {
	return s.Known() && s.RemainingDay > 0 && s.RemainingDay < WarningThreshold
}
