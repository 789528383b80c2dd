package models

import "time"

// RateLimitPolicy is the read-only admission budget for AI extraction calls.
// Loaded from configuration; never mutated by the quota guard.
type RateLimitPolicy struct {
	Enabled          bool
	PerUserPerMinute int64
	PerUserPerHour   int64
	SystemEnabled    bool
	SystemPerMinute  int64
	SystemPerHour    int64
}

// DenialReason identifies which budget check failed. User checks take
// priority over system checks.
type DenialReason string

const (
	DenialUserMinute   DenialReason = "user_minute"
	DenialUserHour     DenialReason = "user_hour"
	DenialSystemMinute DenialReason = "system_minute"
	DenialSystemHour   DenialReason = "system_hour"
)

// QuotaSnapshot reports remaining budget for both scopes and both windows
type QuotaSnapshot struct {
	UserRemainingMinute   int64     `json:"user_remaining_minute"`
	UserRemainingHour     int64     `json:"user_remaining_hour"`
	SystemRemainingMinute int64     `json:"system_remaining_minute"`
	SystemRemainingHour   int64     `json:"system_remaining_hour"`
	ResetMinute           time.Time `json:"reset_minute"`
	ResetHour             time.Time `json:"reset_hour"`
}

// QuotaDecision is the outcome of a single admission check
type QuotaDecision struct {
	Allowed  bool          `json:"allowed"`
	Reason   DenialReason  `json:"reason,omitempty"`
	Message  string        `json:"message,omitempty"`
	Snapshot QuotaSnapshot `json:"snapshot"`
}

// UsageRecord is one admitted AI call. Append-only; timestamps are assigned
// by the recording authority, never client-supplied.
type UsageRecord struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
