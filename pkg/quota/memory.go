package quota

import (
	"context"
	"sync"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// MemoryStore is an in-process Store for single-node deployments and tests.
// A single mutex guards the check-then-record sequence, which keeps the
// admission decision atomic; the system scope spans all users so per-key
// sharding would not help here.
type MemoryStore struct {
	mu     sync.Mutex
	user   map[string][]time.Time
	system []time.Time
	now    func() time.Time
}

// NewMemoryStore creates a new in-memory counting store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		user: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// Admit atomically checks all applicable limits and records one usage when
// every check passes
func (m *MemoryStore) Admit(_ context.Context, userID string, policy models.RateLimitPolicy) (*AdmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(userID, now)
	counts := m.counts(userID, now)

	reason := deniedBy(counts, policy)
	if reason != "" {
		return &AdmitResult{Allowed: false, Reason: reason, Counts: counts}, nil
	}

	m.record(userID, now)
	counts = m.counts(userID, now)
	return &AdmitResult{Allowed: true, Counts: counts}, nil
}

// Record appends one usage without checking limits
func (m *MemoryStore) Record(_ context.Context, userID string) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(userID, now)
	m.record(userID, now)
	return m.counts(userID, now), nil
}

// Counts reads current usage without recording anything
func (m *MemoryStore) Counts(_ context.Context, userID string) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(userID, now)
	return m.counts(userID, now), nil
}

func deniedBy(counts Counts, policy models.RateLimitPolicy) models.DenialReason {
	if counts.UserMinute >= policy.PerUserPerMinute {
		return models.DenialUserMinute
	}
	if counts.UserHour >= policy.PerUserPerHour {
		return models.DenialUserHour
	}
	if policy.SystemEnabled {
		if counts.SystemMinute >= policy.SystemPerMinute {
			return models.DenialSystemMinute
		}
		if counts.SystemHour >= policy.SystemPerHour {
			return models.DenialSystemHour
		}
	}
	return ""
}

func (m *MemoryStore) record(userID string, now time.Time) {
	m.user[userID] = append(m.user[userID], now)
	m.system = append(m.system, now)
}

func (m *MemoryStore) counts(userID string, now time.Time) Counts {
	minuteCutoff := now.Add(-MinuteWindow)
	return Counts{
		UserMinute:   countSince(m.user[userID], minuteCutoff),
		UserHour:     int64(len(m.user[userID])),
		SystemMinute: countSince(m.system, minuteCutoff),
		SystemHour:   int64(len(m.system)),
	}
}

// prune drops usage older than the hour window; anything older cannot affect
// either window
func (m *MemoryStore) prune(userID string, now time.Time) {
	cutoff := now.Add(-HourWindow)
	m.user[userID] = pruneBefore(m.user[userID], cutoff)
	if len(m.user[userID]) == 0 {
		delete(m.user, userID)
	}
	m.system = pruneBefore(m.system, cutoff)
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[idx:]...)
}

func countSince(stamps []time.Time, cutoff time.Time) int64 {
	var n int64
	for _, ts := range stamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
