package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func testPolicy() models.RateLimitPolicy {
	return models.RateLimitPolicy{
		Enabled:          true,
		PerUserPerMinute: 5,
		PerUserPerHour:   50,
		SystemEnabled:    true,
		SystemPerMinute:  60,
		SystemPerHour:    1000,
	}
}

func TestGuardAdmitUserMinuteLimit(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), nil, testPolicy(), getTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "call %d should be admitted", i+1)
	}

	decision, err := guard.Admit(ctx, "user-1", "extraction")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.DenialUserMinute, decision.Reason)
	assert.NotEmpty(t, decision.Message)
	assert.Equal(t, int64(0), decision.Snapshot.UserRemainingMinute)
}

func TestGuardDenialDoesNotConsume(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), nil, testPolicy(), getTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
	}

	// Repeated denials must not push the hour count past the five admissions
	for i := 0; i < 10; i++ {
		decision, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	}

	snapshot, err := guard.Peek(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(45), snapshot.UserRemainingHour)
}

func TestGuardUserScopesAreIndependent(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), nil, testPolicy(), getTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
	}

	decision, err := guard.Admit(ctx, "user-2", "extraction")
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "a different user has an untouched budget")
}

func TestGuardUserChecksBeforeSystemChecks(t *testing.T) {
	policy := testPolicy()
	policy.SystemPerMinute = 5
	guard := NewGuard(NewMemoryStore(), nil, policy, getTestLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
	}

	// Both the user-minute and system-minute budgets are exhausted; the user
	// scope reports first.
	decision, err := guard.Admit(ctx, "user-1", "extraction")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.DenialUserMinute, decision.Reason)

	decision, err = guard.Admit(ctx, "user-2", "extraction")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.DenialSystemMinute, decision.Reason)
}

func TestGuardSystemScopeSpansUsers(t *testing.T) {
	policy := testPolicy()
	policy.PerUserPerMinute = 100
	policy.PerUserPerHour = 100
	policy.SystemPerMinute = 6
	guard := NewGuard(NewMemoryStore(), nil, policy, getTestLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
		_, err = guard.Admit(ctx, "user-2", "extraction")
		require.NoError(t, err)
	}

	decision, err := guard.Admit(ctx, "user-3", "extraction")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.DenialSystemMinute, decision.Reason)
}

func TestGuardDisabledPolicyStillRecords(t *testing.T) {
	policy := testPolicy()
	policy.Enabled = false
	store := NewMemoryStore()
	guard := NewGuard(store, nil, policy, getTestLogger())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		decision, err := guard.Admit(ctx, "user-1", "extraction")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	counts, err := store.Counts(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), counts.UserMinute)
}

func TestGuardPeekDoesNotConsume(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), nil, testPolicy(), getTestLogger())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		snapshot, err := guard.Peek(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), snapshot.UserRemainingMinute)
		assert.Equal(t, int64(50), snapshot.UserRemainingHour)
		assert.Equal(t, int64(60), snapshot.SystemRemainingMinute)
		assert.Equal(t, int64(1000), snapshot.SystemRemainingHour)
	}
}

func TestGuardConcurrentAdmitNeverOverAdmits(t *testing.T) {
	policy := testPolicy()
	policy.PerUserPerMinute = 10
	guard := NewGuard(NewMemoryStore(), nil, policy, getTestLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := guard.Admit(ctx, "user-1", "extraction")
			if err != nil {
				return
			}
			if decision.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestMemoryStoreMinuteWindowSlides(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	policy := testPolicy()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Admit(ctx, "user-1", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := store.Admit(ctx, "user-1", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, models.DenialUserMinute, result.Reason)

	// One minute later the minute window has slid past the burst but the hour
	// window still counts it
	current = current.Add(MinuteWindow + time.Second)
	result, err = store.Admit(ctx, "user-1", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(1), result.Counts.UserMinute)
	assert.Equal(t, int64(6), result.Counts.UserHour)
}

func TestMemoryStoreHourWindowSlides(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	policy := testPolicy()
	policy.PerUserPerMinute = 100
	policy.PerUserPerHour = 10
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := store.Admit(ctx, "user-1", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := store.Admit(ctx, "user-1", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, models.DenialUserHour, result.Reason)

	current = current.Add(HourWindow + time.Second)
	result, err = store.Admit(ctx, "user-1", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(1), result.Counts.UserHour)
}

func TestSnapshotRemainingFlooredAtZero(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), nil, testPolicy(), getTestLogger())

	snapshot := guard.snapshot(Counts{UserMinute: 99, UserHour: 99, SystemMinute: 99, SystemHour: 9999})
	assert.Equal(t, int64(0), snapshot.UserRemainingMinute)
	assert.Equal(t, int64(0), snapshot.UserRemainingHour)
	assert.Equal(t, int64(0), snapshot.SystemRemainingMinute)
	assert.Equal(t, int64(0), snapshot.SystemRemainingHour)
	assert.True(t, snapshot.ResetHour.After(snapshot.ResetMinute))
}
