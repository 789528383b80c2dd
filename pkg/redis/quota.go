package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/quota"
)

// QuotaStore implements quota.Store on Redis sorted sets. One sorted set per
// user plus one for the system scope, pruned to the hour window; the minute
// count is a range count over the same set. The whole check-then-record
// sequence runs inside a single Lua script, so concurrent bursts cannot
// admit past the configured budget.
type QuotaStore struct {
	client    *Client
	keyPrefix string
}

// NewQuotaStore creates a new Redis-backed quota store
func NewQuotaStore(client *Client, keyPrefix string) *QuotaStore {
	if keyPrefix == "" {
		keyPrefix = "quota:"
	}
	return &QuotaStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// admitScript checks user-minute, user-hour and (when enabled) system-minute,
// system-hour in priority order, then records one usage on every passing
// check. Returned counts reflect the state after the operation.
var admitScript = goredis.NewScript(`
	local user_key = KEYS[1]
	local system_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local minute_ms = tonumber(ARGV[2])
	local hour_ms = tonumber(ARGV[3])

	redis.call("zremrangebyscore", user_key, "-inf", now - hour_ms)
	redis.call("zremrangebyscore", system_key, "-inf", now - hour_ms)

	local u_min = redis.call("zcount", user_key, now - minute_ms + 1, "+inf")
	local u_hour = redis.call("zcard", user_key)
	local s_min = redis.call("zcount", system_key, now - minute_ms + 1, "+inf")
	local s_hour = redis.call("zcard", system_key)

	local reason = 0
	if u_min >= tonumber(ARGV[4]) then
		reason = 1
	elseif u_hour >= tonumber(ARGV[5]) then
		reason = 2
	elseif tonumber(ARGV[6]) == 1 then
		if s_min >= tonumber(ARGV[7]) then
			reason = 3
		elseif s_hour >= tonumber(ARGV[8]) then
			reason = 4
		end
	end

	if reason > 0 then
		return {0, reason, u_min, u_hour, s_min, s_hour}
	end

	redis.call("zadd", user_key, now, ARGV[9])
	redis.call("zadd", system_key, now, ARGV[9])
	redis.call("pexpire", user_key, hour_ms)
	redis.call("pexpire", system_key, hour_ms)

	return {1, 0, u_min + 1, u_hour + 1, s_min + 1, s_hour + 1}
`)

var reasonCodes = map[int64]models.DenialReason{
	1: models.DenialUserMinute,
	2: models.DenialUserHour,
	3: models.DenialSystemMinute,
	4: models.DenialSystemHour,
}

// Admit atomically checks all applicable limits and records one usage when
// every check passes
func (s *QuotaStore) Admit(ctx context.Context, userID string, policy models.RateLimitPolicy) (*quota.AdmitResult, error) {
	now := time.Now()
	systemEnabled := 0
	if policy.SystemEnabled {
		systemEnabled = 1
	}

	result, err := admitScript.Run(ctx, s.client.rdb,
		[]string{s.userKey(userID), s.systemKey()},
		now.UnixMilli(),
		quota.MinuteWindow.Milliseconds(),
		quota.HourWindow.Milliseconds(),
		policy.PerUserPerMinute,
		policy.PerUserPerHour,
		systemEnabled,
		policy.SystemPerMinute,
		policy.SystemPerHour,
		fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()),
	).Slice()
	if err != nil {
		return nil, err
	}

	values, err := toInt64Slice(result)
	if err != nil {
		return nil, err
	}

	admit := &quota.AdmitResult{
		Allowed: values[0] == 1,
		Counts: quota.Counts{
			UserMinute:   values[2],
			UserHour:     values[3],
			SystemMinute: values[4],
			SystemHour:   values[5],
		},
	}
	if !admit.Allowed {
		admit.Reason = reasonCodes[values[1]]
	}

	return admit, nil
}

// Record appends one usage without checking limits
func (s *QuotaStore) Record(ctx context.Context, userID string) (quota.Counts, error) {
	now := time.Now()
	member := goredis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()),
	}

	pipe := s.client.rdb.Pipeline()
	pipe.ZAdd(ctx, s.userKey(userID), member)
	pipe.ZAdd(ctx, s.systemKey(), member)
	pipe.PExpire(ctx, s.userKey(userID), quota.HourWindow)
	pipe.PExpire(ctx, s.systemKey(), quota.HourWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return quota.Counts{}, err
	}

	return s.Counts(ctx, userID)
}

// Counts reads current usage without recording anything
func (s *QuotaStore) Counts(ctx context.Context, userID string) (quota.Counts, error) {
	now := time.Now()
	hourCutoff := strconv.FormatInt(now.Add(-quota.HourWindow).UnixMilli(), 10)
	minuteCutoff := fmt.Sprintf("(%d", now.Add(-quota.MinuteWindow).UnixMilli())

	pipe := s.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, s.userKey(userID), "-inf", hourCutoff)
	pipe.ZRemRangeByScore(ctx, s.systemKey(), "-inf", hourCutoff)
	userMinute := pipe.ZCount(ctx, s.userKey(userID), minuteCutoff, "+inf")
	userHour := pipe.ZCard(ctx, s.userKey(userID))
	systemMinute := pipe.ZCount(ctx, s.systemKey(), minuteCutoff, "+inf")
	systemHour := pipe.ZCard(ctx, s.systemKey())

	if _, err := pipe.Exec(ctx); err != nil {
		return quota.Counts{}, err
	}

	return quota.Counts{
		UserMinute:   userMinute.Val(),
		UserHour:     userHour.Val(),
		SystemMinute: systemMinute.Val(),
		SystemHour:   systemHour.Val(),
	}, nil
}

func (s *QuotaStore) userKey(userID string) string {
	return s.keyPrefix + "user:" + userID
}

func (s *QuotaStore) systemKey() string {
	return s.keyPrefix + "system"
}

func toInt64Slice(values []interface{}) ([]int64, error) {
	result := make([]int64, len(values))
	for i, v := range values {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		result[i] = n
	}
	if len(result) < 6 {
		return nil, fmt.Errorf("unexpected script result length %d", len(result))
	}
	return result, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil {
				return 0, err
			}
			return int64(f), nil
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
