package hold

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

// Store keeps short-lived slot holds in Redis. A hold marks a slot as
// tentatively taken while a visitor completes booking; it feeds the
// engine as a busy interval until it expires.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

type record struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ExpiresAt time.Time `json:"expires_at"`
}

const keyPrefix = "slothold:"

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Place records a hold on [start, end) for the user. Holds are stored
// in a per-user sorted set scored by slot start so window reads are a
// single range query.
func (s *Store) Place(ctx context.Context, username string, start, end time.Time) error {
	if s == nil || s.rdb == nil {
		return errors.New("hold store not configured")
	}
	if !end.After(start) {
		return errors.New("hold end must be after start")
	}
	payload, err := json.Marshal(record{
		Start:     start.UTC(),
		End:       end.UTC(),
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	})
	if err != nil {
		return err
	}
	key := keyPrefix + username
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(start.Unix()), Member: string(payload)})
	// The set expires with its longest-lived member so abandoned keys
	// do not accumulate.
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// BusyIntervals returns the unexpired holds overlapping [from, to) for
// the given users. Expired members are pruned opportunistically.
func (s *Store) BusyIntervals(ctx context.Context, usernames []string, from, to time.Time) ([]availability.TimeRange, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	now := time.Now().UTC()

	var busy []availability.TimeRange
	for _, username := range usernames {
		key := keyPrefix + username
		// Score is the slot start; anything starting before the window
		// end can overlap it.
		members, err := s.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
			Min: "-inf",
			Max: strconv.FormatInt(to.Unix(), 10),
		}).Result()
		if err != nil {
			return nil, err
		}

		var expired []interface{}
		for _, m := range members {
			var rec record
			if err := json.Unmarshal([]byte(m), &rec); err != nil {
				expired = append(expired, m)
				continue
			}
			if rec.ExpiresAt.Before(now) {
				expired = append(expired, m)
				continue
			}
			if rec.Start.Before(to) && rec.End.After(from) {
				busy = append(busy, availability.TimeRange{Start: rec.Start, End: rec.End})
			}
		}
		if len(expired) > 0 {
			if err := s.rdb.ZRem(ctx, key, expired...).Err(); err != nil {
				return nil, err
			}
		}
	}
	return busy, nil
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
