package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Draft is a quote waiting for the gateway to confirm payment. The slot is
// already reserved for BookingID while the draft lives.
type Draft struct {
	Quote          Quote     `json:"quote"`
	Authority      string    `json:"authority"`
	BookingID      string    `json:"booking_id"`
	ReservationKey string    `json:"reservation_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Hold is the slot reservation owned by an open checkout.
type Hold struct {
	Authority      string `json:"authority"`
	BookingID      string `json:"booking_id"`
	ReservationKey string `json:"reservation_key"`
}

// DraftStore holds drafts by gateway authority until they expire.
type DraftStore interface {
	Save(ctx context.Context, d Draft, ttl time.Duration) error
	// Peek returns the draft without consuming it and keeps it alive for at
	// least grace.
	Peek(ctx context.Context, authority string, grace time.Duration) (*Draft, error)
	// Take returns the draft and removes it with its hold, so a callback
	// is honoured once.
	Take(ctx context.Context, authority string) (*Draft, error)
	// Expired lists holds whose draft was due by now and is gone.
	Expired(ctx context.Context, now time.Time) ([]Hold, error)
	// Forget drops the hold bookkeeping for authority.
	Forget(ctx context.Context, authority string) error
}

// keyMissing is what TTL reports for a key that does not exist.
const keyMissing time.Duration = -2

type redisDraftStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisDraftStore(rdb redis.UniversalClient, prefix string) DraftStore {
	return &redisDraftStore{rdb: rdb, prefix: prefix}
}

func (s *redisDraftStore) key(authority string) string {
	return s.prefix + ":checkout:" + authority
}

func (s *redisDraftStore) holdsKey() string { return s.prefix + ":checkout:holds" }
func (s *redisDraftStore) dueKey() string   { return s.prefix + ":checkout:due" }

func (s *redisDraftStore) Save(ctx context.Context, d Draft, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode checkout draft: %w", err)
	}
	hold, err := json.Marshal(Hold{Authority: d.Authority, BookingID: d.BookingID, ReservationKey: d.ReservationKey})
	if err != nil {
		return fmt.Errorf("encode checkout hold: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(d.Authority), data, ttl)
		if d.ReservationKey != "" {
			p.HSet(ctx, s.holdsKey(), d.Authority, hold)
			p.ZAdd(ctx, s.dueKey(), redis.Z{Score: float64(d.CreatedAt.Add(ttl).Unix()), Member: d.Authority})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save checkout draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Peek(ctx context.Context, authority string, grace time.Duration) (*Draft, error) {
	key := s.key(authority)
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("peek checkout draft: %w", err)
	}
	if ttl == keyMissing {
		return nil, ErrCheckoutNotFound
	}

	var data []byte
	if ttl >= 0 && ttl < grace {
		data, err = s.rdb.GetEx(ctx, key, grace).Bytes()
	} else {
		data, err = s.rdb.Get(ctx, key).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("peek checkout draft: %w", err)
	}
	return decodeDraft(data)
}

func (s *redisDraftStore) Take(ctx context.Context, authority string) (*Draft, error) {
	var get *redis.StringCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.GetDel(ctx, s.key(authority))
		p.HDel(ctx, s.holdsKey(), authority)
		p.ZRem(ctx, s.dueKey(), authority)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("take checkout draft: %w", err)
	}
	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take checkout draft: %w", err)
	}
	return decodeDraft(data)
}

func (s *redisDraftStore) Expired(ctx context.Context, now time.Time) ([]Hold, error) {
	due, err := s.rdb.ZRangeByScore(ctx, s.dueKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due checkouts: %w", err)
	}

	var out []Hold
	for _, authority := range due {
		// a callback in progress may have extended the draft
		n, err := s.rdb.Exists(ctx, s.key(authority)).Result()
		if err != nil {
			return nil, fmt.Errorf("list due checkouts: %w", err)
		}
		if n > 0 {
			continue
		}

		raw, err := s.rdb.HGet(ctx, s.holdsKey(), authority).Bytes()
		if errors.Is(err, redis.Nil) {
			_ = s.rdb.ZRem(ctx, s.dueKey(), authority).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list due checkouts: %w", err)
		}
		var h Hold
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decode checkout hold %s: %w", authority, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *redisDraftStore) Forget(ctx context.Context, authority string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, s.holdsKey(), authority)
		p.ZRem(ctx, s.dueKey(), authority)
		return nil
	})
	if err != nil {
		return fmt.Errorf("forget checkout hold: %w", err)
	}
	return nil
}

func decodeDraft(data []byte) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode checkout draft: %w", err)
	}
	return &d, nil
}
