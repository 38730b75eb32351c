package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps each document in a hash whose fields hold the JSON
// encoding of the document's top-level fields. Set membership indexes
// collections and groups.
//
//	{prefix}:doc:{path}        hash
//	{prefix}:col:{collection}  set of document ids
//	{prefix}:grp:{group}       set of document paths
//	{prefix}:rsv:{path}        reservation owner
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb goredis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "docstore"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) docKey(path string) string { return s.prefix + ":doc:" + path }
func (s *RedisStore) colKey(col string) string   { return s.prefix + ":col:" + col }
func (s *RedisStore) grpKey(group string) string { return s.prefix + ":grp:" + group }
func (s *RedisStore) rsvKey(path string) string  { return s.prefix + ":rsv:" + path }

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *RedisStore) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, err := parseDocPath(path); err != nil {
		return Snapshot{}, err
	}
	fields, err := s.rdb.HGetAll(ctx, s.docKey(path)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("docstore get %s: %w", path, err)
	}
	if len(fields) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return assemble(path, fields)
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	ids, err := s.rdb.SMembers(ctx, s.colKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore list %s: %w", collection, err)
	}
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = collection + "/" + id
	}
	return s.fetch(ctx, paths)
}

func (s *RedisStore) ListGroup(ctx context.Context, group string) ([]Snapshot, error) {
	paths, err := s.rdb.SMembers(ctx, s.grpKey(group)).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore list group %s: %w", group, err)
	}
	return s.fetch(ctx, paths)
}

func (s *RedisStore) Where(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore where %s.%s: %w", collection, field, err)
	}
	all, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(all))
	for _, snap := range all {
		if fieldEquals(snap.Data, field, want) {
			out = append(out, snap)
		}
	}
	return out, nil
}

// fetch loads the given documents in one round trip, skipping ones that no
// longer exist.
func (s *RedisStore) fetch(ctx context.Context, paths []string) ([]Snapshot, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	sort.Strings(paths)

	cmds := make([]*goredis.MapStringStringCmd, len(paths))
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, path := range paths {
			cmds[i] = p.HGetAll(ctx, s.docKey(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docstore fetch: %w", err)
	}

	out := make([]Snapshot, 0, len(paths))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		snap, err := assemble(paths[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func assemble(path string, fields map[string]string) (Snapshot, error) {
	obj := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		obj[k] = json.RawMessage(v)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return Snapshot{}, fmt.Errorf("docstore %s: corrupt field: %w", path, err)
	}
	return Snapshot{Path: path, Data: data}, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (s *RedisStore) Set(ctx context.Context, path string, doc any) error {
	return s.write(ctx, path, doc, true)
}

func (s *RedisStore) Merge(ctx context.Context, path string, doc any) error {
	return s.write(ctx, path, doc, false)
}

func (s *RedisStore) write(ctx context.Context, path string, doc any, replace bool) error {
	dp, err := parseDocPath(path)
	if err != nil {
		return err
	}
	fields, err := encodeFields(doc)
	if err != nil {
		return err
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = string(v)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		key := s.docKey(path)
		if replace {
			p.Del(ctx, key)
		}
		if len(values) > 0 {
			p.HSet(ctx, key, values)
		}
		s.index(ctx, p, dp)
		return nil
	})
	if err != nil {
		return fmt.Errorf("docstore write %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) index(ctx context.Context, p goredis.Pipeliner, dp docPath) {
	p.SAdd(ctx, s.colKey(dp.collection), dp.id)
	p.SAdd(ctx, s.grpKey(dp.group), dp.full)
}

func (s *RedisStore) Increment(ctx context.Context, path, field string, delta int64) (int64, error) {
	dp, err := parseDocPath(path)
	if err != nil {
		return 0, err
	}

	var incr *goredis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.HIncrBy(ctx, s.docKey(path), field, delta)
		s.index(ctx, p, dp)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("docstore increment %s.%s: %w", path, field, err)
	}
	return incr.Val(), nil
}

// boundedIncr returns -2 when the document is missing and -1 when the limit
// has been reached.
var boundedIncr = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -2
end
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0') or 0
local limit = redis.call('HGET', KEYS[1], ARGV[2])
if limit then
  local l = tonumber(limit)
  if l and l > 0 and cur >= l then
    return -1
  end
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

func (s *RedisStore) IncrementWithin(ctx context.Context, path, field, limitField string) (int64, error) {
	if _, err := parseDocPath(path); err != nil {
		return 0, err
	}
	n, err := boundedIncr.Run(ctx, s.rdb, []string{s.docKey(path)}, field, limitField).Int64()
	if err != nil {
		return 0, fmt.Errorf("docstore bounded increment %s.%s: %w", path, field, err)
	}
	switch n {
	case -2:
		return 0, ErrNotFound
	case -1:
		return 0, ErrLimitReached
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Reservations
// ---------------------------------------------------------------------------

func (s *RedisStore) Reserve(ctx context.Context, path, owner string) (bool, error) {
	if _, err := parseDocPath(path); err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, s.rsvKey(path), owner, 0).Result()
	if err != nil {
		return false, fmt.Errorf("docstore reserve %s: %w", path, err)
	}
	if ok {
		return true, nil
	}

	holder, err := s.rdb.Get(ctx, s.rsvKey(path)).Result()
	if errors.Is(err, goredis.Nil) {
		return s.Reserve(ctx, path, owner)
	}
	if err != nil {
		return false, fmt.Errorf("docstore reserve %s: %w", path, err)
	}
	return holder == owner, nil
}

var releaseIfOwner = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (s *RedisStore) Release(ctx context.Context, path, owner string) error {
	if err := releaseIfOwner.Run(ctx, s.rdb, []string{s.rsvKey(path)}, owner).Err(); err != nil {
		return fmt.Errorf("docstore release %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
