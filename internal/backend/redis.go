package backend

import (
	"context"
	"fmt"

	"github.com/mediocregopher/radix/v3"

	"github.com/lirsacc/crible/internal/cis"
	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
)

// DefaultRedisPrefix is the hash key used when a redis:// URL carries no
// ?prefix= query parameter.
const DefaultRedisPrefix = "crible"

// Redis is a remote-KV durability endpoint: every property is stored as a
// field of a single Redis hash keyed by prefix, value being the property's
// CIS in its portable Roaring serialization. Dump pipelines one HSET per
// property; Load issues a single HGETALL.
type Redis struct {
	pool   *radix.Pool
	prefix string
}

// NewRedis dials a connection pool against addr (host:port) and returns a
// Redis backend storing properties under the hash key prefix. db selects
// the logical database (0 is Redis's default and needs no SELECT).
func NewRedis(network, addr, prefix string, db int, poolSize int) (*Redis, error) {
	var opts []radix.PoolOpt
	if db != 0 {
		opts = append(opts, radix.PoolConnFunc(func(network, addr string) (radix.Conn, error) {
			return radix.Dial(network, addr, radix.DialSelectDB(db))
		}))
	}

	pool, err := radix.NewPool(network, addr, poolSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("backend: dialing redis %s: %w", addr, err)
	}
	return &Redis{pool: pool, prefix: prefix}, nil
}

func (r *Redis) Dump(_ context.Context, idx *index.Index) error {
	if err := r.pool.Do(radix.Cmd(nil, "DEL", r.prefix)); err != nil {
		return fmt.Errorf("backend: redis clearing %q before dump: %w", r.prefix, err)
	}

	names := idx.Properties()
	if len(names) == 0 {
		return nil
	}

	actions := make([]radix.CmdAction, 0, len(names))
	for _, name := range names {
		s, _ := idx.Get(name)
		payload, err := s.Serialize()
		if err != nil {
			return fmt.Errorf("backend: serializing property %q: %w", name, err)
		}
		actions = append(actions, radix.FlatCmd(nil, "HSET", r.prefix, name, payload))
	}
	if err := r.pool.Do(radix.Pipeline(actions...)); err != nil {
		return fmt.Errorf("backend: redis dump to %q: %w", r.prefix, err)
	}
	return nil
}

func (r *Redis) Load(_ context.Context) (*index.Index, error) {
	var data map[string][]byte
	if err := r.pool.Do(radix.Cmd(&data, "HGETALL", r.prefix)); err != nil {
		return nil, fmt.Errorf("backend: redis load from %q: %w", r.prefix, err)
	}

	idx := index.New()
	for name, payload := range data {
		if err := expr.ValidatePropertyName(name); err != nil {
			return nil, fmt.Errorf("backend: redis hash %q contains invalid property %q: %w", r.prefix, name, err)
		}
		s, err := cis.Deserialize(payload)
		if err != nil {
			return nil, fmt.Errorf("backend: redis hash %q property %q: %w", r.prefix, name, err)
		}
		idx.SetProperty(name, s)
	}
	return idx, nil
}

func (r *Redis) Clear(_ context.Context) error {
	if err := r.pool.Do(radix.Cmd(nil, "DEL", r.prefix)); err != nil {
		return fmt.Errorf("backend: redis clearing %q: %w", r.prefix, err)
	}
	return nil
}
