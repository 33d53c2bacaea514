// Package sheetcache memoizes codec lookups in an in-process LRU and,
// optionally, in Redis.
package sheetcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/topo-nomenclature/internal/cache/keys"
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/observability"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// Codec is the method set of nomenclature.Codec.
type Codec interface {
	Encode(p nomenclature.Point, s nomenclature.Scale) (nomenclature.Sheet, error)
	Decode(text string) (nomenclature.Sheet, error)
	DecodeAt(text string, s nomenclature.Scale) (nomenclature.Sheet, error)
}

// Store is the shared tier, satisfied by *redisstore.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Config struct {
	Size      int
	TTL       time.Duration
	TTLFor    func(scale string) time.Duration // shared tier TTL per scale; nil uses TTL
	OpTimeout time.Duration
}

type Cache struct {
	inner Codec
	l1    *expirable.LRU[string, nomenclature.Sheet]
	l2    Store
	cfg   Config
	log   *slog.Logger
}

type Option func(*Cache)

// WithStore enables the shared tier.
func WithStore(s Store) Option {
	return func(c *Cache) { c.l2 = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

func New(inner Codec, cfg Config, opts ...Option) *Cache {
	if cfg.Size <= 0 {
		cfg.Size = 10000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	c := &Cache{
		inner: inner,
		l1:    expirable.NewLRU[string, nomenclature.Sheet](cfg.Size, nil, cfg.TTL),
		cfg:   cfg,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) Encode(p nomenclature.Point, s nomenclature.Scale) (nomenclature.Sheet, error) {
	key := keys.Encode(s.String(), p.Lon, p.Lat)
	if sh, ok := c.l1.Get(key); ok {
		observability.IncCacheResult("l1", "hit")
		return sh, nil
	}
	observability.IncCacheResult("l1", "miss")
	sh, err := c.inner.Encode(p, s)
	if err != nil {
		return nomenclature.Sheet{}, err
	}
	c.l1.Add(key, sh)
	return sh, nil
}

func (c *Cache) Decode(text string) (nomenclature.Sheet, error) {
	return c.DecodeContext(context.Background(), text)
}

func (c *Cache) DecodeAt(text string, s nomenclature.Scale) (nomenclature.Sheet, error) {
	return c.DecodeAtContext(context.Background(), text, s)
}

func (c *Cache) DecodeContext(ctx context.Context, text string) (nomenclature.Sheet, error) {
	return c.lookup(ctx, keys.Decode("auto", text), func() (nomenclature.Sheet, error) {
		return c.inner.Decode(text)
	})
}

func (c *Cache) DecodeAtContext(ctx context.Context, text string, s nomenclature.Scale) (nomenclature.Sheet, error) {
	return c.lookup(ctx, keys.Decode(s.String(), text), func() (nomenclature.Sheet, error) {
		return c.inner.DecodeAt(text, s)
	})
}

// Len reports the number of in-process entries.
func (c *Cache) Len() int { return c.l1.Len() }

func (c *Cache) Purge() { c.l1.Purge() }

func (c *Cache) lookup(ctx context.Context, key string, load func() (nomenclature.Sheet, error)) (nomenclature.Sheet, error) {
	if sh, ok := c.l1.Get(key); ok {
		observability.IncCacheResult("l1", "hit")
		return sh, nil
	}
	observability.IncCacheResult("l1", "miss")

	if c.l2 != nil {
		if sh, ok := c.getShared(ctx, key); ok {
			c.l1.Add(key, sh)
			return sh, nil
		}
	}

	sh, err := load()
	if err != nil {
		return nomenclature.Sheet{}, err
	}
	c.l1.Add(key, sh)
	if c.l2 != nil {
		c.setShared(ctx, key, sh)
	}
	return sh, nil
}

func (c *Cache) getShared(ctx context.Context, key string) (nomenclature.Sheet, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	b, found, err := c.l2.Get(opCtx, key)
	if err != nil {
		c.log.WarnContext(ctx, "sheet cache read failed", "key", key, "err", err)
		observability.IncCacheResult("l2", "error")
		return nomenclature.Sheet{}, false
	}
	if !found {
		observability.IncCacheResult("l2", "miss")
		return nomenclature.Sheet{}, false
	}
	var sh nomenclature.Sheet
	if err := json.Unmarshal(b, &sh); err != nil {
		c.log.WarnContext(ctx, "sheet cache entry corrupt", "key", key, "err", err)
		observability.IncCacheResult("l2", "error")
		return nomenclature.Sheet{}, false
	}
	observability.IncCacheResult("l2", "hit")
	return sh, true
}

func (c *Cache) setShared(ctx context.Context, key string, sh nomenclature.Sheet) {
	b, err := json.Marshal(sh)
	if err != nil {
		c.log.WarnContext(ctx, "sheet cache encode failed", "key", key, "err", err)
		return
	}
	ttl := c.cfg.TTL
	if c.cfg.TTLFor != nil {
		ttl = c.cfg.TTLFor(sh.Scale.String())
	}

	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	if err := c.l2.Set(opCtx, key, b, ttl); err != nil {
		c.log.WarnContext(ctx, "sheet cache write failed", "key", key, "err", err)
	}
}
