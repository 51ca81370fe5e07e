// Package cache holds a Redis read-through cache for catalog lookups.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/repository"
)

const (
	keyPrefix  = "catalog"
	versionKey = keyPrefix + ":version"
)

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// catalogCache decorates a CatalogRepository. Reads are cached per body part
// set under a version number; every admin write bumps the version, so stale
// entries simply stop being addressed and expire by TTL. Redis failures fall
// through to the wrapped repository.
type catalogCache struct {
	next    repository.CatalogRepository
	rdb     *goredis.Client
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewCatalogCache wraps next with a Redis read-through cache.
func NewCatalogCache(next repository.CatalogRepository, rdb *goredis.Client, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) repository.CatalogRepository {
	return &catalogCache{
		next:    next,
		rdb:     rdb,
		ttl:     ttl,
		log:     log.With("component", "CatalogCache"),
		metrics: metrics,
	}
}

// Key builds the cache key for a lookup kind, catalog version and body part
// set. The id order does not matter.
func Key(kind string, version int64, bodyPartIDs []primitive.ObjectID) string {
	hexes := make([]string, len(bodyPartIDs))
	for i, id := range bodyPartIDs {
		hexes[i] = id.Hex()
	}
	sort.Strings(hexes)
	return fmt.Sprintf("%s:v%d:%s:%s", keyPrefix, version, kind, strings.Join(hexes, ","))
}

func (c *catalogCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *catalogCache) bump(ctx context.Context) {
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		c.log.Warn("catalog cache version bump failed", "error", err)
	}
}

// envelope wraps cached values; BSON needs a document at the top level and
// keeps fields that are hidden from JSON, such as media keys.
type envelope[T any] struct {
	Items T `bson:"items"`
}

// readThrough serves key from Redis or loads and stores it.
func readThrough[T any](ctx context.Context, c *catalogCache, kind string, bodyPartIDs []primitive.ObjectID, load func() (T, error)) (T, error) {
	version, err := c.version(ctx)
	if err != nil {
		c.log.Warn("catalog cache unavailable", "error", err)
		c.metrics.CacheLookup(kind, "error")
		return load()
	}
	key := Key(kind, version, bodyPartIDs)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached envelope[T]
		if decodeErr := bson.Unmarshal(raw, &cached); decodeErr == nil {
			c.metrics.CacheLookup(kind, "hit")
			return cached.Items, nil
		}
		c.log.Warn("catalog cache entry corrupt", "key", key)
	} else if !errors.Is(err, goredis.Nil) {
		c.log.Warn("catalog cache get failed", "key", key, "error", err)
	}
	c.metrics.CacheLookup(kind, "miss")

	value, err := load()
	if err != nil {
		return value, err
	}
	if encoded, err := bson.Marshal(envelope[T]{Items: value}); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.log.Warn("catalog cache set failed", "key", key, "error", err)
		}
	}
	return value, nil
}

func (c *catalogCache) ListEntries(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.CatalogEntry, error) {
	return readThrough(ctx, c, "entries", bodyPartIDs, func() ([]domain.CatalogEntry, error) {
		return c.next.ListEntries(ctx, bodyPartIDs)
	})
}

func (c *catalogCache) ListContraindications(ctx context.Context, bodyPartIDs []primitive.ObjectID) ([]domain.Contraindication, error) {
	return readThrough(ctx, c, "contraindications", bodyPartIDs, func() ([]domain.Contraindication, error) {
		return c.next.ListContraindications(ctx, bodyPartIDs)
	})
}

func (c *catalogCache) ListBodyParts(ctx context.Context) ([]domain.BodyPart, error) {
	return readThrough(ctx, c, "bodyparts", nil, func() ([]domain.BodyPart, error) {
		return c.next.ListBodyParts(ctx)
	})
}

func (c *catalogCache) CreateBodyPart(ctx context.Context, bp *domain.BodyPart) (primitive.ObjectID, error) {
	id, err := c.next.CreateBodyPart(ctx, bp)
	if err == nil {
		c.bump(ctx)
	}
	return id, err
}

func (c *catalogCache) CreateMapping(ctx context.Context, m *domain.BodyPartExerciseMapping) (primitive.ObjectID, error) {
	id, err := c.next.CreateMapping(ctx, m)
	if err == nil {
		c.bump(ctx)
	}
	return id, err
}

func (c *catalogCache) CreateContraindication(ctx context.Context, ci *domain.Contraindication) (primitive.ObjectID, error) {
	id, err := c.next.CreateContraindication(ctx, ci)
	if err == nil {
		c.bump(ctx)
	}
	return id, err
}

// Invalidate bumps the catalog version. Template edits call it since
// cached entries embed template fields.
func Invalidate(ctx context.Context, repo repository.CatalogRepository) {
	if c, ok := repo.(*catalogCache); ok {
		c.bump(ctx)
	}
}
