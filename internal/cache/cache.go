package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oh2fk/pskprop/internal/types"
)

// RedisClient defines the Redis operations the cache uses; narrowed for
// testability.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

const keyPrefix = "spot:"

// Cache mirrors live spots into Redis with a TTL equal to the active age
// window, so a restarted daemon warm-starts with the spots that would still
// be visible. Nothing outlives the window: Redis expiry enforces it even
// while the daemon is down.
type Cache struct {
	client RedisClient
	ttl    func() time.Duration
}

// New connects to Redis. ttl supplies the active age window per write so
// criteria changes apply to subsequent mirrors without reconnecting.
func New(addr string, ttl func() time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient creates a cache around an existing client (useful for tests).
func NewWithClient(client RedisClient, ttl func() time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func spotKey(k types.SpotKey) string {
	return fmt.Sprintf("%s%s|%s|%s|%d|%s", keyPrefix, k.Sender, k.Receiver, k.Band, k.Unix, k.Role)
}

// StoreSpot mirrors one spot with the remainder of its window as TTL, so a
// spot that arrived old expires in Redis at the same moment the store would
// prune it. Spots already outside the window are not mirrored at all.
func (c *Cache) StoreSpot(spot types.Spot) error {
	ttl := c.ttl() - time.Since(spot.Timestamp)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(spot)
	if err != nil {
		return fmt.Errorf("failed to marshal spot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.client.Set(ctx, spotKey(spot.Key()), data, ttl).Err()
}

// LoadSpots returns every mirrored spot that has not expired yet. Entries
// that fail to decode are skipped; the mirror is a convenience, not a
// source of truth.
func (c *Cache) LoadSpots(ctx context.Context) ([]types.Spot, error) {
	var (
		spots  []types.Spot
		cursor uint64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan spot keys: %w", err)
		}
		for _, key := range keys {
			data, err := c.client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				continue // expired between scan and get
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get spot %s: %w", key, err)
			}
			var spot types.Spot
			if err := json.Unmarshal(data, &spot); err != nil {
				continue
			}
			spots = append(spots, spot)
		}
		cursor = next
		if cursor == 0 {
			return spots, nil
		}
	}
}
