package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const listKeyPrefix = "records:list:"

// ListCache keeps the JSON encoding of whole collection listings. Entries
// expire after ttl and are deleted when the collection is written.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

func listKey(collection string) string {
	return listKeyPrefix + collection
}

// Get decodes the cached listing into dest. It reports false on a miss.
func (c *ListCache) Get(ctx context.Context, collection string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, listKey(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cached %s: %w", collection, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", collection, err)
	}
	return true, nil
}

func (c *ListCache) Set(ctx context.Context, collection string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := c.client.Set(ctx, listKey(collection), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache %s: %w", collection, err)
	}
	return nil
}

func (c *ListCache) Invalidate(ctx context.Context, collection string) error {
	if err := c.client.Del(ctx, listKey(collection)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", collection, err)
	}
	return nil
}
