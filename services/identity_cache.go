package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
)

// IdentityCache stores resolved requesters by user id.
// Get returns (nil, nil) on a miss.
type IdentityCache interface {
	Get(ctx context.Context, userID string) (*authz.Requester, error)
	Set(ctx context.Context, r *authz.Requester) error
}

// ============================================================================
// MemoryIdentityCache
// ============================================================================

// MemoryIdentityCache is an in-process expiring LRU
type MemoryIdentityCache struct {
	cache *lru.LRU[string, authz.Requester]
}

// NewMemoryIdentityCache creates a cache holding up to size identities for ttl
func NewMemoryIdentityCache(size int, ttl time.Duration) *MemoryIdentityCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryIdentityCache{cache: lru.NewLRU[string, authz.Requester](size, nil, ttl)}
}

var _ IdentityCache = (*MemoryIdentityCache)(nil)

func (c *MemoryIdentityCache) Get(_ context.Context, userID string) (*authz.Requester, error) {
	r, ok := c.cache.Get(userID)
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (c *MemoryIdentityCache) Set(_ context.Context, r *authz.Requester) error {
	c.cache.Add(r.ID, *r)
	return nil
}

// ============================================================================
// RedisIdentityCache
// ============================================================================

// RedisIdentityCache shares resolved identities between instances
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdentityCache creates a Redis-backed identity cache
func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, ttl: ttl}
}

var _ IdentityCache = (*RedisIdentityCache)(nil)

type cachedIdentity struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func identityKey(userID string) string {
	return fmt.Sprintf("identity:%s", userID)
}

func (c *RedisIdentityCache) Get(ctx context.Context, userID string) (*authz.Requester, error) {
	data, err := c.client.Get(ctx, identityKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached cachedIdentity
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		c.client.Del(ctx, identityKey(userID))
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}
	return &authz.Requester{ID: cached.ID, Role: dbRole(cached.Role), Name: cached.Name, Email: cached.Email}, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, r *authz.Requester) error {
	data, err := json.Marshal(cachedIdentity{ID: r.ID, Role: string(r.Role), Name: r.Name, Email: r.Email})
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := c.client.Set(ctx, identityKey(r.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
