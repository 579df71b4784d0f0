package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-storefront/models"

	"github.com/redis/go-redis/v9"
)

const guestCartPrefix = "guest_cart:"

// RedisGuestCartStore keeps guest carts as JSON blobs that expire after ttl.
type RedisGuestCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuestCartStore(rdb *redis.Client, ttl time.Duration) *RedisGuestCartStore {
	return &RedisGuestCartStore{rdb: rdb, ttl: ttl}
}

func (s *RedisGuestCartStore) Get(ctx context.Context, handle string) (*models.GuestCart, error) {
	b, err := s.rdb.Get(ctx, guestCartPrefix+handle).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.GuestCart{Handle: handle, Items: []models.GuestCartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get guest cart: %w", err)
	}
	var c models.GuestCart
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	c.Handle = handle
	return &c, nil
}

func (s *RedisGuestCartStore) Save(ctx context.Context, c *models.GuestCart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	if err := s.rdb.Set(ctx, guestCartPrefix+c.Handle, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set guest cart: %w", err)
	}
	return nil
}

func (s *RedisGuestCartStore) Delete(ctx context.Context, handle string) error {
	if err := s.rdb.Del(ctx, guestCartPrefix+handle).Err(); err != nil {
		return fmt.Errorf("redis del guest cart: %w", err)
	}
	return nil
}

// MemoryGuestCartStore is a process-local GuestCartStore, used when Redis is
// not configured. Like the Redis store, a cart expires ttl after its last save.
type MemoryGuestCartStore struct {
	mu    sync.Mutex
	carts map[string]memoryGuestCart
	ttl   time.Duration
	swept time.Time
	now   func() time.Time
}

type memoryGuestCart struct {
	items     []models.GuestCartItem
	expiresAt time.Time
}

const guestSweepInterval = time.Minute

// NewMemoryGuestCartStore returns an empty store. A ttl of zero or less keeps
// carts until they are deleted.
func NewMemoryGuestCartStore(ttl time.Duration) *MemoryGuestCartStore {
	return &MemoryGuestCartStore{carts: map[string]memoryGuestCart{}, ttl: ttl, now: time.Now}
}

func (s *MemoryGuestCartStore) Get(_ context.Context, handle string) (*models.GuestCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	entry, ok := s.carts[handle]
	if ok && s.expired(entry, now) {
		delete(s.carts, handle)
		entry = memoryGuestCart{}
	}
	items := append([]models.GuestCartItem{}, entry.items...)
	return &models.GuestCart{Handle: handle, Items: items}, nil
}

func (s *MemoryGuestCartStore) Save(_ context.Context, c *models.GuestCart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	entry := memoryGuestCart{items: append([]models.GuestCartItem{}, c.Items...)}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.carts[c.Handle] = entry
	return nil
}

func (s *MemoryGuestCartStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, handle)
	return nil
}

// Len reports how many carts are held, expired or not.
func (s *MemoryGuestCartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *MemoryGuestCartStore) expired(e memoryGuestCart, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// sweep drops expired carts at most once per guestSweepInterval. Callers hold mu.
func (s *MemoryGuestCartStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.swept) < guestSweepInterval {
		return
	}
	s.swept = now
	for handle, e := range s.carts {
		if s.expired(e, now) {
			delete(s.carts, handle)
		}
	}
}
