package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// TTL is an in-process cache with per-entry expiry and least-recently-used
// eviction once capacity is reached. Expiry is checked lazily on Get.
type TTL struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	order    *list.List
	items    map[string]*list.Element
}

// NewTTL returns a cache holding at most capacity entries for ttl each. A
// nil clock means time.Now. capacity <= 0 means unbounded.
func NewTTL(ttl time.Duration, capacity int, clock func() time.Time) *TTL {
	if clock == nil {
		clock = time.Now
	}
	return &TTL{
		ttl:      ttl,
		capacity: capacity,
		now:      clock,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *TTL) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	e := el.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeElement(el)
		return nil, ErrCacheMiss
	}
	c.order.MoveToFront(el)
	return e.value, nil
}

func (c *TTL) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return nil
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	for c.capacity > 0 && c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
	return nil
}

// Len counts stored entries, including expired ones not yet read.
func (c *TTL) Len(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), nil
}

func (c *TTL) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
