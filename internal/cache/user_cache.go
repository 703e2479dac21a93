package cache

import (
	"container/list"
	"sync"
	"time"
)

// UserCache holds one derived value per user. Entries expire after ttl and
// the least recently read user is dropped once more than maxUsers are held.
//
// Values are stored with the token returned by Begin. Invalidate moves the
// user past every outstanding token, so a value computed from data read
// before a write is never stored after that write.
type UserCache[T any] struct {
	mu       sync.Mutex
	maxUsers int
	ttl      time.Duration
	now      func() time.Time

	entries map[int64]*list.Element
	recency *list.List

	seq uint64
	// writes records the seq of each user's latest invalidation. Entries
	// older than floor are pruned; floor then stands in for them.
	writes map[int64]uint64
	floor  uint64
}

type userEntry[T any] struct {
	userID    int64
	value     T
	expiresAt time.Time
}

// NewUserCache creates a cache for up to maxUsers users.
func NewUserCache[T any](maxUsers int, ttl time.Duration) *UserCache[T] {
	return &UserCache[T]{
		maxUsers: maxUsers,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[int64]*list.Element),
		recency:  list.New(),
		writes:   make(map[int64]uint64),
	}
}

// Get returns the user's value if present and not expired.
func (c *UserCache[T]) Get(userID int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[userID]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*userEntry[T])
	if !c.now().Before(e.expiresAt) {
		c.drop(elem)
		return zero, false
	}
	c.recency.MoveToFront(elem)
	return e.value, true
}

// Begin returns a token to pass to Store once the value has been computed.
// Call it before reading the data the value is built from.
func (c *UserCache[T]) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Store caches value for the user unless the user was invalidated after
// token was taken. It reports whether the value was stored.
func (c *UserCache[T]) Store(userID int64, token uint64, value T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token < c.floor || c.writes[userID] > token {
		return false
	}

	e := &userEntry[T]{userID: userID, value: value, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.entries[userID]; ok {
		elem.Value = e
		c.recency.MoveToFront(elem)
		return true
	}
	c.entries[userID] = c.recency.PushFront(e)
	for c.recency.Len() > c.maxUsers {
		c.drop(c.recency.Back())
	}
	return true
}

// Invalidate drops the user's value and rejects values computed from
// reads that started before this call.
func (c *UserCache[T]) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.writes[userID] = c.seq
	if elem, ok := c.entries[userID]; ok {
		c.drop(elem)
	}
}

func (c *UserCache[T]) drop(elem *list.Element) {
	e := c.recency.Remove(elem).(*userEntry[T])
	delete(c.entries, e.userID)
}

// CleanExpired removes expired values and returns how many were removed.
// It also forgets invalidation records: tokens taken before the sweep are
// then rejected as a group.
func (c *UserCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.recency.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*userEntry[T]).expiresAt) {
			c.drop(elem)
			removed++
		}
		elem = prev
	}

	if len(c.writes) > 0 {
		c.seq++
		c.floor = c.seq
		clear(c.writes)
	}
	return removed
}

// Len returns the number of cached users.
func (c *UserCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
