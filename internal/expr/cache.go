package expr

import (
	"container/list"
	"sync"
)

type cacheEntry struct {
	key  string
	expr *Expression
}

// Cache is a thread-safe LRU of compiled expressions keyed by vocabulary and
// source text. Failed compilations are not cached.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// NewCache creates a cache holding up to capacity expressions; a
// non-positive capacity defaults to 64.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 64
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// GetOrCompile returns the cached expression for src under vocab, compiling
// and inserting it on a miss.
func (c *Cache) GetOrCompile(src string, vocab *Vocabulary) (*Expression, error) {
	key := vocab.String() + "\x00" + src

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		e := el.Value.(*cacheEntry).expr
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	e, err := CompileString(src, vocab)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		// Another goroutine won the race; keep its instance.
		c.ll.MoveToFront(el)
		return el.Value.(*cacheEntry).expr, nil
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, expr: e})
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
	return e, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
