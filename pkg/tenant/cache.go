package tenant

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/pkg/metrics"
)

const (
	// DefaultCacheTTL bounds staleness after an out-of-band connection string rotation.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultSweepInterval is how often expired entries are dropped.
	DefaultSweepInterval = time.Minute

	shardCount = 32
)

// Entry is a cached tenant snapshot.
type Entry struct {
	TenantID         uuid.UUID
	ConnectionString string
	CachedAt         time.Time

	info Info
}

// Info returns a copy of the cached snapshot.
func (e Entry) Info() Info {
	return e.info.Clone()
}

type shard struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
	gens    map[uuid.UUID]uint64
}

type alias struct {
	id       uuid.UUID
	cachedAt time.Time
}

type aliasShard struct {
	mu      sync.RWMutex
	entries map[string]alias
}

// Cache maps tenant ids to resolved connection strings.
// It is the only structure shared by concurrently executing units of work: it is
// split into independently locked shards so a refresh of one tenant never blocks
// readers of another. Nothing is persisted; a cold start falls through to the registry.
type Cache struct {
	shards  [shardCount]*shard
	aliases [shardCount]*aliasShard

	// epoch counts every invalidation; gens count them per tenant.
	epoch atomic.Uint64

	ttl     time.Duration
	sweep   time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the entry time-to-live. Non-positive values are ignored.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired entries are removed; zero disables the janitor.
func WithSweepInterval(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d >= 0 {
			c.sweep = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCacheMetrics records hits, misses and size.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates a cache and starts its janitor unless disabled.
// Call Close to stop the janitor.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:   DefaultCacheTTL,
		sweep: DefaultSweepInterval,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range shardCount {
		c.shards[i] = &shard{
			entries: make(map[uuid.UUID]Entry),
			gens:    make(map[uuid.UUID]uint64),
		}
		c.aliases[i] = &aliasShard{entries: make(map[string]alias)}
	}

	if c.sweep > 0 {
		go c.janitor()
	} else {
		close(c.done)
	}

	return c
}

func (c *Cache) shardFor(id uuid.UUID) *shard {
	// UUIDs are random enough for the first byte to spread load evenly.
	return c.shards[int(id[0])%shardCount]
}

func (c *Cache) aliasFor(sub string) *aliasShard {
	return c.aliases[xxhash.Sum64String(sub)%shardCount]
}

func (c *Cache) expired(cachedAt time.Time) bool {
	return !c.now().Before(cachedAt.Add(c.ttl))
}

// Get returns the live entry for id.
func (c *Cache) Get(id uuid.UUID) (Entry, bool) {
	s := c.shardFor(id)
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || c.expired(e.CachedAt) {
		c.metrics.CacheMiss()
		return Entry{}, false
	}

	c.metrics.CacheHit()
	return e, true
}

// ConnectionString returns the cached connection string for id.
func (c *Cache) ConnectionString(id uuid.UUID) (string, bool) {
	e, ok := c.Get(id)
	if !ok {
		return "", false
	}
	return e.ConnectionString, true
}

// subdomainOf returns the subdomain of the cached entry for id, expired or not.
func (c *Cache) subdomainOf(id uuid.UUID) (string, bool) {
	s := c.shardFor(id)
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || e.info.Subdomain == "" {
		return "", false
	}
	return e.info.Subdomain, true
}

// LookupSubdomain maps a subdomain to a cached tenant id.
// The alias only counts while the tenant entry itself is live.
func (c *Cache) LookupSubdomain(sub string) (uuid.UUID, bool) {
	a := c.aliasFor(sub)
	a.mu.RLock()
	al, ok := a.entries[sub]
	a.mu.RUnlock()

	if !ok || c.expired(al.cachedAt) {
		return uuid.Nil, false
	}

	s := c.shardFor(al.id)
	s.mu.RLock()
	_, live := s.entries[al.id]
	s.mu.RUnlock()

	return al.id, live
}

// Stamp captures the invalidation state before a registry read. Pass the
// tenant id when it is known; uuid.Nil stamps the whole cache, which is what
// subdomain lookups and bulk refreshes need.
type Stamp struct {
	epoch uint64
	id    uuid.UUID
	gen   uint64
}

// Stamp returns the current invalidation state for id.
func (c *Cache) Stamp(id uuid.UUID) Stamp {
	st := Stamp{epoch: c.epoch.Load(), id: id}
	if id != uuid.Nil {
		s := c.shardFor(id)
		s.mu.RLock()
		st.gen = s.gens[id]
		s.mu.RUnlock()
	}
	return st
}

// Put stores an active tenant snapshot. Inactive tenants are evicted instead,
// so a deactivated tenant can never be served from cache.
func (c *Cache) Put(info Info) {
	c.put(info, nil)
}

// PutIf stores info only if the tenant was not invalidated since st was taken.
// A snapshot read before an invalidation is dropped, so the next lookup goes
// to the registry. It reports whether the entry was written.
func (c *Cache) PutIf(info Info, st Stamp) bool {
	return c.put(info, &st)
}

// current must be called with the shard lock held.
func (c *Cache) current(s *shard, id uuid.UUID, st Stamp) bool {
	if st.id == id {
		return s.gens[id] == st.gen
	}
	return c.epoch.Load() == st.epoch
}

func (c *Cache) put(info Info, st *Stamp) bool {
	if info.IsZero() {
		return false
	}
	if !info.IsActive {
		c.Invalidate(info.ID)
		return false
	}

	now := c.now()
	e := Entry{
		TenantID:         info.ID,
		ConnectionString: info.ConnectionString,
		CachedAt:         now,
		info:             info.Clone(),
	}

	s := c.shardFor(info.ID)
	s.mu.Lock()
	if st != nil && !c.current(s, info.ID, *st) {
		s.mu.Unlock()
		return false
	}
	prev, existed := s.entries[info.ID]
	s.entries[info.ID] = e
	s.mu.Unlock()

	if existed && prev.info.Subdomain != "" && prev.info.Subdomain != info.Subdomain {
		c.dropAlias(prev.info.Subdomain, info.ID)
	}

	if info.Subdomain != "" {
		a := c.aliasFor(info.Subdomain)
		a.mu.Lock()
		a.entries[info.Subdomain] = alias{id: info.ID, cachedAt: now}
		a.mu.Unlock()
	}

	c.metrics.CacheSize(c.Len())
	return true
}

// Invalidate removes id and its subdomain alias. The next resolution goes to the registry.
func (c *Cache) Invalidate(id uuid.UUID) {
	s := c.shardFor(id)
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.gens[id]++
	c.epoch.Add(1)
	s.mu.Unlock()

	if ok && e.info.Subdomain != "" {
		c.dropAlias(e.info.Subdomain, id)
	}

	c.metrics.CacheSize(c.Len())
}

func (c *Cache) dropAlias(sub string, id uuid.UUID) {
	a := c.aliasFor(sub)
	a.mu.Lock()
	if al, ok := a.entries[sub]; ok && al.id == id {
		delete(a.entries, sub)
	}
	a.mu.Unlock()
}

// Len returns the number of cached tenants, expired ones included until swept.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	for _, s := range c.shards {
		s.mu.Lock()
		for id, e := range s.entries {
			if c.expired(e.CachedAt) {
				delete(s.entries, id)
			}
		}
		s.mu.Unlock()
	}

	for _, a := range c.aliases {
		a.mu.Lock()
		for sub, al := range a.entries {
			if c.expired(al.cachedAt) {
				delete(a.entries, sub)
			}
		}
		a.mu.Unlock()
	}

	c.metrics.CacheSize(c.Len())
}

// Close stops the janitor and waits for it to exit. Safe to call more than once.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
	return nil
}
