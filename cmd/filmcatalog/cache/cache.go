package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ResultCache keeps raw response bodies keyed by resource and encoded query
type ResultCache struct {
	entries  sync.Map // map[string]*entry
	config   Config
	log      zerolog.Logger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type entry struct {
	Body      []byte
	Query     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	// Enabled determines if caching is active.
	// When false, Get always misses and Put is a no-op.
	Enabled bool

	// TTL is how long a stored response is served
	TTL time.Duration

	// MaxSize is the maximum number of responses kept; oldest go first.
	// Set to 0 for unlimited size
	MaxSize int

	// CleanupInterval defines how often expired entries are removed and
	// MaxSize is enforced
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		TTL:             5 * time.Minute,
		MaxSize:         200,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache and starts its cleanup routine when enabled
func New(config Config, log zerolog.Logger) *ResultCache {
	c := &ResultCache{
		config:   config,
		log:      log.With().Str("component", "result_cache").Logger(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go c.startCleanupRoutine()
		c.log.Debug().
			Dur("interval", config.CleanupInterval).
			Int("max_size", config.MaxSize).
			Dur("ttl", config.TTL).
			Msg("Started cache cleanup routine")
	}
	return c
}

func (c *ResultCache) startCleanupRoutine() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	type keyed struct {
		key       string
		createdAt time.Time
	}
	var (
		now     = c.now()
		expired int
		live    []keyed
	)

	c.entries.Range(func(key, value interface{}) bool {
		e := value.(*entry)
		if now.After(e.ExpiresAt) {
			c.entries.Delete(key)
			expired++
		} else {
			live = append(live, keyed{key: key.(string), createdAt: e.CreatedAt})
		}
		return true
	})

	evicted := 0
	if c.config.MaxSize > 0 && len(live) > c.config.MaxSize {
		sort.Slice(live, func(i, j int) bool {
			return live[i].createdAt.Before(live[j].createdAt)
		})
		for _, k := range live[:len(live)-c.config.MaxSize] {
			c.entries.Delete(k.key)
			evicted++
		}
	}

	c.log.Debug().
		Int("expired_removed", expired).
		Int("size_limit_removed", evicted).
		Int("remaining_entries", len(live)-evicted).
		Msg("Completed cache cleanup")
}

func key(resource, query string) string {
	hasher := sha256.New()
	hasher.Write([]byte(resource + "?" + query))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Put stores body for resource and query
func (c *ResultCache) Put(resource, query string, body []byte) {
	if !c.config.Enabled {
		return
	}

	now := c.now()
	e := &entry{
		Body:      append([]byte(nil), body...),
		Query:     query,
		CreatedAt: now,
		ExpiresAt: now.Add(c.config.TTL),
	}
	k := key(resource, query)
	c.entries.Store(k, e)
	c.log.Debug().
		Str("resource", resource).
		Str("query", query).
		Time("expires", e.ExpiresAt).
		Msg("Stored response in cache")
}

// Get returns a copy of the cached body, if present and not expired
func (c *ResultCache) Get(resource, query string) ([]byte, bool) {
	if !c.config.Enabled {
		return nil, false
	}

	k := key(resource, query)
	v, ok := c.entries.Load(k)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if c.now().After(e.ExpiresAt) {
		c.entries.Delete(k)
		return nil, false
	}
	c.log.Debug().Str("resource", resource).Str("query", query).Msg("Cache hit")
	return append([]byte(nil), e.Body...), true
}

// Len counts stored entries, expired ones included until the next cleanup
func (c *ResultCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Clear drops every entry
func (c *ResultCache) Clear() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
}

// Stop shuts down the cleanup routine and clears the cache. It is safe to
// call more than once.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.Clear()
		c.log.Debug().Msg("Cache cleared and stopped")
	})
}
