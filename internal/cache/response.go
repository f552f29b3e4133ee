package cache

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/linkloom/loom/internal/core/model"
)

const (
	// ResponseTTL is how long a generated graph stays servable.
	ResponseTTL = 10 * time.Minute

	// responseSweepInterval bounds memory growth from stale entries
	// that are never re-requested.
	responseSweepInterval = 5 * time.Minute
)

type responseEntry struct {
	result   *model.GraphResult
	storedAt time.Time
}

// ResponseCache short-circuits full graph regenerations for repeated
// identical requests. Concurrent identical requests are collapsed into
// a single producer run.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]responseEntry
	flight  singleflight.Group
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewResponseCache(logger *zap.Logger) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]responseEntry),
		logger:  logger,
		ttl:     ResponseTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop(responseSweepInterval)
	return c
}

// RequestKey serializes the full request parameters so distinct
// requests never collide. JSON escaping keeps the encoding injective
// even when a name contains a separator-like character.
func RequestKey(req model.GraphRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		// GraphRequest is strings and ints; marshalling cannot fail.
		panic(err)
	}
	return string(data)
}

// Fetch returns the cached result for key when one is still fresh and
// skipCache is false; otherwise it runs produce and stores the result.
// The second return reports whether the result came from cache.
func (c *ResponseCache) Fetch(key string, skipCache bool, produce func() (*model.GraphResult, error)) (*model.GraphResult, bool, error) {
	if skipCache {
		res, err := produce()
		if err != nil {
			return nil, false, err
		}
		c.put(key, res)
		return res, false, nil
	}

	if res, ok := c.get(key); ok {
		return res, true, nil
	}

	type produced struct {
		result *model.GraphResult
		cached bool
	}
	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the entry while we queued.
		if res, ok := c.get(key); ok {
			return produced{result: res, cached: true}, nil
		}
		res, err := produce()
		if err != nil {
			return nil, err
		}
		c.put(key, res)
		return produced{result: res}, nil
	})
	if err != nil {
		return nil, false, err
	}
	p := v.(produced)
	return p.result, p.cached, nil
}

func (c *ResponseCache) get(key string) (*model.GraphResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.result, true
}

func (c *ResponseCache) put(key string, res *model.GraphResult) {
	c.mu.Lock()
	c.entries[key] = responseEntry{result: res, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *ResponseCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *ResponseCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if c.now().Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("swept stale graph results", zap.Int("count", removed))
	}
}

// Close stops the background sweeper.
func (c *ResponseCache) Close() {
	c.once.Do(func() { close(c.stop) })
}
