package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkloom/loom/internal/core/model"
)

func newTestResponseCache(t *testing.T) *ResponseCache {
	t.Helper()
	c := NewResponseCache(zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func sampleResult() *model.GraphResult {
	return &model.GraphResult{
		Nodes: []model.Node{{ID: "Q42", Label: "Douglas Adams", Group: model.GroupPerson, IsSeed: true}},
	}
}

func TestResponseCache_HitReturnsSameResult(t *testing.T) {
	c := newTestResponseCache(t)

	var calls int32
	produce := func() (*model.GraphResult, error) {
		atomic.AddInt32(&calls, 1)
		return sampleResult(), nil
	}

	first, cached, err := c.Fetch("k", false, produce)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := c.Fetch("k", false, produce)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResponseCache_SkipCacheBypasses(t *testing.T) {
	c := newTestResponseCache(t)

	var calls int32
	produce := func() (*model.GraphResult, error) {
		atomic.AddInt32(&calls, 1)
		return sampleResult(), nil
	}

	_, _, err := c.Fetch("k", false, produce)
	require.NoError(t, err)

	_, cached, err := c.Fetch("k", true, produce)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResponseCache_ExpiredEntryRegenerates(t *testing.T) {
	c := newTestResponseCache(t)

	base := time.Now()
	c.now = func() time.Time { return base }

	var calls int32
	produce := func() (*model.GraphResult, error) {
		atomic.AddInt32(&calls, 1)
		return sampleResult(), nil
	}

	_, _, err := c.Fetch("k", false, produce)
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(ResponseTTL + time.Second) }
	_, cached, err := c.Fetch("k", false, produce)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResponseCache_CollapsesConcurrentRequests(t *testing.T) {
	c := newTestResponseCache(t)

	var calls int32
	release := make(chan struct{})
	produce := func() (*model.GraphResult, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleResult(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Fetch("k", false, produce)
			assert.NoError(t, err)
		}()
	}

	// Let the in-flight callers pile onto the same flight, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResponseCache_Sweep(t *testing.T) {
	c := newTestResponseCache(t)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.put("stale", sampleResult())
	c.put("fresh", sampleResult())

	c.now = func() time.Time { return base.Add(ResponseTTL + time.Second) }
	c.mu.Lock()
	c.entries["fresh"] = responseEntry{result: sampleResult(), storedAt: c.now()}
	c.mu.Unlock()

	c.sweep()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.NotContains(t, c.entries, "stale")
	assert.Contains(t, c.entries, "fresh")
}

func TestRequestKey_DistinctRequests(t *testing.T) {
	a := RequestKey(model.GraphRequest{Names: []string{"Ada"}, Depth: 2})
	b := RequestKey(model.GraphRequest{Names: []string{"Ada"}, Depth: 3})
	c := RequestKey(model.GraphRequest{IDs: []string{"Q42"}, Depth: 2})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, RequestKey(model.GraphRequest{Names: []string{"Ada"}, Depth: 2}))
}

func TestRequestKey_SeparatorCharactersInNames(t *testing.T) {
	// A single name containing a separator must not key the same as the
	// split list, or the second request would be served the first's graph.
	joined := RequestKey(model.GraphRequest{Names: []string{"a|b"}, Depth: 2})
	split := RequestKey(model.GraphRequest{Names: []string{"a", "b"}, Depth: 2})
	assert.NotEqual(t, joined, split)

	asID := RequestKey(model.GraphRequest{Names: []string{"x"}, IDs: []string{"y"}, Depth: 2})
	asName := RequestKey(model.GraphRequest{Names: []string{"x;ids=y"}, Depth: 2})
	assert.NotEqual(t, asID, asName)
}
