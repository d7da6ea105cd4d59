package handlers

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"relaywire/courier/pkg/upstream"
)

var errDial = errors.New("dial tcp: connection refused")

// fakeFetcher is a MessageFetcher for tests. It serves canned bodies or
// errors and counts fetches.
type fakeFetcher struct {
	mu         sync.Mutex
	body       []byte
	err        error
	configured bool
	calls      int
	lastLimit  int
}

func newFakeFetcher(body string) *fakeFetcher {
	return &fakeFetcher{body: []byte(body), configured: true}
}

func (f *fakeFetcher) MessagesURL(channelID string, limit int) string {
	return "https://chat.example/api/channels/" + channelID + "/messages?limit=" + strconv.Itoa(limit)
}

func (f *fakeFetcher) FetchMessages(ctx context.Context, channelID string, limit int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if !f.configured {
		return nil, upstream.ErrNoToken
	}
	return f.body, nil
}

func (f *fakeFetcher) Configured() bool {
	return f.configured
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) limitSeen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLimit
}

// fakeCache is an always-consistent in-memory ByteCache without expiry.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
}

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}
