// Package ratelimit throttles API clients per endpoint class. Generation,
// snapshot compiles, and render enqueues carry real cost (LLM calls,
// typeset jobs), so they get tight hourly budgets; ordinary writes get
// per-minute ones and reads fall to the default. The mechanism is a
// lazily refilled token bucket per (client, method, endpoint pattern).
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// bucketIdleTTL is how long an untouched bucket survives before the
// janitor retires it. An idle bucket has refilled to capacity, so
// dropping it loses nothing.
const bucketIdleTTL = time.Hour

// Info reports the limit state for one decision. Handlers turn it into
// X-RateLimit-* headers and, on denial, Retry-After.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// bucket is a token bucket refilled lazily on use: elapsed time times
// the per-second rate, capped at burst capacity. touched doubles as the
// idle marker for the janitor.
type bucket struct {
	mu      sync.Mutex
	tokens  float64
	burst   float64
	perSec  float64
	touched time.Time
}

func newBucket(burst int, perSec float64, now time.Time) *bucket {
	return &bucket{tokens: float64(burst), burst: float64(burst), perSec: perSec, touched: now}
}

// take refills, then consumes one token when available. It reports the
// post-decision remaining count and when the bucket is full again.
func (b *bucket) take(now time.Time) (ok bool, remaining int, reset time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.touched).Seconds() * b.perSec
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.touched = now

	if b.tokens >= 1 {
		b.tokens--
		ok = true
	}
	remaining = int(b.tokens)
	reset = now
	if b.tokens < b.burst {
		reset = now.Add(time.Duration((b.burst - b.tokens) / b.perSec * float64(time.Second)))
	}
	return ok, remaining, reset
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touched.Before(cutoff)
}

// Limiter applies the endpoint table to every request. Buckets are keyed
// by (client, method, matched pattern), so one client's generation budget
// spans all of their users and resumes rather than resetting per path.
type Limiter struct {
	cfg     *Config
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a Limiter and, when cleanup is configured, starts
// its janitor goroutine. Call Stop on shutdown.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}

	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.janitor(cfg.CleanupInterval)
	}
	return l
}

// Allow decides one request. Whitelisted clients and unlimited endpoints
// pass without touching a bucket; blacklisted clients never pass.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.cfg.Blacklist[clientID] {
		return false, Info{}
	}

	endpoint := MatchEndpoint(path, method, l.cfg.EndpointConfigs)
	if endpoint == nil {
		endpoint = &EndpointConfig{Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if endpoint.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := time.Now()
	key := strings.Join([]string{clientID, method, endpoint.Path}, " ")
	ok, remaining, reset := l.bucketFor(key, endpoint, now).take(now)

	info := Info{Allowed: ok, Limit: endpoint.Limit, Remaining: remaining, ResetTime: reset}
	if !ok {
		if wait := time.Until(reset); wait > 0 {
			info.RetryAfter = wait
		}
	}
	return ok, info
}

func (l *Limiter) bucketFor(key string, e *EndpointConfig, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	burst := e.Burst
	if burst <= 0 {
		burst = e.Limit
	}
	b := newBucket(burst, float64(e.Limit)/e.Window.Seconds(), now)
	l.buckets[key] = b
	return b
}

// janitor periodically retires buckets untouched for bucketIdleTTL so
// one-off clients don't accumulate forever.
func (l *Limiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.retireIdle(time.Now().Add(-bucketIdleTTL))
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) retireIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop shuts down the janitor. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
