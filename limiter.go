package folio

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimiter counts events per key (a client IP) over a sliding window.
// Login records failures only; upload routes record every request through
// Middleware.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows max events per key within window. It starts a
// sweeper goroutine; call Stop when done.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Stop ends the sweeper goroutine.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *RateLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		for key := range l.hits {
			if len(l.recent(key)) == 0 {
				delete(l.hits, key)
			}
		}
		l.mu.Unlock()
	}
}

// recent drops expired events for key and returns the rest. l.mu is held.
func (l *RateLimiter) recent(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	hits := l.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	l.hits[key] = hits
	return hits
}

// Check reports whether key is under the limit without recording anything.
func (l *RateLimiter) Check(key string) bool {
	return l.Remaining(key) > 0
}

// Remaining returns how many events key may still record in the window.
func (l *RateLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := l.max - len(l.recent(key)); n > 0 {
		return n
	}
	return 0
}

// Record registers one event for key.
func (l *RateLimiter) Record(key string) {
	l.mu.Lock()
	l.hits[key] = append(l.recent(key), l.now())
	l.mu.Unlock()
}

// Allow records an event if key is under the limit and reports whether it did.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	hits := l.recent(key)
	if len(hits) >= l.max {
		return false
	}
	l.hits[key] = append(hits, l.now())
	return true
}

// Middleware rejects requests over the limit with 429, keyed by c.RealIP().
func (l *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !l.Allow(ip) {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			if isAPI(c) {
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			}
			return c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
		}
		c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(ip)))
		return next(c)
	}
}
