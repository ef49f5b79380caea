package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles login attempts per client IP with a token bucket.
// A nil limiter allows everything.
type loginLimiter struct {
	mu        sync.Mutex
	clients   map[string]*loginClient
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type loginClient struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLoginLimiter(attempts int, window time.Duration) *loginLimiter {
	if attempts <= 0 || window <= 0 {
		return nil
	}
	return &loginLimiter{
		clients: make(map[string]*loginClient),
		limit:   rate.Every(window / time.Duration(attempts)),
		burst:   attempts,
		// after a full window without attempts a bucket is full again
		idle: window,
		now:  time.Now,
	}
}

// Allow records an attempt from ip and reports whether it is within budget.
func (l *loginLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastPrune) >= l.idle {
		l.prune(now)
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &loginClient{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.seen = now
	l.mu.Unlock()

	return c.lim.AllowN(now, 1)
}

// prune drops clients idle for a full window. Callers hold mu.
func (l *loginLimiter) prune(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.seen) >= l.idle {
			delete(l.clients, ip)
		}
	}
	l.lastPrune = now
}

// Reset forgets ip after a successful login.
func (l *loginLimiter) Reset(ip string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, ip)
}

func (l *loginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
