package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdleWindow is how long an entry may go unused before pruning.
	limiterIdleWindow = 10 * time.Minute
	// limiterPruneEvery bounds how often the prune scan runs.
	limiterPruneEvery = time.Minute
)

// ipLimiter hands out one token bucket per client address. Idle entries
// are pruned on access so the map does not grow with one-off clients.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	rps       rate.Limit
	burst     int
	lastPrune time.Time
}

type clientBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		clients:   make(map[string]*clientBucket),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastPrune: time.Now(),
	}
}

// allow reports whether the client may proceed now.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > limiterPruneEvery {
		l.pruneLocked(now)
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientBucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.lim.Allow()
}

func (l *ipLimiter) pruneLocked(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleWindow {
			delete(l.clients, ip)
		}
	}
	l.lastPrune = now
}

// size returns the tracked client count.
func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
