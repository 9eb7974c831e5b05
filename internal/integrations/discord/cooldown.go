package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// one manual probe every 10 seconds per user
	statusRate  = rate.Limit(0.1)
	statusBurst = 2

	idleExpiry = 10 * time.Minute
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// cooldown throttles expensive commands per user.
type cooldown struct {
	mu    sync.Mutex
	users map[string]*userLimiter
	limit rate.Limit
	burst int
	now   func() time.Time
}

func newCooldown(limit rate.Limit, burst int) *cooldown {
	return &cooldown{
		users: make(map[string]*userLimiter),
		limit: limit,
		burst: burst,
		now:   time.Now,
	}
}

func (c *cooldown) Allow(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, u := range c.users {
		if now.Sub(u.lastSeen) > idleExpiry {
			delete(c.users, id)
		}
	}

	u, ok := c.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.users[userID] = u
	}
	u.lastSeen = now

	return u.limiter.AllowN(now, 1)
}
