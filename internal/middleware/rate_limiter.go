package middleware

import (
	"net/http"
	"sync"
	"time"

	"gestock/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowLimiter counts requests per client IP in fixed windows. Coarse on
// purpose: it caps abuse, it is not an SLA tool.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*clientWindow
}

type clientWindow struct {
	count int
	until time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	l := &windowLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
	}
	go l.purgeLoop()
	return l
}

// allow counts one request for ip and reports whether it is still within the
// limit. Also returns when the current window resets.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cw, ok := l.clients[ip]
	if !ok || now.After(cw.until) {
		cw = &clientWindow{until: now.Add(l.window)}
		l.clients[ip] = cw
	}
	cw.count++
	return cw.count <= l.limit, cw.until
}

// purgeLoop drops expired IP entries so one-off clients do not accumulate.
func (l *windowLimiter) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		purged := 0
		for ip, cw := range l.clients {
			if now.After(cw.until) {
				delete(l.clients, ip)
				purged++
			}
		}
		remaining := len(l.clients)
		l.mu.Unlock()
		if purged > 0 {
			log.Debug().Int("purged", purged).Int("remaining", remaining).
				Msg("rate limiter: expired entries dropped")
		}
	}
}

func (l *windowLimiter) middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, until := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", until.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter caps login attempts at 20 per minute per IP to slow down
// credential stuffing.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter(20, time.Minute).
		middleware("Trop de tentatives de connexion. Réessayez dans 1 minute.")
}

// RateLimiter is the general per-IP limiter mounted on the whole API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter(limit, window).
		middleware("Trop de requêtes. Réessayez dans un instant.")
}
