package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	userKey      = "user"
	requestIDKey = "request_id"
)

// requestID keeps an incoming X-Request-ID or assigns a new one.
func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// authenticate resolves the session cookie to a logged-in user.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cfg.CookieName)
		if err != nil || token == "" {
			abortError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := s.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "session rejected", "error", err)
			abortError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

// limiterIdle is how long an address may stay quiet before its limiter is
// dropped. It is raised to the full refill time when that is longer, so a
// dropped limiter never grants more than a kept one would.
const limiterIdle = 10 * time.Minute

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// ipLimiter throttles requests per client IP. A non-positive perMinute
// disables it.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(perMinute, burst int) *ipLimiter {
	l := &ipLimiter{
		visitors: map[string]*visitor{},
		burst:    burst,
		idle:     limiterIdle,
		now:      time.Now,
	}
	if l.burst < 1 {
		l.burst = 1
	}
	if perMinute > 0 {
		every := time.Minute / time.Duration(perMinute)
		l.limit = rate.Every(every)
		if refill := every * time.Duration(l.burst); refill > l.idle {
			l.idle = refill
		}
	}
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	if l.limit == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = now

	return v.limiter.AllowN(now, 1)
}

// sweep drops visitors idle for longer than l.idle. Callers hold l.mu.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.seen) > l.idle {
			delete(l.visitors, ip)
		}
	}
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			abortError(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
		c.Next()
	}
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
