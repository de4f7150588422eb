package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"uhmwpe-mdm/api/handlers"
	"uhmwpe-mdm/core/auth"
	"uhmwpe-mdm/core/store"
)

const (
	sessionActivityInterval     = 30 * time.Second
	loginLimiterTTL             = 10 * time.Minute
	loginLimiterCleanupInterval = time.Minute
	loginLimiterMaxBuckets      = 10000
)

type requestLimiter struct {
	mu              sync.Mutex
	buckets         map[string]*tokenBucket
	capacity        int
	refill          time.Duration
	ttl             time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	maxBuckets      int
}

type tokenBucket struct {
	tokens   int
	last     time.Time
	lastSeen time.Time
}

func newLimiter(capacity int, refill time.Duration) *requestLimiter {
	return &requestLimiter{
		buckets:         make(map[string]*tokenBucket),
		capacity:        capacity,
		refill:          refill,
		ttl:             loginLimiterTTL,
		cleanupInterval: loginLimiterCleanupInterval,
		maxBuckets:      loginLimiterMaxBuckets,
	}
}

func (l *requestLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if l.cleanupInterval > 0 && now.Sub(l.lastCleanup) >= l.cleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}
	tb, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxBuckets {
			l.cleanup(now)
		}
		l.buckets[key] = &tokenBucket{tokens: l.capacity - 1, last: now, lastSeen: now}
		return true
	}
	tb.lastSeen = now
	if now.Sub(tb.last) >= l.refill {
		tb.tokens = l.capacity
		tb.last = now
	}
	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}

func (l *requestLimiter) cleanup(now time.Time) {
	for key, tb := range l.buckets {
		if now.Sub(tb.lastSeen) >= l.ttl {
			delete(l.buckets, key)
		}
	}
}

type sessionActivity struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newSessionActivity() *sessionActivity {
	return &sessionActivity{last: map[string]time.Time{}}
}

func (sa *sessionActivity) shouldUpdate(id string, now time.Time, interval time.Duration) bool {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	last, ok := sa.last[id]
	if !ok || now.Sub(last) >= interval {
		sa.last[id] = now
		return true
	}
	return false
}

func (s *Server) loginRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loginLimiter.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"message": "Too many login attempts, try again later",
			})
			return
		}
		next(w, r)
	}
}

// requireAuth resolves the session cookie to a user and slides the
// session expiry, at most once per activity interval.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(handlers.SessionCookieName)
		if err != nil || c.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "Authentication required",
			})
			return
		}
		sess, err := s.sessions.GetSession(r.Context(), c.Value)
		if err != nil {
			s.logger.Errorf("session lookup failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Internal error",
			})
			return
		}
		if sess == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "Session expired",
			})
			return
		}
		user, err := s.users.FindByID(r.Context(), sess.UserID)
		if err != nil || user == nil || !user.Active {
			if err != nil {
				s.logger.Errorf("session user lookup failed: %v", err)
			}
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "Session expired",
			})
			return
		}
		now := time.Now().UTC()
		if s.activityTracker.shouldUpdate(sess.ID, now, sessionActivityInterval) {
			if err := s.sessions.UpdateActivity(r.Context(), sess.ID, now, s.cfg.SessionTTL); err != nil {
				s.logger.Warnf("session activity update failed: %v", err)
			}
		}
		ctx := handlers.WithSessionUser(r.Context(), sessionUserOf(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission gates a route on one role/module/action triple.
func (s *Server) requirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := handlers.SessionUserFromContext(r.Context())
			if user == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"message": "Authentication required",
				})
				return
			}
			if !s.policy.Allowed(user.Role.Name, module, action) {
				writeJSON(w, http.StatusForbidden, map[string]interface{}{
					"success": false,
					"message": "Permission denied",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionUserOf(u *store.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     auth.RoleInfo{ID: u.RoleID, Name: u.RoleName},
	}
	if u.FullName != nil {
		su.FullName = *u.FullName
	}
	if u.Email != nil {
		su.Email = *u.Email
	}
	return su
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
