package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"medbook/pkg/logger"
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// ClientRateLimiter enforces a per-client token bucket keyed by remote IP.
type ClientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	log     *logger.Logger
	stopCh  chan struct{}
}

func NewClientRateLimiter(rps int, burst int, log *logger.Logger) *ClientRateLimiter {
	rl := &ClientRateLimiter{
		clients: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		log:     log,
		stopCh:  make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, entry := range rl.clients {
				if time.Since(entry.seen) > 3*time.Minute {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ClientRateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.clients[key]; ok {
		entry.seen = time.Now()
		return entry.lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.clients[key] = &limiterEntry{lim: lim, seen: time.Now()}
	return lim
}

func RateLimit(rl *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !rl.limiterFor(key).Allow() {
				rl.log.Warn("Rate limit exceeded",
					"request_id", requestIDFrom(r),
					"client", key,
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
