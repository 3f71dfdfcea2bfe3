package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds one token bucket per client IP
type RateLimiter struct {
	mu sync.Mutex
	// Map IP addresses to rate limiters
	ips map[string]*IPRateLimiter
	// Rate at which tokens are regenerated
	rate rate.Limit
	// Burst of requests allowed
	burst int
}

// IPRateLimiter holds the limiter for each IP
type IPRateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		ips:   make(map[string]*IPRateLimiter),
		rate:  r,
		burst: burst,
	}
}

// GetIP returns the rate limiter for an IP address, creating it when needed
func (rl *RateLimiter) GetIP(ip string) *IPRateLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.ips[ip]
	if !exists {
		limiter = &IPRateLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.ips[ip] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter
}

// Allow reports whether ip may make a request of the given cost now
func (rl *RateLimiter) Allow(ip string, cost int) bool {
	return rl.GetIP(ip).limiter.AllowN(time.Now(), cost)
}

// Cleanup drops limiters idle for longer than maxIdle
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, limiter := range rl.ips {
		if time.Since(limiter.lastSeen) > maxIdle {
			delete(rl.ips, ip)
		}
	}
}

// RateLimitMiddleware returns a rate limiting middleware. Idle clients are
// forgotten until ctx is done. trustProxy keys clients by forwarding headers.
func RateLimitMiddleware(ctx context.Context, r rate.Limit, burst int, trustProxy bool) mux.MiddlewareFunc {
	rateLimiter := NewRateLimiter(r, burst)

	// Clean up inactive IPs every 5 minutes
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimiter.Cleanup(30 * time.Minute)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Login attempts cost more to slow down password guessing
			cost := 1
			if strings.HasPrefix(r.URL.Path, "/login") && r.Method == http.MethodPost {
				cost = min(5, burst)
			}

			if !rateLimiter.Allow(getIP(r, trustProxy), cost) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getIP returns the client address. Forwarding headers are only honoured
// behind a trusted reverse proxy, otherwise any client could pick its own key.
func getIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// Take the first IP if multiple are provided
			ips := strings.Split(forwarded, ",")
			return strings.TrimSpace(ips[0])
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// InputValidationMiddleware validates input data
func InputValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Add security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")

		// For POST requests, validate content type
		if r.Method == http.MethodPost {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") &&
				!strings.HasPrefix(contentType, "multipart/form-data") &&
				!strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
				http.Error(w, "Invalid content type", http.StatusBadRequest)
				return
			}
		}

		// Validate paths to prevent path traversal
		if strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.Path, "/.") {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request
func LoggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Debug("http request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
