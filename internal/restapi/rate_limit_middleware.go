package restapi

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ctaboard.trainboard.dev/internal/models"
)

// RateLimitMiddleware limits requests per client address so a single caller
// cannot drive upstream traffic past what the cache absorbs.
type RateLimitMiddleware struct {
	limiters    map[string]*rate.Limiter
	mu          sync.Mutex
	rateLimit   rate.Limit
	burstSize   int
	trusted     []netip.Prefix
	cleanupTick *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
}

// NewRateLimitMiddleware allows ratePerInterval requests per interval per
// client, with an equal burst. X-Forwarded-For is only honoured on requests
// arriving from a trusted proxy. A non-positive rate disables limiting and
// returns nil.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, trustedProxies []netip.Prefix) *RateLimitMiddleware {
	if ratePerInterval <= 0 {
		return nil
	}

	rl := &RateLimitMiddleware{
		limiters:    make(map[string]*rate.Limiter),
		rateLimit:   rate.Every(interval / time.Duration(ratePerInterval)),
		burstSize:   ratePerInterval,
		trusted:     trustedProxies,
		cleanupTick: time.NewTicker(5 * time.Minute),
		done:        make(chan struct{}),
	}
	go rl.cleanup()

	return rl
}

func (rl *RateLimitMiddleware) getLimiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(rl.rateLimit, rl.burstSize)
		rl.limiters[client] = limiter
	}
	return limiter
}

// Handler wraps next with the limit.
func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(rl.clientAddress(r)).Allow() {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retryAfter := max(1, int(math.Round(1/float64(rl.rateLimit))))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Rate limit exceeded. Please try again later."})
}

// cleanup drops limiters that have refilled completely; they carry no state
// a fresh limiter would not.
func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.mu.Lock()
			for client, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burstSize) {
					delete(rl.limiters, client)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimitMiddleware) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		rl.cleanupTick.Stop()
		close(rl.done)
	})
}

// clientAddress is the peer address, unless the peer is a trusted proxy. Then
// X-Forwarded-For is walked from the nearest hop and the first untrusted
// address is the client.
func (rl *RateLimitMiddleware) clientAddress(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !rl.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.isTrusted(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func (rl *RateLimitMiddleware) isTrusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
