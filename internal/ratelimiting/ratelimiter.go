package ratelimiting

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// Inbound rate limiting. Outbound requests are limited by WindowLimiter.
type RateLimiter interface {
	// Consume takes cost tokens from the bucket of key. Returns false if there were not enough.
	Consume(key string, cost int) bool
}

type RefillPerSecond float64
type BurstSize int

// Idle buckets are evicted after this long. A new bucket starts full.
const bucketTTL = 30 * time.Minute

type tokenBucketRateLimiter struct {
	buckets *ttlcache.Cache[string, *rate.Limiter]
	refill  rate.Limit
	burst   int
	nowFunc func() time.Time
}

func (l *tokenBucketRateLimiter) Consume(key string, cost int) bool {
	bucket, _ := l.buckets.GetOrSetFunc(key, func() *rate.Limiter {
		return rate.NewLimiter(l.refill, l.burst)
	})
	// Requests costing more than a full bucket need a full bucket
	return bucket.Value().AllowN(l.nowFunc(), min(max(cost, 1), l.burst))
}

func NewTokenBucketRateLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize, nowFunc func() time.Time) (RateLimiter, func()) {
	buckets := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](bucketTTL),
	)
	go buckets.Start()

	return &tokenBucketRateLimiter{
		buckets: buckets,
		refill:  rate.Limit(refillPerSecond),
		burst:   int(burstSize),
		nowFunc: nowFunc,
	}, buckets.Stop
}

// RequestRateLimiter charges each request to the bucket of the client that sent it
type RequestRateLimiter interface {
	Consume(r *http.Request) bool
	KeyFor(r *http.Request) string
}

type requestBasedRateLimiter struct {
	limiter  RateLimiter
	keyFunc  func(r *http.Request) string
	costFunc func(r *http.Request) int
}

func (l *requestBasedRateLimiter) Consume(r *http.Request) bool {
	return l.limiter.Consume(l.keyFunc(r), l.costFunc(r))
}

func (l *requestBasedRateLimiter) KeyFor(r *http.Request) string {
	return l.keyFunc(r)
}

func NewRequestBasedRateLimiter(
	limiter RateLimiter,
	keyFunc func(r *http.Request) string,
	costFunc func(r *http.Request) int,
) RequestRateLimiter {
	return &requestBasedRateLimiter{
		limiter:  limiter,
		keyFunc:  keyFunc,
		costFunc: costFunc,
	}
}

func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port
		host = r.RemoteAddr
	}

	return fmt.Sprintf("ip: %s", host)
}

func UserIDKeyFunc(r *http.Request) string {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		userID = "<missing>"
	}
	return fmt.Sprintf("user-id: %.50s", userID)
}

// Symbols covered by one token
const symbolsPerToken = 10

// SymbolCost charges one token per started group of requested symbols.
// Requests without a symbols parameter cost one token.
func SymbolCost(r *http.Request) int {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		return 1
	}
	symbols := strings.Count(raw, ",") + 1
	return (symbols + symbolsPerToken - 1) / symbolsPerToken
}
