package admission

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

const userAgentPrefix = 50

var fallbackLimit = config.RateLimit{Window: time.Minute, Max: 100}

type window struct {
	start time.Time
	count int
	limit config.RateLimit
}

func (w *window) resetAt() time.Time { return w.start.Add(w.limit.Window) }

// Decision is returned for admitted requests.
type Decision struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Controller counts requests per (fingerprint, method, route) in fixed
// windows and escalates abusive fingerprints to a block list. Both caches
// are capacity bounded; the least recently used entry is evicted first.
type Controller struct {
	mu       sync.Mutex
	windows  *lru.Cache[string, *window]
	blocked  *lru.Cache[string, time.Time]
	defaults map[string]config.RateLimit
	routes   map[string]config.RateLimit
	blockFor time.Duration
	now      func() time.Time
	metrics  *metrics.AdmissionMetrics
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.AdmissionMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func NewController(cfg config.Admission, opts ...Option) (*Controller, error) {
	capacity := cfg.MaxClients
	if capacity <= 0 {
		capacity = 10000
	}
	windows, err := lru.New[string, *window](capacity)
	if err != nil {
		return nil, fmt.Errorf("window cache: %w", err)
	}
	blocked, err := lru.New[string, time.Time](capacity)
	if err != nil {
		return nil, fmt.Errorf("block list: %w", err)
	}

	c := &Controller{
		windows:  windows,
		blocked:  blocked,
		defaults: cfg.Defaults,
		routes:   cfg.Routes,
		blockFor: cfg.BlockDuration,
		now:      time.Now,
	}
	if c.defaults == nil {
		c.defaults = config.DefaultMethodLimits()
	}
	if c.routes == nil {
		c.routes = config.DefaultRouteLimits()
	}
	if c.blockFor <= 0 {
		c.blockFor = time.Hour
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LimitFor resolves the route override first, then the method default.
func (c *Controller) LimitFor(method, route string) config.RateLimit {
	if l, ok := c.routes[method+" "+route]; ok {
		return l
	}
	if l, ok := c.defaults[method]; ok {
		return l
	}
	if l, ok := c.defaults[http.MethodGet]; ok {
		return l
	}
	return fallbackLimit
}

// Allow admits or rejects one request. Rejections are *domain.AdmissionError
// with code BLOCKED or RATE_LIMIT_EXCEEDED.
func (c *Controller) Allow(fingerprint, method, route string) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if until, ok := c.blocked.Peek(fingerprint); ok {
		if now.Before(until) {
			c.record(route, "blocked")
			return Decision{}, &domain.AdmissionError{
				Code:       domain.CodeBlocked,
				Message:    "client blocked for abuse",
				RetryAfter: until.Sub(now),
			}
		}
		c.blocked.Remove(fingerprint)
	}

	c.sweep(now)

	limit := c.LimitFor(method, route)
	key := fingerprint + "|" + method + "|" + route

	w, ok := c.windows.Get(key)
	if !ok || !now.Before(w.resetAt()) {
		w = &window{start: now, limit: limit}
		c.windows.Add(key, w)
	}
	w.count++

	if w.count > limit.Max {
		if w.count > 2*limit.Max {
			c.blocked.Add(fingerprint, now.Add(c.blockFor))
		}
		c.record(route, "limited")
		return Decision{}, &domain.AdmissionError{
			Code:       domain.CodeRateLimitExceeded,
			Message:    "too many requests, try again later",
			RetryAfter: w.resetAt().Sub(now),
		}
	}

	c.record(route, "allowed")
	return Decision{
		Limit:     limit.Max,
		Remaining: limit.Max - w.count,
		Reset:     w.resetAt(),
	}, nil
}

// sweep drops windows and blocks that have run out.
func (c *Controller) sweep(now time.Time) {
	for _, key := range c.windows.Keys() {
		if w, ok := c.windows.Peek(key); ok && !now.Before(w.resetAt()) {
			c.windows.Remove(key)
		}
	}
	for _, fp := range c.blocked.Keys() {
		if until, ok := c.blocked.Peek(fp); ok && !now.Before(until) {
			c.blocked.Remove(fp)
		}
	}
}

func (c *Controller) IsBlocked(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.blocked.Peek(fingerprint)
	return ok && c.now().Before(until)
}

// Len returns the number of live windows and blocked fingerprints.
func (c *Controller) Len() (windows, blocked int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.windows.Len(), c.blocked.Len()
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windows.Purge()
	c.blocked.Purge()
	c.updateGauges()
}

func (c *Controller) record(route, result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.DecisionsTotal.WithLabelValues(route, result).Inc()
	c.updateGauges()
}

func (c *Controller) updateGauges() {
	if c.metrics == nil {
		return
	}
	c.metrics.BlockedClients.Set(float64(c.blocked.Len()))
	c.metrics.TrackedWindows.Set(float64(c.windows.Len()))
}

// Fingerprint identifies a client by the first forwarded address (or the
// real-ip header, or the peer address) and a user agent prefix.
func Fingerprint(r *http.Request) string {
	ip := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip == "" {
		ip = strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	if ip == "" && r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	if ip == "" {
		ip = "unknown"
	}

	ua := r.UserAgent()
	if ua == "" {
		ua = "unknown"
	}
	if runes := []rune(ua); len(runes) > userAgentPrefix {
		ua = string(runes[:userAgentPrefix])
	}
	return ip + "-" + ua
}
