package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

// limiterPool 按 key 维护 token bucket，闲置条目定期驱逐.
type limiterPool struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	p := &limiterPool{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go p.evictLoop()

	return p
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	e, ok := p.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(p.rps, p.burst)}
		p.entries[key] = e
	}
	e.lastSeen = time.Now()
	p.mu.Unlock()

	return e.lim.Allow()
}

func (p *limiterPool) evictLoop() {
	const idleTTL = 10 * time.Minute

	ticker := time.NewTicker(idleTTL)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-idleTTL)

		p.mu.Lock()
		for k, e := range p.entries {
			if e.lastSeen.Before(cutoff) {
				delete(p.entries, k)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimitMiddleware 按配置限流，key 维度支持 global、ip 和 header:<name>.
// 主要保护批量上传接口：编辑器批量导入资产时会短时间打出大量请求.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if mode == "" || mode == "global" {
		global := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !global.Allow() {
				rejectTooMany(c)
				return
			}
			c.Next()
		}
	}

	pool := newLimiterPool(cfg.RPS, cfg.Burst)
	headerName := strings.TrimPrefix(mode, "header:")

	return func(c *gin.Context) {
		key := ""
		if strings.HasPrefix(mode, "header:") {
			key = c.GetHeader(headerName)
		}
		if key == "" {
			key = requestIP(c)
		}
		if key == "" {
			key = "unknown"
		}

		if !pool.allow(key) {
			rejectTooMany(c)
			return
		}
		c.Next()
	}
}

func rejectTooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

func requestIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
