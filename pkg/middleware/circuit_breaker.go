package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

var errServerStatus = errors.New("upstream handler returned 5xx")

// CircuitBreakerMiddleware 基于 gobreaker 的熔断.
// 下游（记录库、对象存储、队列）持续不可用时快速失败，避免编辑器请求堆积.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "assetsrv-http",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	})

	return func(c *gin.Context) {
		_, err := cb.Execute(func() (any, error) {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerStatus
			}

			return nil, nil
		})

		// Execute 拒绝时 handler 没跑，必须在这里应答
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "service temporarily unavailable"})
		}
	}
}
