// Package metrics 暴露 Prometheus 指标：HTTP 层请求量/时延，构建管线按阶段与结果分桶的作业量.
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof handler 到 DefaultServeMux
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

const namespace = "assetsrv"

var (
	// RequestCounter HTTP 请求计数，endpoint 用路由模板.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and route",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP 请求时延.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// JobCounter 构建作业计数.
	// outcome 取 committed / discarded / failed / redelivered.
	JobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_jobs_total",
			Help:      "Build jobs by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// JobDuration 构建作业耗时，解码大图和平台压缩都可能到秒级，桶放宽到指数分布.
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_job_duration_seconds",
			Help:      "Build job duration by stage",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"stage"},
	)

	registry     = prometheus.NewRegistry()
	registerOnce sync.Once
)

// InitMetrics 注册全部指标，Enabled 为假时整个包退化为空操作.
func InitMetrics(cfg configs.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	registerOnce.Do(func() {
		if cfg.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(RequestCounter, RequestDuration, JobCounter, JobDuration)
	})

	return nil
}

// StartMetricsServer 把 /metrics（和可选的 pprof）挂到给定 engine 上.
func StartMetricsServer(cfg configs.MetricsConfig, engine *gin.Engine) error {
	if !cfg.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if cfg.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 返回注册表，供 GORM/watermill 的指标插件共用.
func GetRegistry() *prometheus.Registry {
	return registry
}
