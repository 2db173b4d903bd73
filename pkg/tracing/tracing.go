// Package tracing 封装 OpenTelemetry 初始化，span 经 OTLP（http 或 grpc）导出.
//
// 用法：启动时 InitTracer，退出前 ShutdownTracer；业务代码用 StartSpan 开 span，
// 结束处 span.End().
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

var tracerProvider *sdktrace.TracerProvider

// InitTracer 按配置构建并注册全局 TracerProvider，未启用时直接返回.
func InitTracer(cfg configs.TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	ctx := context.Background()

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("build tracing resource: %w", err)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tracerProvider)

	return nil
}

func newExporter(ctx context.Context, cfg configs.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case "otlp-http":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("create otlp-http exporter: %w", err)
		}

		return exp, nil
	case "otlp-grpc":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("create otlp-grpc exporter: %w", err)
		}

		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.ExporterType)
	}
}

// ShutdownTracer 冲刷并关闭 TracerProvider.
func ShutdownTracer(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}

	return tracerProvider.Shutdown(ctx)
}

// StartSpan 用服务级 tracer 开一个 span，调用方负责 span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(configs.AppName).Start(ctx, name, opts...)
}

// GetTracer 按名字取 tracer.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
