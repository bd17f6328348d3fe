package internal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
)

//NewOTExporter instantiates the OpenTelemetry exporters using configuration defined in environment variables.
//The returned handler serves the Prometheus metrics.
func NewOTExporter(conf *envvar.Configuration, serviceName string) (http.Handler, error) {
	promExporter, err := prometheus.New(prometheus.WithoutUnits())
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "prometheus.New")
	}

	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(promExporter)))

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "runtime.Start")
	}

	jaegerEndpoint, err := conf.Get("JAEGER_ENDPOINT")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get JAEGER_ENDPOINT")
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}

	if jaegerEndpoint != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "jaeger.New")
		}

		opts = append(opts, sdktrace.WithBatcher(jaegerExporter))
	}

	otel.SetTracerProvider(sdktrace.NewTracerProvider(opts...))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return promhttp.Handler(), nil
}
