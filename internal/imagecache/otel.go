package imagecache

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "markermap/internal/imagecache"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	loads    metric.Int64Counter
	failures metric.Int64Counter
}

func newMetrics() *metrics {
	m := meter()
	var err error
	out := &metrics{}
	out.loads, err = m.Int64Counter(
		"markermap.imagecache.loads",
		metric.WithDescription("Icon loads started"),
	)
	if err != nil {
		out.loads, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("loads")
	}
	out.failures, err = m.Int64Counter(
		"markermap.imagecache.failures",
		metric.WithDescription("Icon loads that failed"),
	)
	if err != nil {
		out.failures, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("failures")
	}
	return out
}

func (m *metrics) started(rawURL string) {
	m.loads.Add(context.Background(), 1, metric.WithAttributes(schemeAttr(rawURL)))
}

func (m *metrics) failed(rawURL string) {
	m.failures.Add(context.Background(), 1, metric.WithAttributes(schemeAttr(rawURL)))
}

func schemeAttr(rawURL string) attribute.KeyValue {
	scheme := "file"
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	return attribute.String("scheme", scheme)
}
