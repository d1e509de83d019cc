package layer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "markermap/internal/layer"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	added       metric.Int64Counter
	rejected    metric.Int64Counter
	removed     metric.Int64Counter
	compactions metric.Int64Counter
	redraws     metric.Int64Counter
}

func newMetrics() *metrics {
	m := meter()
	counter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
		}
		return c
	}
	return &metrics{
		added:       counter("markermap.layer.markers.added", "Markers registered with the layer"),
		rejected:    counter("markermap.layer.markers.rejected", "Objects rejected because they are not markers"),
		removed:     counter("markermap.layer.markers.removed", "Markers removed from the layer"),
		compactions: counter("markermap.layer.geo.compactions", "Geo index rebuilds triggered by fragmentation"),
		redraws:     counter("markermap.layer.redraws", "Full redraw passes"),
	}
}

func add(c metric.Int64Counter, n int) {
	if n > 0 {
		c.Add(context.Background(), int64(n))
	}
}
