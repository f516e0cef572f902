package translation

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/pitabwire/lingo/telemetry"
)

const instrumentationName = "github.com/pitabwire/lingo/translation"

type engineMetrics struct {
	eagerInstalls metric.Int64Counter
	lazyLoads     metric.Int64Counter
	loadedSignals metric.Int64Counter
}

func newEngineMetrics() *engineMetrics {
	return &engineMetrics{
		eagerInstalls: telemetry.DimensionlessMeasure(instrumentationName, "/eager_installs",
			"Eager bundles merged into the runtime"),
		lazyLoads: telemetry.DimensionlessMeasure(instrumentationName, "/lazy_loads",
			"Lazy language loads by outcome"),
		loadedSignals: telemetry.DimensionlessMeasure(instrumentationName, "/loaded_signals",
			"Loaded signals emitted after lazy loads"),
	}
}

// MetricViews returns the views aggregating the engine's instruments.
func MetricViews() []telemetry.View {
	views := telemetry.Views(instrumentationName)
	return append(views,
		telemetry.CounterView(instrumentationName, "/eager_installs", "Eager bundles merged into the runtime"),
		telemetry.CounterView(instrumentationName, "/lazy_loads", "Lazy language loads by outcome"),
		telemetry.CounterView(instrumentationName, "/loaded_signals", "Loaded signals emitted after lazy loads"),
	)
}

func (m *engineMetrics) eagerInstalled(ctx context.Context, namespace, lang string) {
	m.eagerInstalls.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrNamespaceKey.String(namespace),
		telemetry.AttrLanguageKey.String(lang),
	))
}

func (m *engineMetrics) lazyLoaded(ctx context.Context, namespace, lang string, err error) {
	m.lazyLoads.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrNamespaceKey.String(namespace),
		telemetry.AttrLanguageKey.String(lang),
		telemetry.AttrStatusKey.String(telemetry.ErrorCode(err)),
	))
}

func (m *engineMetrics) loaded(ctx context.Context, namespace string) {
	m.loadedSignals.Add(ctx, 1, metric.WithAttributes(telemetry.AttrNamespaceKey.String(namespace)))
}
