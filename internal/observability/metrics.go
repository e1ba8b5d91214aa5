package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "github.com/testudy/rebase"

// ModalMetrics counts modal lifecycle events and live playground sessions.
// A nil *ModalMetrics records nothing.
type ModalMetrics struct {
	events          metric.Int64Counter
	eventsEnabled   bool
	sessions        metric.Int64UpDownCounter
	sessionsEnabled bool
	ended           metric.Int64Counter
	endedEnabled    bool
}

// NewModalMetrics registers the instruments on meter, falling back to the
// global meter provider. Registration failures disable the instrument and
// are logged.
func NewModalMetrics(meter metric.Meter, logger *zap.Logger) *ModalMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	m := &ModalMetrics{}
	var err error

	m.events, err = meter.Int64Counter(
		"modal.events",
		metric.WithDescription("Count of modal lifecycle events by name"),
	)
	if err != nil {
		logger.Warn("observability: unable to register modal event metric", zap.Error(err))
	}
	m.eventsEnabled = err == nil

	m.sessions, err = meter.Int64UpDownCounter(
		"playground.sessions.active",
		metric.WithDescription("Number of live playground sessions"),
	)
	if err != nil {
		logger.Warn("observability: unable to register session gauge", zap.Error(err))
	}
	m.sessionsEnabled = err == nil

	m.ended, err = meter.Int64Counter(
		"playground.sessions.ended",
		metric.WithDescription("Count of ended playground sessions by reason"),
	)
	if err != nil {
		logger.Warn("observability: unable to register session end metric", zap.Error(err))
	}
	m.endedEnabled = err == nil

	return m
}

// RecordEvent counts one dispatched lifecycle event.
func (m *ModalMetrics) RecordEvent(ctx context.Context, event string, cancelled bool) {
	if m == nil || !m.eventsEnabled {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.Bool("cancelled", cancelled),
	))
}

// SessionStarted increments the live session count.
func (m *ModalMetrics) SessionStarted(ctx context.Context) {
	if m == nil || !m.sessionsEnabled {
		return
	}
	m.sessions.Add(ctx, 1)
}

// SessionEnded decrements the live session count and records why it ended.
func (m *ModalMetrics) SessionEnded(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	if m.sessionsEnabled {
		m.sessions.Add(ctx, -1)
	}
	if m.endedEnabled {
		m.ended.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
