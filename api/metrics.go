package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "taskboard.api"
	requestMetricsName = "tasks.request.metrics"
)

// taskRequestMetrics collects timings for one /api/tasks request and emits
// them as a log entry and a span when the request completes.
type taskRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	route          string
	method         string
	start          time.Time
	storeDuration  time.Duration
	encodeDuration time.Duration
	taskID         string
	tasksReturned  int
	errorStage     string
}

func newTaskRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*taskRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.route", route),
			attribute.String("http.method", method),
		),
	)
	return &taskRequestMetrics{
		logger:        logger,
		span:          span,
		route:         route,
		method:        method,
		start:         time.Now(),
		tasksReturned: -1,
	}, spanCtx
}

func (m *taskRequestMetrics) ObserveStore(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storeDuration = duration
}

func (m *taskRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *taskRequestMetrics) SetTaskID(id string) {
	m.taskID = id
}

func (m *taskRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *taskRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log writes the metrics entry and ends the span.
func (m *taskRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)

	if m.span != nil {
		attrs := []attribute.KeyValue{
			attribute.Int("http.status_code", status),
			attribute.Float64("taskboard.total_ms", durationToMillis(total)),
		}
		if m.tasksReturned >= 0 {
			attrs = append(attrs, attribute.Int("taskboard.tasks.returned", m.tasksReturned))
		}
		if m.taskID != "" {
			attrs = append(attrs, attribute.String("taskboard.task_id", m.taskID))
		}
		if m.errorStage != "" {
			attrs = append(attrs, attribute.String("taskboard.error_stage", m.errorStage))
		}
		m.span.SetAttributes(attrs...)
		switch {
		case status >= http.StatusInternalServerError:
			desc := http.StatusText(status)
			if err != nil {
				desc = err.Error()
				m.span.RecordError(err)
			}
			m.span.SetStatus(codes.Error, desc)
		case status < http.StatusBadRequest && err == nil:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":    m.route,
		"method":   m.method,
		"status":   status,
		"total_ms": durationToMillis(total),
	}
	if m.storeDuration > 0 {
		fields["store_ms"] = durationToMillis(m.storeDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.tasksReturned >= 0 {
		fields["tasks_returned"] = m.tasksReturned
	}
	if m.taskID != "" {
		fields["task_id"] = m.taskID
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}

	m.logger.WithFields(fields).Log(levelForStatus(status, err), requestMetricsName)
}

func levelForStatus(status int, err error) log.Level {
	switch {
	case status >= http.StatusInternalServerError || (status == 0 && err != nil):
		return log.ErrorLevel
	case status >= http.StatusBadRequest:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
