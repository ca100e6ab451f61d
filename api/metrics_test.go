package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTaskRequestMetricsLogProducesEntryAndSpan(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetFormatter(&log.JSONFormatter{})

	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, _ := newTaskRequestMetrics(context.Background(), logger, http.MethodGet, tasksRoute)
	metrics.start = metrics.start.Add(-50 * time.Millisecond)
	metrics.ObserveStore(15 * time.Millisecond)
	metrics.ObserveEncode(5 * time.Millisecond)
	metrics.SetTasksReturned(3)

	metrics.Log(http.StatusOK, nil)

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected log entry")
	}
	if entry.Message != requestMetricsName {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Level != log.InfoLevel {
		t.Fatalf("unexpected level: %v", entry.Level)
	}
	if entry.Data["route"] != tasksRoute || entry.Data["tasks_returned"] != 3 {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
	if total, ok := entry.Data["total_ms"].(float64); !ok || total < 50 {
		t.Fatalf("expected total_ms >= 50, got %#v", entry.Data["total_ms"])
	}
	if _, ok := entry.Data["store_ms"]; !ok {
		t.Fatalf("expected store_ms field")
	}
	if traceID, ok := entry.Data["trace_id"].(string); !ok || traceID == "" {
		t.Fatalf("expected trace_id to be recorded, got %#v", entry.Data["trace_id"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET "+tasksRoute {
		t.Fatalf("unexpected span name: %s", span.Name)
	}
	attrs := attributesToMap(span.Attributes)
	if attrs["http.route"] != tasksRoute || attrs["http.method"] != http.MethodGet {
		t.Fatalf("unexpected route attributes: %#v", attrs)
	}
	if code, ok := attrs["http.status_code"].(int64); !ok || code != int64(http.StatusOK) {
		t.Fatalf("unexpected http.status_code on span: %#v", attrs["http.status_code"])
	}
	if n, ok := attrs["taskboard.tasks.returned"].(int64); !ok || n != 3 {
		t.Fatalf("unexpected tasks returned: %#v", attrs["taskboard.tasks.returned"])
	}
	if _, exists := attrs["taskboard.error_stage"]; exists {
		t.Fatalf("expected no error stage")
	}
	if span.Status.Code != codes.Ok {
		t.Fatalf("expected span status Ok, got %v", span.Status.Code)
	}
}

func TestTaskRequestMetricsLogWithErrorSetsSpanStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()

	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, _ := newTaskRequestMetrics(context.Background(), logger, http.MethodPut, taskRoute)
	metrics.SetErrorStage("storage")
	metrics.SetTaskID(knownID)
	boom := errors.New("storage failure")

	metrics.Log(http.StatusInternalServerError, boom)

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status.Code != codes.Error || span.Status.Description != boom.Error() {
		t.Fatalf("expected span status error, got %#v", span.Status)
	}
	attrs := attributesToMap(span.Attributes)
	if attrs["taskboard.error_stage"] != "storage" {
		t.Fatalf("expected error stage attribute, got %#v", attrs["taskboard.error_stage"])
	}
	if attrs["taskboard.task_id"] != knownID {
		t.Fatalf("expected task id attribute, got %#v", attrs["taskboard.task_id"])
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.ErrorLevel {
		t.Fatalf("expected error-level entry, got %#v", entry)
	}
	if entry.Data["error"] != boom.Error() || entry.Data["error_stage"] != "storage" {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
}

func TestTaskRequestMetricsClientErrorLeavesSpanUnset(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, _ := newTaskRequestMetrics(context.Background(), logger, http.MethodDelete, taskRoute)
	metrics.SetErrorStage("not_found")
	metrics.Log(http.StatusNotFound, nil)
	_ = tp.ForceFlush(context.Background())

	span := exporter.GetSpans()[0]
	if span.Status.Code != codes.Unset {
		t.Fatalf("expected unset span status for 4xx, got %v", span.Status.Code)
	}
	if hook.LastEntry().Level != log.WarnLevel {
		t.Fatalf("expected warn-level entry, got %v", hook.LastEntry().Level)
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   log.Level
	}{
		{name: "ok", status: http.StatusOK, want: log.InfoLevel},
		{name: "created", status: http.StatusCreated, want: log.InfoLevel},
		{name: "warn", status: http.StatusBadRequest, want: log.WarnLevel},
		{name: "error", status: http.StatusInternalServerError, want: log.ErrorLevel},
		{name: "errorFromErr", status: 0, err: errors.New("x"), want: log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelForStatus(tt.status, tt.err); got != tt.want {
				t.Fatalf("levelForStatus(%d, %v) = %v, want %v", tt.status, tt.err, got, tt.want)
			}
		})
	}
}

func TestHandlerEmitsSpanPerRequest(t *testing.T) {
	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	store := &mockStore{}
	serve(t, listTasks(store, quietLogger()), http.MethodGet, "/api/tasks", "")
	serve(t, deleteTask(store, quietLogger()), http.MethodDelete, "/api/tasks/bad", "", "id", "bad")
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	attrs := attributesToMap(spans[1].Attributes)
	if attrs["taskboard.error_stage"] != "validation" {
		t.Fatalf("expected validation stage on malformed id, got %#v", attrs["taskboard.error_stage"])
	}
	if code := attrs["http.status_code"]; code != int64(http.StatusBadRequest) {
		t.Fatalf("unexpected status attribute: %#v", code)
	}
}

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter, func()) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(prev)
	}
	return tp, exporter, cleanup
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}
