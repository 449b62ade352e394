package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const incomingTraceID = "105445aa7843bc8bf206b12000100000"

func tracedRouter(t *testing.T, status int) (http.Handler, *tracetest.SpanRecorder, *observer.ObservedLogs) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(TraceMiddleware(tp, "nestguard-prod"))
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/rentals", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r, spans, logs
}

func TestTraceMiddlewareContinuesIncomingTrace(t *testing.T) {
	h, spans, logs := tracedRouter(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/rentals", nil)
	req.Header.Set(CloudTraceHeader, incomingTraceID+"/12345;o=1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := rec.Header().Get(CloudTraceHeader)
	require.True(t, strings.HasPrefix(out, incomingTraceID+"/"), out)
	assert.True(t, strings.HasSuffix(out, ";o=1"), out)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /rentals", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, incomingTraceID, ended[0].SpanContext().TraceID().String())
	assert.True(t, ended[0].Parent().IsRemote())

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, incomingTraceID, fields["trace_id"])
	assert.Equal(t, "projects/nestguard-prod/traces/"+incomingTraceID, fields["logging.googleapis.com/trace"])
}

func TestTraceMiddlewareStartsRootTrace(t *testing.T) {
	h, spans, logs := tracedRouter(t, http.StatusBadGateway)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rentals", nil))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	sc := ended[0].SpanContext()
	require.True(t, sc.IsValid())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, sc.TraceID().String()+"/"+sc.SpanID().String()+";o=1", rec.Header().Get(CloudTraceHeader))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, sc.TraceID().String(), entries[0].ContextMap()["trace_id"])
}

func TestParseCloudTraceContext(t *testing.T) {
	info, sc, ok := parseCloudTraceContext(incomingTraceID + "/1;o=0")
	require.True(t, ok)
	assert.Equal(t, incomingTraceID, info.TraceID)
	assert.False(t, info.Sampled)
	assert.True(t, sc.IsRemote())

	for _, bad := range []string{"", "nope", "abc/1", incomingTraceID, incomingTraceID + "/"} {
		_, _, ok := parseCloudTraceContext(bad)
		assert.False(t, ok, bad)
	}
}

func TestTraceFieldsWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))
}
