package observability

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CloudTraceHeader carries the Cloud Trace context on requests and responses.
const CloudTraceHeader = "X-Cloud-Trace-Context"

const traceContextKey contextKey = "github.com/ZiiHuang/nestguard-website/internal/observability/trace"

// TraceInfo is the trace metadata stored on the request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithTrace stores trace metadata on ctx.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(ctx, traceContextKey, info)
}

// TraceFromContext returns the trace metadata stored by TraceMiddleware.
func TraceFromContext(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// NewTracerProvider builds an SDK tracer provider that honours the caller's
// sampling decision and samples root spans. Extra options such as span
// processors are appended.
func NewTracerProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

// TraceMiddleware extracts Cloud Trace headers, starts a server span, and
// stores trace metadata on the request context.
func TraceMiddleware(tp trace.TracerProvider, projectID string) func(http.Handler) http.Handler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer("github.com/ZiiHuang/nestguard-website/internal/observability")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			info, remote, ok := parseCloudTraceContext(r.Header.Get(CloudTraceHeader))
			if ok {
				ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			span.SetAttributes(standardSpanAttributes(r)...)

			sc := span.SpanContext()
			if sc.IsValid() {
				info.TraceID = sc.TraceID().String()
				info.SpanID = sc.SpanID().String()
				info.Sampled = sc.IsSampled()
			}
			info.ProjectID = projectID

			if formatted := formatCloudTraceHeader(info); formatted != "" {
				w.Header().Set(CloudTraceHeader, formatted)
			}
			next.ServeHTTP(w, r.WithContext(WithTrace(ctx, info)))
		})
	}
}

func parseCloudTraceContext(header string) (TraceInfo, trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	traceHex, rest, found := strings.Cut(header, "/")
	if !found || len(traceHex) != 32 {
		return TraceInfo{}, trace.SpanContext{}, false
	}
	traceID, err := trace.TraceIDFromHex(traceHex)
	if err != nil {
		return TraceInfo{}, trace.SpanContext{}, false
	}

	spanPart, options, _ := strings.Cut(rest, ";")
	spanID, ok := parseSpanID(spanPart)
	if !ok {
		return TraceInfo{}, trace.SpanContext{}, false
	}

	sampled := strings.TrimSpace(options) == "o=1"
	flags := trace.TraceFlags(0)
	if sampled {
		flags = trace.FlagsSampled
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	return TraceInfo{TraceID: traceID.String(), SpanID: spanID.String(), Sampled: sampled}, sc, true
}

// parseSpanID accepts hex span ids and the decimal form Cloud Trace sends.
func parseSpanID(value string) (trace.SpanID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return trace.SpanID{}, false
	}
	if len(value) <= 16 && isHex(value) {
		if id, err := trace.SpanIDFromHex(strings.Repeat("0", 16-len(value)) + value); err == nil {
			return id, true
		}
	}
	if num, err := strconv.ParseUint(value, 10, 64); err == nil && num != 0 {
		var id trace.SpanID
		binary.BigEndian.PutUint64(id[:], num)
		return id, true
	}
	return trace.SpanID{}, false
}

func isHex(value string) bool {
	_, err := hex.DecodeString(value)
	return err == nil
}

func formatCloudTraceHeader(info TraceInfo) string {
	if info.TraceID == "" || info.SpanID == "" {
		return ""
	}
	option := "0"
	if info.Sampled {
		option = "1"
	}
	return fmt.Sprintf("%s/%s;o=%s", info.TraceID, info.SpanID, option)
}

func loggingTraceResource(info TraceInfo) string {
	if info.ProjectID == "" || info.TraceID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", info.ProjectID, info.TraceID)
}

func standardSpanAttributes(r *http.Request) []attribute.KeyValue {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", r.Method),
		attribute.String("url.scheme", scheme),
		attribute.String("url.path", r.URL.Path),
	}
	if host := r.Host; host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}
	return attrs
}

// TraceFields returns the zap fields linking a log entry to the span on ctx.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	fields := []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
	if info, ok := TraceFromContext(ctx); ok {
		info.TraceID = sc.TraceID().String()
		if res := loggingTraceResource(info); res != "" {
			fields = append(fields, zap.String("logging.googleapis.com/trace", res))
		}
	}
	return fields
}
