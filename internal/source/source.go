// Package source fetches the published listings export from where it lives.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxBody = 16 << 20

var tracer = otel.Tracer("github.com/ZiiHuang/nestguard-website/internal/source")

// ErrTooLarge reports an export larger than the read limit.
var ErrTooLarge = errors.New("source: export exceeds size limit")

// ErrStatus marks a non-success upstream response.
var ErrStatus = errors.New("source: unexpected upstream status")

// StatusError carries the upstream status code.
type StatusError struct {
	Code int
	URL  string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("source: %s returned HTTP %d", e.URL, e.Code)
}

// Is lets errors.Is match ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Source yields the raw bytes of the spreadsheet export.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTP fetches the export with a single GET that bypasses caches.
type HTTP struct {
	url   string
	http  *http.Client
	limit int64
}

// NewHTTP builds an HTTP source. A nil client uses a client without a timeout;
// the caller's context bounds the request.
func NewHTTP(rawURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{url: strings.TrimSpace(rawURL), http: client, limit: maxBody}
}

// URL reports the configured export address.
func (s *HTTP) URL() string { return s.url }

// Fetch issues the GET and returns the body of a 2xx response.
func (s *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "source.http.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url.full", redactQuery(s.url)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;q=0.9, */*;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("source: fetch: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, URL: redactQuery(s.url)}
	}
	body, err := readLimited(resp.Body, s.limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("source: read body: %w", err)
	}
	return body, nil
}

// readLimited reads r fully and fails rather than truncating past limit.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return body, nil
}

// WithTimeout bounds every fetch of src by d. A non-positive d returns src.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return timeoutSource{src: src, d: d}
}

type timeoutSource struct {
	src Source
	d   time.Duration
}

func (t timeoutSource) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.src.Fetch(ctx)
}

// Func adapts a plain function to Source.
type Func func(context.Context) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// redactQuery keeps published-sheet tokens out of logs and spans.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
