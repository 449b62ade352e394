package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerLogsCompletion(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Get("/rentals", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/rentals", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "inside", entries[0].Message)
	done := entries[1]
	assert.Equal(t, "request completed", done.Message)
	assert.Equal(t, zap.WarnLevel, done.Level)
	ctx := done.ContextMap()
	assert.EqualValues(t, http.StatusTeapot, ctx["status"])
	assert.Equal(t, "/rentals", ctx["route"])
	assert.Equal(t, true, ctx["htmx"])
}

func TestRecovererAnswers500(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	assert.Same(t, noopLogger, FromContext(context.Background()))
	logger, err := NewLogger("not-a-level")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "ab", sanitize("a\nb", 10))
	assert.Equal(t, "abc", sanitize("abcdef", 3))
}
