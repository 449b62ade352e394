package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// SheetServer stands in for the published spreadsheet export.
type SheetServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits reports how many requests reached the server.
func (s *SheetServer) Hits() int64 { return s.hits.Load() }

// NewSheetServer serves body as CSV with the given status. It is closed when
// the test ends.
func NewSheetServer(t testing.TB, status int, body string) *SheetServer {
	t.Helper()

	s := &SheetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}
