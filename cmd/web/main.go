package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ZiiHuang/nestguard-website/internal/config"
	"github.com/ZiiHuang/nestguard-website/internal/listings"
	"github.com/ZiiHuang/nestguard-website/internal/loader"
	mw "github.com/ZiiHuang/nestguard-website/internal/middleware"
	"github.com/ZiiHuang/nestguard-website/internal/observability"
	"github.com/ZiiHuang/nestguard-website/internal/source"
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	contentDir   = "content"
	// devMode reparses templates on every request.
	devMode   bool
	tmplCache *template.Template

	rentals  *loader.Loader
	cardOpts listings.Options
)

func main() {
	var (
		addr     string
		tmplPath string
		pubPath  string
		copyPath string
		envFile  string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (defaults to :$RENTALS_PORT)")
	flag.StringVar(&tmplPath, "templates", "", "templates directory")
	flag.StringVar(&pubPath, "public", "", "public assets directory")
	flag.StringVar(&copyPath, "content", "", "markdown content directory")
	flag.StringVar(&envFile, "env-file", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	templatesDir = firstNonEmpty(tmplPath, cfg.Site.TemplatesDir)
	publicDir = firstNonEmpty(pubPath, cfg.Site.PublicDir)
	contentDir = firstNonEmpty(copyPath, cfg.Site.ContentDir)
	addr = firstNonEmpty(addr, cfg.Addr())
	devMode = cfg.Dev

	if !devMode {
		tc, err := parseTemplates()
		if err != nil {
			logger.Fatal("parse templates", zap.Error(err))
		}
		tmplCache = tc
	}

	tp := observability.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown tracer provider", zap.Error(err))
		}
	}()
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("opentelemetry", zap.Error(err))
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := newSource(ctx, cfg.Sheet)
	if err != nil {
		logger.Fatal("init listings source", zap.Error(err))
	}
	defer func() {
		if err := closeSource(); err != nil {
			logger.Warn("close listings source", zap.Error(err))
		}
	}()

	cardOpts = listings.Options{Placeholder: cfg.Site.Placeholder}
	rentals = loader.New(
		source.WithTimeout(src, cfg.Sheet.FetchTimeout),
		loader.Format(cfg.Sheet.ResolvedFormat()),
		cardOpts,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(logger, tp, cfg.ProjectID),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", addr),
			zap.Bool("dev_mode", devMode),
			zap.String("sheet_format", cfg.Sheet.ResolvedFormat()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", zap.Error(err))
		}
		logger.Info("web stopped")
	}
}

func newRouter(logger *zap.Logger, tp trace.TracerProvider, projectID string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; run behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware(tp, projectID))
	r.Use(observability.RequestLogger(logger))
	r.Use(mw.HTMX)
	r.Use(observability.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/assets/*", mw.AssetsWithCache("/assets", filepath.Join(publicDir, "assets")))

	r.Get("/", HomeHandler)
	r.Get("/rentals", RentalsFrag)
	r.Get("/rentals/carousel", CarouselFrag)
	r.Get("/rentals.json", RentalsJSON)
	return r
}

func newSource(ctx context.Context, cfg config.SheetConfig) (source.Source, func() error, error) {
	noop := func() error { return nil }
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, noop, fmt.Errorf("parse sheet url: %w", err)
	}
	if u.Scheme != "gs" {
		return source.NewHTTP(cfg.URL, nil), noop, nil
	}
	reader, closeFn, err := source.NewStorageReader(ctx, cfg.Anonymous)
	if err != nil {
		return nil, noop, err
	}
	src, err := source.NewGCS(reader, cfg.URL)
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return src, closeFn, nil
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": time.Now,
	}
	// ParseGlob doesn't support **, so walk the tree.
	var files []string
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func templates() (*template.Template, error) {
	if devMode {
		return parseTemplates()
	}
	if tmplCache == nil {
		return nil, errors.New("template not initialized")
	}
	return tmplCache, nil
}

// renderPage executes the page template "page_<name>", which wraps itself in
// the base layout.
func renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, err := templates()
	if err != nil {
		templateError(w, r, "template parse error", err)
		return
	}
	w.Header().Set("Vary", "HX-Request")
	execute(w, r, t, "page_"+name, data)
}

// renderTemplate executes a single named template, used for htmx fragments.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, err := templates()
	if err != nil {
		templateError(w, r, "template parse error", err)
		return
	}
	execute(w, r, t, name, data)
}

func execute(w http.ResponseWriter, r *http.Request, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		templateError(w, r, "template exec error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func templateError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.FromContext(r.Context()).Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
