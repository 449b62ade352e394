// Package loader turns the published listings export into rendered cards.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ZiiHuang/nestguard-website/internal/listings"
	"github.com/ZiiHuang/nestguard-website/internal/observability"
	"github.com/ZiiHuang/nestguard-website/internal/sheet"
	"github.com/ZiiHuang/nestguard-website/internal/source"
)

// FailureMessage replaces the grid contents when listings cannot be loaded.
const FailureMessage = "We couldn’t load the current rentals. Please try again later."

// GridID is the DOM id of the listings container.
const GridID = "rentals_grid"

// Format selects the export parser.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const instrumentationName = "github.com/ZiiHuang/nestguard-website/internal/loader"

var errPanic = errors.New("loader: panic while loading listings")

// Grid is the listings container. It holds either cards or a single message.
type Grid struct {
	Cards   []listings.Card
	Message string
}

// NewGrid returns an empty container.
func NewGrid() *Grid {
	return &Grid{}
}

// Reset removes every child of the container.
func (g *Grid) Reset() {
	g.Cards = nil
	g.Message = ""
}

// Append adds one card after the existing ones.
func (g *Grid) Append(card listings.Card) {
	g.Cards = append(g.Cards, card)
}

// ShowMessage replaces the contents with a single paragraph of text.
func (g *Grid) ShowMessage(msg string) {
	g.Reset()
	g.Message = msg
}

// Loader fetches, parses, filters and renders listings.
type Loader struct {
	src    source.Source
	format Format
	opts   listings.Options

	tracer trace.Tracer
	loads  metric.Int64Counter
}

// Option customises a Loader.
type Option func(*loaderConfig)

type loaderConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *loaderConfig) { c.tracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *loaderConfig) { c.meterProvider = mp }
}

// New builds a Loader. An empty format means CSV.
func New(src source.Source, format Format, opts listings.Options, options ...Option) *Loader {
	if format == "" {
		format = FormatCSV
	}
	cfg := loaderConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	loads, err := cfg.meterProvider.Meter(instrumentationName).Int64Counter(
		"rentals.loads",
		metric.WithDescription("Listings grid loads by outcome"),
	)
	if err != nil {
		otel.Handle(fmt.Errorf("loader: create rentals.loads counter: %w", err))
		loads = noop.Int64Counter{}
	}
	return &Loader{
		src:    src,
		format: format,
		opts:   opts,
		tracer: cfg.tracerProvider.Tracer(instrumentationName),
		loads:  loads,
	}
}

// Load fills grid with one card per active row. On any failure the grid ends
// up holding only FailureMessage and the cause is logged. A nil grid is a
// no-op.
func (l *Loader) Load(ctx context.Context, grid *Grid) {
	if grid == nil {
		return
	}
	ctx, span := l.startSpan(ctx, "rentals.load")
	defer span.End()

	cards, err := l.cards(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load listings")
		fields := append([]zap.Field{zap.Error(err)}, observability.TraceFields(ctx)...)
		observability.FromContext(ctx).Error("failed to load rentals", fields...)
		grid.ShowMessage(FailureMessage)
		l.count(ctx, "error")
		return
	}
	l.count(ctx, "ok")

	grid.Reset()
	for _, card := range cards {
		grid.Append(card)
	}
}

// Listings returns the active rows in input order.
func (l *Loader) Listings(ctx context.Context) ([]listings.Listing, error) {
	ctx, span := l.startSpan(ctx, "rentals.listings")
	defer span.End()

	rows, err := l.activeRows(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load listings")
		return nil, err
	}
	out := make([]listings.Listing, 0, len(rows))
	for _, row := range rows {
		out = append(out, listings.ToListing(row))
	}
	return out, nil
}

func (l *Loader) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if l == nil || l.tracer == nil {
		return otel.Tracer(instrumentationName).Start(ctx, name)
	}
	return l.tracer.Start(ctx, name)
}

func (l *Loader) count(ctx context.Context, outcome string) {
	if l == nil || l.loads == nil {
		return
	}
	l.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (l *Loader) cards(ctx context.Context) (cards []listings.Card, err error) {
	defer func() {
		if r := recover(); r != nil {
			cards = nil
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	rows, err := l.activeRows(ctx)
	if err != nil {
		return nil, err
	}
	return listings.BuildCards(rows, l.opts), nil
}

func (l *Loader) activeRows(ctx context.Context) ([]sheet.Row, error) {
	if l == nil || l.src == nil {
		return nil, errors.New("loader: no source configured")
	}
	body, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := l.parse(body)
	if err != nil {
		return nil, err
	}
	active := listings.Active(rows)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("rentals.rows", len(rows)),
		attribute.Int("rentals.active", len(active)),
	)
	return active, nil
}

func (l *Loader) parse(body []byte) ([]sheet.Row, error) {
	switch l.format {
	case FormatXLSX:
		rows, err := sheet.ParseXLSX(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("loader: parse xlsx: %w", err)
		}
		return rows, nil
	default:
		return sheet.ParseCSV(string(body)), nil
	}
}
