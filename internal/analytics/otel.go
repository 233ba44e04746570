package analytics

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/edumarques81/songdle/internal/version"
)

const meterName = "songdle"

// OTelConfig holds OTLP metrics exporter settings.
type OTelConfig struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// OTelTracker turns events into OpenTelemetry metrics.
type OTelTracker struct {
	provider    *sdkmetric.MeterProvider
	eventsTotal metric.Int64Counter
	gamesTotal  metric.Int64Counter
	attempts    metric.Int64Histogram
	elapsed     metric.Float64Histogram
}

// NewOTelTracker creates a tracker exporting to an OTLP gRPC collector.
func NewOTelTracker(ctx context.Context, cfg OTelConfig) (*OTelTracker, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(meterName),
			semconv.ServiceVersion(version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newOTelTracker(provider)
}

func newOTelTracker(provider *sdkmetric.MeterProvider) (*OTelTracker, error) {
	meter := provider.Meter(meterName)

	eventsTotal, err := meter.Int64Counter(
		"songdle_events_total",
		metric.WithDescription("Gameplay events by name"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	gamesTotal, err := meter.Int64Counter(
		"songdle_games_total",
		metric.WithDescription("Finished games by outcome"),
		metric.WithUnit("{game}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating games counter: %w", err)
	}

	attempts, err := meter.Int64Histogram(
		"songdle_game_attempts",
		metric.WithDescription("Attempts used per finished game"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempts histogram: %w", err)
	}

	elapsed, err := meter.Float64Histogram(
		"songdle_game_listen_seconds",
		metric.WithDescription("Listening time at the final guess"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating listen time histogram: %w", err)
	}

	return &OTelTracker{
		provider:    provider,
		eventsTotal: eventsTotal,
		gamesTotal:  gamesTotal,
		attempts:    attempts,
		elapsed:     elapsed,
	}, nil
}

func (t *OTelTracker) Track(ctx context.Context, e Event) {
	t.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event", e.Name)))

	var outcome string
	switch e.Name {
	case EventGameWon:
		outcome = "win"
	case EventGameLost:
		outcome = "lose"
	default:
		return
	}

	opt := metric.WithAttributes(attribute.String("outcome", outcome))
	t.gamesTotal.Add(ctx, 1, opt)
	if n, ok := e.Properties["attempts"].(int); ok {
		t.attempts.Record(ctx, int64(n), opt)
	}
	if s, ok := e.Properties["elapsed_time"].(string); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			t.elapsed.Record(ctx, v, opt)
		}
	}
}

// Close shuts down the provider and flushes pending metrics.
func (t *OTelTracker) Close(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
