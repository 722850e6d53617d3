package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments. All record methods are
// nil-safe so tests can run without a provider.
type Metrics struct {
	dispensersRegistered metric.Int64Counter
	tapsOpened           metric.Int64Counter
	tapsClosed           metric.Int64Counter
	revenue              metric.Float64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tapflow"
	}
	meter := provider.Meter(name)

	dispensersRegistered, err := meter.Int64Counter("tapflow_dispensers_registered_total")
	if err != nil {
		return nil, err
	}
	tapsOpened, err := meter.Int64Counter("tapflow_taps_opened_total")
	if err != nil {
		return nil, err
	}
	tapsClosed, err := meter.Int64Counter("tapflow_taps_closed_total")
	if err != nil {
		return nil, err
	}
	revenue, err := meter.Float64Counter("tapflow_revenue_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		dispensersRegistered: dispensersRegistered,
		tapsOpened:           tapsOpened,
		tapsClosed:           tapsClosed,
		revenue:              revenue,
	}, nil
}

// RecordDispenserRegistered increments the registration count.
func (m *Metrics) RecordDispenserRegistered(ctx context.Context) {
	if m == nil {
		return
	}
	m.dispensersRegistered.Add(ctx, 1)
}

// RecordTapOpened increments the open-transition count.
func (m *Metrics) RecordTapOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.tapsOpened.Add(ctx, 1)
}

// RecordTapClosed increments the close-transition count and accumulates
// billed revenue.
func (m *Metrics) RecordTapClosed(ctx context.Context, revenue float64) {
	if m == nil {
		return
	}
	m.tapsClosed.Add(ctx, 1)
	if revenue > 0 {
		m.revenue.Add(ctx, revenue)
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
