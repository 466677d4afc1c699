package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"shop/internal/models"
)

// InitMeterProvider wires an OTel MeterProvider to a dedicated Prometheus registry.
// It returns the /metrics handler and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), mp.Shutdown, nil
}

// ShopMetrics holds the business counters. A nil *ShopMetrics records nothing.
type ShopMetrics struct {
	ordersCreated    metric.Int64Counter
	checkoutFailures metric.Int64Counter
	revenue          metric.Float64Counter
	statusChanges    metric.Int64Counter
}

// NewShopMetrics registers the shop instruments on meter.
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	ordersCreated, err := meter.Int64Counter("shop.orders.created",
		metric.WithDescription("Orders created by checkout"))
	if err != nil {
		return nil, err
	}
	checkoutFailures, err := meter.Int64Counter("shop.checkout.failures",
		metric.WithDescription("Rejected or failed checkouts"))
	if err != nil {
		return nil, err
	}
	revenue, err := meter.Float64Counter("shop.orders.revenue",
		metric.WithDescription("Sum of order totals at creation"))
	if err != nil {
		return nil, err
	}
	statusChanges, err := meter.Int64Counter("shop.orders.status_changes",
		metric.WithDescription("Order status updates by admins"))
	if err != nil {
		return nil, err
	}
	return &ShopMetrics{
		ordersCreated:    ordersCreated,
		checkoutFailures: checkoutFailures,
		revenue:          revenue,
		statusChanges:    statusChanges,
	}, nil
}

// OrderCreated counts one order and adds its total to revenue.
func (m *ShopMetrics) OrderCreated(ctx context.Context, order *models.Order) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
	m.revenue.Add(ctx, order.Total.InexactFloat64())
}

// CheckoutFailed counts a failed checkout by reason.
func (m *ShopMetrics) CheckoutFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.checkoutFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// StatusChanged counts a status update by target status.
func (m *ShopMetrics) StatusChanged(ctx context.Context, status models.OrderStatus) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}
