package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all fuel service metrics on a private registry
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database metrics
	DBOperations          *prometheus.CounterVec
	DBOperationDuration   *prometheus.HistogramVec
	DBTransactionDuration *prometheus.HistogramVec
	DBConnectionsOpen     prometheus.Gauge

	// Business metrics
	MovementsRecorded      *prometheus.CounterVec
	FuelQuantityMoved      *prometheus.CounterVec
	StockRejections        *prometheus.CounterVec
	FluctuationsRecorded   *prometheus.CounterVec
	InventoryDiscrepancies prometheus.Gauge
	ReconciliationRuns     *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig uses the "fuel" namespace
func DefaultConfig(serviceName string) *Config {
	return &Config{ServiceName: serviceName, Namespace: "fuel"}
}

var (
	latencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	dbBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
)

// New registers every collector, plus the Go and process collectors, on a fresh registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := factory{ns: config.Namespace, service: config.ServiceName, with: promauto.With(registry)}

	return &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal:    f.counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration:  f.histogram("http_request_duration_seconds", "HTTP request duration in seconds", latencyBuckets, "method", "path"),
		HTTPRequestsInFlight: f.gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),

		DBOperations:          f.counter("db_operations_total", "Statements executed, by table, operation and outcome", "table", "operation", "status"),
		DBOperationDuration:   f.histogram("db_operation_duration_seconds", "Statement duration in seconds", dbBuckets[:len(dbBuckets)-1], "table", "operation"),
		DBTransactionDuration: f.histogram("db_transaction_duration_seconds", "Unit of work duration in seconds, by name and outcome", dbBuckets, "unit", "status"),
		DBConnectionsOpen:     f.gauge("db_connections_open", "Number of open database connections"),

		MovementsRecorded:      f.counter("movements_recorded_total", "Fuel movement requests by transaction type and outcome", "transaction_type", "status"),
		FuelQuantityMoved:      f.counter("fuel_quantity_moved_total", "Quantity of fuel credited, by fuel type and destination kind", "fuel_type_id", "destination_type"),
		StockRejections:        f.counter("stock_rejections_total", "Movements rejected for insufficient stock, by source kind", "location_type"),
		FluctuationsRecorded:   f.counter("price_fluctuations_recorded_total", "Price fluctuations by classification", "fluctuation_type"),
		InventoryDiscrepancies: f.gauge("inventory_discrepancies", "Inventory keys whose stock disagreed with the movement log at the last reconciliation"),
		ReconciliationRuns:     f.counter("reconciliation_runs_total", "Reconciliation runs by outcome", "status"),

		CircuitBreakerState: f.gaugeVec("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "name"),
		CircuitBreakerTrips: f.counter("circuit_breaker_trips_total", "Times a circuit breaker opened", "name"),
	}
}

// factory prefixes every vector with a "service" label. Scalar gauges carry it as a constant label.
type factory struct {
	ns      string
	service string
	with    promauto.Factory
}

func (f factory) labels(extra []string) []string {
	return append([]string{"service"}, extra...)
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return f.with.NewCounterVec(prometheus.CounterOpts{Namespace: f.ns, Name: name, Help: help}, f.labels(labels))
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.with.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.ns, Name: name, Help: help, Buckets: buckets}, f.labels(labels))
}

func (f factory) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return f.with.NewGaugeVec(prometheus.GaugeOpts{Namespace: f.ns, Name: name, Help: help}, f.labels(labels))
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	return f.with.NewGauge(prometheus.GaugeOpts{
		Namespace:   f.ns,
		Name:        name,
		Help:        help,
		ConstLabels: prometheus.Labels{"service": f.service},
	})
}

// Handler serves the registry in text or OpenMetrics format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry lets other packages register their own collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordDBOperation records a single statement against a table
func (m *Metrics) RecordDBOperation(table, operation string, success bool, duration time.Duration) {
	m.DBOperations.WithLabelValues(m.serviceName, table, operation, outcome(success)).Inc()
	m.DBOperationDuration.WithLabelValues(m.serviceName, table, operation).Observe(duration.Seconds())
}

// RecordTransaction records a committed or rolled back unit of work
func (m *Metrics) RecordTransaction(unit string, committed bool, duration time.Duration) {
	status := "committed"
	if !committed {
		status = "rolled_back"
	}
	m.DBTransactionDuration.WithLabelValues(m.serviceName, unit, status).Observe(duration.Seconds())
}

func (m *Metrics) SetDBConnections(count int) {
	m.DBConnectionsOpen.Set(float64(count))
}

// RecordMovement records the outcome of a movement request
func (m *Metrics) RecordMovement(transactionType, status string) {
	m.MovementsRecorded.WithLabelValues(m.serviceName, transactionType, status).Inc()
}

// RecordQuantityMoved adds the quantity credited to a destination kind
func (m *Metrics) RecordQuantityMoved(fuelTypeID int64, destinationType string, quantity float64) {
	m.FuelQuantityMoved.WithLabelValues(m.serviceName, strconv.FormatInt(fuelTypeID, 10), destinationType).Add(quantity)
}

// RecordStockRejection records a movement refused for insufficient source stock
func (m *Metrics) RecordStockRejection(locationType string) {
	m.StockRejections.WithLabelValues(m.serviceName, locationType).Inc()
}

// RecordFluctuation records a price fluctuation classification
func (m *Metrics) RecordFluctuation(fluctuationType string) {
	m.FluctuationsRecorded.WithLabelValues(m.serviceName, fluctuationType).Inc()
}

// RecordReconciliation records a reconciliation run and its discrepancy count
func (m *Metrics) RecordReconciliation(success bool, discrepancies int) {
	m.ReconciliationRuns.WithLabelValues(m.serviceName, outcome(success)).Inc()
	if success {
		m.InventoryDiscrepancies.Set(float64(discrepancies))
	}
}

// SetCircuitBreakerState publishes a gobreaker.State as its integer value
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

func (m *Metrics) IncrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Inc() }
func (m *Metrics) DecrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Dec() }
