package caparoc

import "github.com/prometheus/client_golang/prometheus"

// Parametrization outcomes reported to the Collector.
const (
	OutcomeSuccess             = "success"
	OutcomePolicyRejected      = "policy_rejected"
	OutcomeTransportFailure    = "transport_failure"
	OutcomeVerificationFailure = "verification_failure"
	OutcomeAborted             = "aborted"
)

// Collector captures telemetry emitted by the parametrization protocol.
//
// Implementations should be inexpensive to call because the hooks run
// inline with the timed lock/write/verify sequence.
type Collector interface {
	IncParametrization(outcome string)
	IncWriteRetry()
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncParametrization(string) {}
func (noopCollector) IncWriteRetry()            {}

// PrometheusCollector exposes protocol counters via Prometheus.
type PrometheusCollector struct {
	parametrizations *prometheus.CounterVec
	writeRetries     prometheus.Counter
}

// NewPrometheusCollector registers the protocol metrics with the provided
// registerer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	parametrizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caparoc_parametrization_total",
		Help: "Number of nominal current parametrization runs per outcome.",
	}, []string{"outcome"})
	if err := reg.Register(parametrizations); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			parametrizations = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	writeRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caparoc_parametrization_write_retries_total",
		Help: "Number of nominal current write attempts that had to be repeated.",
	})
	if err := reg.Register(writeRetries); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			writeRetries = already.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PrometheusCollector{
		parametrizations: parametrizations,
		writeRetries:     writeRetries,
	}, nil
}

func (p *PrometheusCollector) IncParametrization(outcome string) {
	p.parametrizations.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) IncWriteRetry() {
	p.writeRetries.Inc()
}
