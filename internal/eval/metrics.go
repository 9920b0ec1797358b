package eval

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus counters an Evaluator updates.
type Metrics struct {
	Samples          *prometheus.CounterVec
	Calls            prometheus.Counter
	Hallucinated     prometheus.Counter
	InvalidArguments prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg. A nil reg
// leaves them unregistered, which tests use to read values directly.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "iql",
				Name:      "samples_total",
				Help:      "Evaluated samples by outcome",
			},
			[]string{"outcome"},
		),
		Calls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iql",
			Name:      "calls_total",
			Help:      "Operation calls in successfully parsed samples",
		}),
		Hallucinated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iql",
			Name:      "hallucinated_calls_total",
			Help:      "Calls to operations absent from the registry",
		}),
		InvalidArguments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iql",
			Name:      "invalid_arguments_total",
			Help:      "Arity and argument type errors",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Samples, m.Calls, m.Hallucinated, m.InvalidArguments} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe counts one result. Safe on a nil receiver.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues(string(r.Outcome)).Inc()
	m.Calls.Add(float64(r.Calls))
	m.Hallucinated.Add(float64(r.Hallucinated))
	m.InvalidArguments.Add(float64(r.InvalidArguments))
}
