package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK        = "ok"
	resultRecovered = "recovered"
	resultError     = "error"
)

// StoreMetrics is nil-safe: a nil *StoreMetrics records nothing.
type StoreMetrics struct {
	Reloads  *prometheus.CounterVec
	Persists *prometheus.CounterVec
	Products prometheus.Gauge
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_reloads_total",
				Help: "Products document loads by result",
			},
			[]string{"result"},
		),
		Persists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_persist_total",
				Help: "Products document rewrites by result",
			},
			[]string{"result"},
		),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products held after the last load or mutation",
		}),
	}

	reg.MustRegister(m.Reloads, m.Persists, m.Products)
	return m
}

func (m *StoreMetrics) reload(result string, n int) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(result).Inc()
	if result != resultError {
		m.Products.Set(float64(n))
	}
}

func (m *StoreMetrics) persist(result string, n int) {
	if m == nil {
		return
	}
	m.Persists.WithLabelValues(result).Inc()
	if result == resultOK {
		m.Products.Set(float64(n))
	}
}
