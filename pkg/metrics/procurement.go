package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProcurementMetrics counts procurement documents and rejections per document kind.
type ProcurementMetrics struct {
	created  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewProcurementMetrics(reg prometheus.Registerer) *ProcurementMetrics {
	if reg == nil {
		return &ProcurementMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_documents_created_total",
		Help: "Procurement documents committed, by kind.",
	}, []string{"kind"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_documents_rejected_total",
		Help: "Procurement document requests rejected, by kind and error code.",
	}, []string{"kind", "code"})
	reg.MustRegister(created, rejected)
	return &ProcurementMetrics{created: created, rejected: rejected}
}

func (m *ProcurementMetrics) IncCreated(kind string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *ProcurementMetrics) IncRejected(kind, code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}
