package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics reúne os coletores Prometheus da auditoria de frete.
type Metrics struct {
	DocumentsImported   *prometheus.CounterVec
	FilesRejected       prometheus.Counter
	ComplianceVerdicts  *prometheus.GaugeVec
	DuplicateClassified *prometheus.GaugeVec
	PayableDocuments    prometheus.Gauge
	PaymentsRegistered  prometheus.Counter
	EndpointLatency     *prometheus.HistogramVec
}

// New registra os coletores em reg. Em produção usar
// prometheus.DefaultRegisterer; nos testes, um prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsImported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frete_documentos_importados_total",
			Help: "Documentos importados, por tipo (CT-e, NFS-e, CIOT)",
		}, []string{"tipo"}),
		FilesRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "frete_arquivos_rejeitados_total",
			Help: "Arquivos rejeitados na importação",
		}),
		ComplianceVerdicts: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frete_ctes_por_compliance",
			Help: "CT-es atualmente em cada status de compliance",
		}, []string{"status"}),
		DuplicateClassified: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frete_ctes_por_duplicidade",
			Help: "CT-es atualmente em cada status de duplicidade",
		}, []string{"status"}),
		PayableDocuments: f.NewGauge(prometheus.GaugeOpts{
			Name: "frete_ctes_pagaveis",
			Help: "CT-es atualmente liberados para pagamento",
		}),
		PaymentsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "frete_pagamentos_registrados_total",
			Help: "Pagamentos registrados",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frete_endpoint_latency_seconds",
			Help:    "Latência dos endpoints em segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
}

func (m *Metrics) IncrementImported(kind string, n int) {
	m.DocumentsImported.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncrementRejected(n int) {
	m.FilesRejected.Add(float64(n))
}

// SetVerdicts substitui a contagem por status de compliance. Status que
// sumiram da coleção deixam de ser exportados.
func (m *Metrics) SetVerdicts(byStatus map[string]int) {
	setAll(m.ComplianceVerdicts, byStatus)
}

func (m *Metrics) SetDuplicates(byStatus map[string]int) {
	setAll(m.DuplicateClassified, byStatus)
}

func setAll(g *prometheus.GaugeVec, byStatus map[string]int) {
	g.Reset()
	for status, n := range byStatus {
		g.WithLabelValues(status).Set(float64(n))
	}
}

func (m *Metrics) SetPayable(n int) {
	m.PayableDocuments.Set(float64(n))
}

func (m *Metrics) IncrementPayments() {
	m.PaymentsRegistered.Inc()
}

func (m *Metrics) ObserveEndpointLatency(endpoint, method string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint, method).Observe(durationSeconds)
}
