// internal/core/audit/service.go
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/compliance"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ingest"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ratetable"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/metrics"
)

var (
	ErrDocumentNotFound = errors.New("CT-e não encontrado")
	ErrNotPayable       = errors.New("CT-e não liberado para pagamento")
	ErrAlreadyPaid      = errors.New("CT-e já pago")
)

const defaultUser = "admin@vilanova.com.br"

// Summary resume o resultado de uma verificação de compliance.
type Summary struct {
	Total        int `json:"total"`
	Compliant    int `json:"conformes"`
	NonCompliant int `json:"nao_conformes"`
	Pending      int `json:"pendentes"`
	Duplicates   int `json:"possiveis_duplicados"`
	Pairs        int `json:"pares_subcontratacao"`
	Payable      int `json:"pagaveis"`
}

type Service interface {
	Import(ctx context.Context, user string, res ingest.Result) (domain.ImportLog, error)
	VerifyCompliance(ctx context.Context) (Summary, error)
	ReapplyRates()
	MarkReviewed(key string) error
	MarkBatchReviewed(keys []string) int
	RegisterPayment(key string, when time.Time) (domain.TransportDocument, error)
	Documents() []domain.TransportDocument
	Get(key string) (domain.TransportDocument, error)
	List(f Filter) []domain.TransportDocument
	Received(f ReceivedFilter) []domain.TransportDocument
	Logs() []domain.ImportLog
	PartnerTaxID() string
}

// Settings são os parâmetros do serviço de auditoria.
type Settings struct {
	PartnerTaxID     string
	RateTolerancePct decimal.Decimal
	Now              func() time.Time
}

// service guarda a coleção de CT-es em memória. Toda reclassificação de
// duplicidade é feita sobre a coleção inteira.
type service struct {
	mu      sync.RWMutex
	docs    []domain.TransportDocument
	logs    []domain.ImportLog
	rates   *ratetable.Registry
	cfg     Settings
	log     *logrus.Entry
	metrics *metrics.Metrics
}

func NewService(cfg Settings, rates *ratetable.Registry, logger *logrus.Logger, m *metrics.Metrics) Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		rates:   rates,
		cfg:     cfg,
		log:     logger.WithField("module", "audit"),
		metrics: m,
	}
}

func (s *service) PartnerTaxID() string {
	return s.cfg.PartnerTaxID
}

// Import incorpora um lote já lido: os CT-es novos entram no início da
// coleção, os CIOTs do lote atualizam a situação dos CT-es com o mesmo código
// e compliance, duplicidade e tabela de frete são recalculados para todos.
func (s *service) Import(ctx context.Context, user string, res ingest.Result) (domain.ImportLog, error) {
	if err := ctx.Err(); err != nil {
		return domain.ImportLog{}, fmt.Errorf("importação cancelada: %w", err)
	}
	if user == "" {
		user = defaultUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.TransportDocument, 0, len(res.Documents)+len(s.docs))
	all = append(all, res.Documents...)
	all = append(all, s.docs...)
	all = applyCIOTs(all, res.CIOTs)
	s.docs = s.recompute(all)

	ciots := len(res.CIOTs)
	for _, d := range res.Documents {
		if d.CIOT.Code != "" {
			ciots++
		}
	}
	entry := domain.ImportLog{
		ID:                 uuid.NewString(),
		Timestamp:          s.cfg.Now(),
		User:               user,
		Files:              res.Files,
		DocumentsProcessed: len(res.Documents),
		CIOTsRecognized:    ciots,
		Errors:             len(res.Failures),
		Details:            "Processamento realizado com sucesso",
	}
	if entry.Errors > 0 {
		entry.Details = fmt.Sprintf("%d arquivos com erro", entry.Errors)
	}
	s.logs = append([]domain.ImportLog{entry}, s.logs...)

	s.metrics.IncrementImported(string(ingest.KindCTe), len(res.Documents))
	s.metrics.IncrementImported(string(ingest.KindNFSe), len(res.ServiceInvoices))
	s.metrics.IncrementImported(string(ingest.KindCIOT), len(res.CIOTs))
	s.metrics.IncrementRejected(len(res.Failures))

	s.log.WithFields(logrus.Fields{
		"funcName": "Import",
		"usuario":  user,
		"arquivos": res.Files,
		"ctes":     len(res.Documents),
		"erros":    len(res.Failures),
	}).Info("lote importado")
	return entry, nil
}

// VerifyCompliance reavalia todos os CT-es a partir de um snapshot.
func (s *service) VerifyCompliance(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("verificação cancelada: %w", err)
	}
	s.mu.Lock()
	s.docs = s.recompute(s.docs)
	sum := summarize(s.docs)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"funcName":   "VerifyCompliance",
		"total":      sum.Total,
		"pagaveis":   sum.Payable,
		"duplicados": sum.Duplicates,
	}).Info("compliance verificada")
	return sum, nil
}

// ReapplyRates refaz só a comparação com as tabelas de frete, usada depois
// de trocar as tabelas.
func (s *service) ReapplyRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		s.docs[i] = s.rates.Audit(s.docs[i], s.cfg.RateTolerancePct)
	}
}

// recompute deve ser chamado com o lock de escrita.
func (s *service) recompute(docs []domain.TransportDocument) []domain.TransportDocument {
	out := compliance.Recompute(docs)
	payable := 0
	verdicts := make(map[string]int)
	duplicates := make(map[string]int)
	for i := range out {
		out[i] = s.rates.Audit(out[i], s.cfg.RateTolerancePct)
		verdicts[string(out[i].ComplianceStatus)]++
		duplicates[string(out[i].Duplicate.Status)]++
		if compliance.IsPayable(out[i]) {
			payable++
		}
	}
	s.metrics.SetVerdicts(verdicts)
	s.metrics.SetDuplicates(duplicates)
	s.metrics.SetPayable(payable)
	return out
}

// MarkReviewed marca como conferidos todos os CT-es com a chave. Conferido
// nunca volta a falso.
func (s *service) MarkReviewed(key string) error {
	if s.MarkBatchReviewed([]string{key}) == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *service) MarkBatchReviewed(keys []string) int {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.docs {
		if want[s.docs[i].AccessKey] {
			s.docs[i].Reviewed = true
			n++
		}
	}
	return n
}

// RegisterPayment baixa o título do CT-e. Só é aceito para documentos
// liberados pela trava de pagamento com a política de CIOT.
func (s *service) RegisterPayment(key string, when time.Time) (domain.TransportDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.docs {
		d := &s.docs[i]
		if d.AccessKey != key {
			continue
		}
		found = true
		if d.Financial.PaymentStatus == domain.PaymentPaid {
			return *d, ErrAlreadyPaid
		}
		if !compliance.ReadyForPayment(*d) {
			continue
		}
		paidAt := when
		d.Financial.PaymentStatus = domain.PaymentPaid
		d.Financial.Link = domain.FinancialSettled
		d.Financial.PaidAt = &paidAt
		s.metrics.IncrementPayments()
		s.log.WithFields(logrus.Fields{"funcName": "RegisterPayment", "chave": key}).Info("pagamento registrado")
		return *d, nil
	}
	if !found {
		return domain.TransportDocument{}, ErrDocumentNotFound
	}
	doc, _ := s.find(key)
	return doc, fmt.Errorf("%w: %v", ErrNotPayable, compliance.BlockReasons(doc))
}

func (s *service) Documents() []domain.TransportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TransportDocument, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *service) Get(key string) (domain.TransportDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.find(key)
	if !ok {
		return domain.TransportDocument{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *service) find(key string) (domain.TransportDocument, bool) {
	for _, d := range s.docs {
		if d.AccessKey == key {
			return d, true
		}
	}
	return domain.TransportDocument{}, false
}

func (s *service) List(f Filter) []domain.TransportDocument {
	now := s.cfg.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TransportDocument, 0, len(s.docs))
	for _, d := range s.docs {
		if f.Match(d, now, s.cfg.PartnerTaxID) {
			out = append(out, d)
		}
	}
	return out
}

func (s *service) Received(f ReceivedFilter) []domain.TransportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TransportDocument, 0, len(s.docs))
	for _, d := range s.docs {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s *service) Logs() []domain.ImportLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ImportLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// applyCIOTs atualiza a situação do CIOT dos CT-es que citam um comprovante
// importado.
func applyCIOTs(docs []domain.TransportDocument, records []domain.CIOTRecord) []domain.TransportDocument {
	if len(records) == 0 {
		return docs
	}
	byCode := make(map[string]domain.CIOTStatus, len(records))
	for _, r := range records {
		byCode[r.Code] = r.Status
	}
	for i := range docs {
		if st, ok := byCode[docs[i].CIOT.Code]; ok && docs[i].CIOT.Code != "" {
			docs[i].CIOT.Status = st
		}
	}
	return docs
}

func summarize(docs []domain.TransportDocument) Summary {
	sum := Summary{Total: len(docs)}
	for _, d := range docs {
		switch d.ComplianceStatus {
		case domain.ComplianceCompliant:
			sum.Compliant++
		case domain.ComplianceNonCompliant:
			sum.NonCompliant++
		default:
			sum.Pending++
		}
		switch d.Duplicate.Status {
		case domain.DuplicatePossible:
			sum.Duplicates++
		case domain.DuplicateSubcontractorPair:
			sum.Pairs++
		}
		if compliance.IsPayable(d) {
			sum.Payable++
		}
	}
	return sum
}
