// Package urban controla as cargas entregues por fretistas urbanos, cuja
// prestação intramunicipal é documentada por NFS-e (ISS) e não por CT-e.
package urban

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

var (
	ErrLoadNotFound = errors.New("carga não encontrada")
	ErrLoadExists   = errors.New("carga já cadastrada")
)

type LoadStatus string

const (
	StatusCollecting   LoadStatus = "Em coleta"
	StatusInTransit    LoadStatus = "Em trânsito"
	StatusDelivered    LoadStatus = "Entregue"
	StatusAwaitingNFSe LoadStatus = "Aguardando NFS-e"
)

const (
	noteZeroISS        = "ISS = R$ 0,00 (inadequado para transporte urbano)"
	noteMissingNFSe    = "Sem NFS-e vinculada"
	serviceDocKindNFSe = "NFS-e"
)

type Situation string

const (
	SituationPay     Situation = "Pode pagar"
	SituationDontPay Situation = "Não pagar"
)

// ServiceDoc é o documento de transporte do fretista (NFS-e).
type ServiceDoc struct {
	Kind     string          `json:"tipo"`
	Key      string          `json:"chave"`
	ISSRate  decimal.Decimal `json:"iss_aliquota"`
	ISSValue decimal.Decimal `json:"iss_valor"`
}

type Load struct {
	ID           string                  `json:"id_carga"`
	InvoiceKey   string                  `json:"nfe_chave" validate:"required"`
	InvoiceDate  string                  `json:"data_nfe" validate:"required,datetime=2006-01-02"`
	Shipper      string                  `json:"embarcador" validate:"required"`
	Carrier      string                  `json:"fretista" validate:"required"`
	City         string                  `json:"municipio_uf"`
	Status       LoadStatus              `json:"status_carga"`
	ServiceDoc   *ServiceDoc             `json:"doc_transporte,omitempty"`
	FreightValue decimal.Decimal         `json:"valor_frete"`
	Compliance   domain.ComplianceStatus `json:"compliance"`
	Situation    Situation               `json:"situacao"`
	Notes        string                  `json:"observacoes,omitempty"`
}

type Filter struct {
	From       time.Time
	To         time.Time
	Shipper    string
	Carrier    string
	Status     LoadStatus
	Compliance domain.ComplianceStatus
	Situation  Situation
}

type KPIs struct {
	Total          int             `json:"total"`
	WithNFSe       int             `json:"com_nfse"`
	WithoutNFSe    int             `json:"sem_nfse"`
	PotentialValue decimal.Decimal `json:"valor_potencial"`
	BlockedValue   decimal.Decimal `json:"valor_bloqueado"`
}

type Service interface {
	Register(load Load) (Load, error)
	MarkDelivered(id string) (Load, error)
	AttachNFSe(id, key string, issRate, issValue decimal.Decimal) (Load, error)
	Verify(id string) (Load, error)
	AttachFromInvoices(invoices []domain.ServiceInvoice) int
	List(f Filter) []Load
	Get(id string) (Load, error)
}

type service struct {
	mu    sync.RWMutex
	loads []Load
	seq   int
	log   *logrus.Entry
}

var validate = validator.New()

func NewService(logger *logrus.Logger) Service {
	return &service{log: logger.WithField("module", "urban")}
}

// Register cadastra uma carga nova. Sem ID, gera FR-0001, FR-0002...
func (s *service) Register(load Load) (Load, error) {
	if err := validate.Struct(load); err != nil {
		return Load{}, fmt.Errorf("carga inválida: %w", err)
	}
	if load.FreightValue.IsNegative() {
		return Load{}, errors.New("carga inválida: valor do frete negativo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if load.ID == "" {
		s.seq++
		load.ID = fmt.Sprintf("FR-%04d", s.seq)
	}
	if s.indexOf(load.ID) >= 0 {
		return Load{}, fmt.Errorf("%w: %s", ErrLoadExists, load.ID)
	}
	if load.Status == "" {
		load.Status = StatusCollecting
	}
	if load.ServiceDoc != nil {
		load = Evaluate(load)
	} else {
		load.Compliance = domain.CompliancePending
		load.Situation = SituationDontPay
	}
	s.loads = append(s.loads, load)
	return load, nil
}

func (s *service) MarkDelivered(id string) (Load, error) {
	return s.update(id, func(l *Load) {
		l.Status = StatusDelivered
	})
}

// AttachNFSe vincula a NFS-e informada e já reavalia a carga.
func (s *service) AttachNFSe(id, key string, issRate, issValue decimal.Decimal) (Load, error) {
	if strings.TrimSpace(key) == "" {
		return Load{}, errors.New("chave da NFS-e obrigatória")
	}
	return s.update(id, func(l *Load) {
		l.ServiceDoc = &ServiceDoc{Kind: serviceDocKindNFSe, Key: strings.TrimSpace(key), ISSRate: issRate, ISSValue: issValue}
		*l = Evaluate(*l)
	})
}

func (s *service) Verify(id string) (Load, error) {
	return s.update(id, func(l *Load) {
		*l = Evaluate(*l)
	})
}

// AttachFromInvoices vincula NFS-e importadas às cargas sem documento do
// mesmo fretista (prestador), na ordem de cadastro. Cada NFS-e é usada uma
// única vez. Retorna quantas cargas foram vinculadas.
func (s *service) AttachFromInvoices(invoices []domain.ServiceInvoice) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[string]bool)
	for _, l := range s.loads {
		if l.ServiceDoc != nil {
			used[l.ServiceDoc.Key] = true
		}
	}

	linked := 0
	for _, inv := range invoices {
		if inv.VerificationCode == "" || used[inv.VerificationCode] {
			continue
		}
		for i := range s.loads {
			l := &s.loads[i]
			if l.ServiceDoc != nil || !sameName(l.Carrier, inv.ProviderName) {
				continue
			}
			l.ServiceDoc = &ServiceDoc{
				Kind:     serviceDocKindNFSe,
				Key:      inv.VerificationCode,
				ISSRate:  inv.ISSRate,
				ISSValue: inv.ISSValue,
			}
			*l = Evaluate(*l)
			used[inv.VerificationCode] = true
			linked++
			break
		}
	}
	if linked > 0 {
		s.log.WithFields(logrus.Fields{"funcName": "AttachFromInvoices", "cargas": linked}).Info("NFS-e vinculadas às cargas")
	}
	return linked
}

func (s *service) List(f Filter) []Load {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Load, 0, len(s.loads))
	for _, l := range s.loads {
		if f.matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *service) Get(id string) (Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Load{}, ErrLoadNotFound
	}
	return s.loads[i], nil
}

func (s *service) update(id string, fn func(*Load)) (Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Load{}, fmt.Errorf("%w: %s", ErrLoadNotFound, id)
	}
	fn(&s.loads[i])
	return s.loads[i], nil
}

func (s *service) indexOf(id string) int {
	for i, l := range s.loads {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Evaluate aplica a regra do fretista urbano: só paga com NFS-e e ISS
// destacado.
func Evaluate(l Load) Load {
	switch {
	case l.ServiceDoc == nil:
		l.Compliance = domain.ComplianceNonCompliant
		l.Situation = SituationDontPay
		l.Notes = noteMissingNFSe
	case l.ServiceDoc.ISSValue.IsPositive():
		l.Compliance = domain.ComplianceCompliant
		l.Situation = SituationPay
		l.Notes = ""
	default:
		l.Compliance = domain.ComplianceNonCompliant
		l.Situation = SituationDontPay
		l.Notes = noteZeroISS
	}
	return l
}

func (f Filter) matches(l Load) bool {
	if !f.From.IsZero() && l.InvoiceDate < f.From.Format("2006-01-02") {
		return false
	}
	if !f.To.IsZero() && l.InvoiceDate > f.To.Format("2006-01-02") {
		return false
	}
	if f.Shipper != "" && l.Shipper != f.Shipper {
		return false
	}
	if f.Carrier != "" && l.Carrier != f.Carrier {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Compliance != "" && l.Compliance != f.Compliance {
		return false
	}
	if f.Situation != "" && l.Situation != f.Situation {
		return false
	}
	return true
}

func Summarize(loads []Load) KPIs {
	k := KPIs{PotentialValue: decimal.Zero, BlockedValue: decimal.Zero}
	for _, l := range loads {
		k.Total++
		if l.ServiceDoc != nil {
			k.WithNFSe++
		} else {
			k.WithoutNFSe++
		}
		k.PotentialValue = k.PotentialValue.Add(l.FreightValue)
		if l.Situation == SituationDontPay {
			k.BlockedValue = k.BlockedValue.Add(l.FreightValue)
		}
	}
	return k
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}
