package delta

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

var (
	ErrLineNotFound       = errors.New("linha de auditoria não encontrada")
	ErrLineExists         = errors.New("linha de auditoria já cadastrada para esta NF-e")
	ErrPaymentUnavailable = errors.New("linha não atende aos critérios para envio ao financeiro")
)

// Filter reproduz os filtros da tela. Campos vazios não filtram.
type Filter struct {
	Status  domain.ComplianceStatus
	Payable string // "sim", "nao" ou vazio
	Rule    string
	Since   time.Time
}

type Service interface {
	Config() Config
	UpdateConfig(cfg Config) error
	Lines(f Filter) []Line
	Add(line Line) (Line, error)
	Recalculate(keys []string) ([]Line, error)
	SendToPayment(key string) (Line, error)
	PaymentAvailable(line Line) bool
}

type service struct {
	mu    sync.RWMutex
	cfg   Config
	lines []Line
	log   *logrus.Entry
}

func NewService(cfg Config, lines []Line, logger *logrus.Logger) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &service{cfg: cfg, log: logger.WithField("module", "delta")}
	for _, l := range lines {
		if _, err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig troca os parâmetros. As linhas só mudam no próximo Recalculate.
func (s *service) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.log.WithField("funcName", "UpdateConfig").Info("configuração da Consultoria Delta atualizada")
	return nil
}

func (s *service) Lines(f Filter) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		if f.matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func (f Filter) matches(l Line) bool {
	if f.Status != "" && l.Compliance != f.Status {
		return false
	}
	switch f.Payable {
	case "sim":
		if !l.ContractorLeg.Payable {
			return false
		}
	case "nao":
		if l.ContractorLeg.Payable {
			return false
		}
	}
	if f.Rule != "" && l.ExecutorLeg.Rule != f.Rule {
		return false
	}
	if !f.Since.IsZero() && l.IssuedOn < f.Since.Format("2006-01-02") {
		return false
	}
	return true
}

// Add cadastra uma linha calculada com a configuração atual. O envio ao
// financeiro só acontece por SendToPayment.
func (s *service) Add(line Line) (Line, error) {
	if err := validate.Struct(line); err != nil {
		return Line{}, fmt.Errorf("linha inválida: %w", err)
	}
	line.SentToPayment = false
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(line.InvoiceKey) >= 0 {
		return Line{}, ErrLineExists
	}
	line = Calculate(s.cfg, line)
	s.lines = append(s.lines, line)
	return line, nil
}

// Recalculate aplica a configuração atual às linhas indicadas; sem chaves,
// a todas.
func (s *service) Recalculate(keys []string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := make([]int, 0, len(s.lines))
	if len(keys) == 0 {
		for i := range s.lines {
			idx = append(idx, i)
		}
	} else {
		for _, k := range keys {
			i := s.indexOf(k)
			if i < 0 {
				return nil, fmt.Errorf("%w: %s", ErrLineNotFound, k)
			}
			idx = append(idx, i)
		}
	}

	out := make([]Line, 0, len(idx))
	for _, i := range idx {
		s.lines[i] = Calculate(s.cfg, s.lines[i])
		out = append(out, s.lines[i])
	}
	s.log.WithFields(logrus.Fields{"funcName": "Recalculate", "linhas": len(out)}).Info("regras verificadas")
	return out, nil
}

func (s *service) SendToPayment(key string) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(key)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	if !PaymentAvailable(s.cfg, s.lines[i]) {
		return s.lines[i], ErrPaymentUnavailable
	}
	s.lines[i].SentToPayment = true
	s.log.WithFields(logrus.Fields{"funcName": "SendToPayment", "nfe": key}).Info("linha enviada ao financeiro")
	return s.lines[i], nil
}

func (s *service) PaymentAvailable(line Line) bool {
	return PaymentAvailable(s.Config(), line)
}

func (s *service) indexOf(key string) int {
	for i, l := range s.lines {
		if l.InvoiceKey == key {
			return i
		}
	}
	return -1
}

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// DefaultLines são as notas da operação Qubit → Transvila → Nikkey
// carregadas na inicialização.
func DefaultLines() []Line {
	leg := func(carrier string, cte *decimal.Decimal, icms ICMSMark) Leg {
		return Leg{Carrier: carrier, CTeValue: cte, ICMS: icms}
	}
	return []Line{
		{
			InvoiceKey: "352509QU0001", IssuedOn: "2025-09-09", InvoiceValue: decimal.RequireFromString("500.00"),
			ContractorLeg:         leg("Transvila", amount("16.50"), ICMSHighlighted),
			ExecutorLeg:           leg("Nikkey", amount("15.00"), ICMSNotHighlighted),
			ExecutorInvoiceLinked: true,
		},
		{
			InvoiceKey: "352509QU0002", IssuedOn: "2025-09-09", InvoiceValue: decimal.RequireFromString("1000.00"),
			ContractorLeg:         leg("Transvila", amount("33.00"), ICMSHighlighted),
			ExecutorLeg:           leg("Nikkey", amount("27.00"), ICMSNotHighlighted),
			ExecutorInvoiceLinked: true,
		},
		{
			InvoiceKey: "352509QU0003", IssuedOn: "2025-09-08", InvoiceValue: decimal.RequireFromString("620.00"),
			ContractorLeg: leg("Transvila", amount("20.46"), ICMSHighlighted),
			ExecutorLeg:   leg("Nikkey", nil, ICMSUnknown),
		},
	}
}
