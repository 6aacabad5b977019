package audit

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/compliance"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// Period é o recorte de datas da tela de auditoria.
type Period string

const (
	PeriodAll    Period = ""
	Period7      Period = "7dias"
	Period30     Period = "30dias"
	Period90     Period = "90dias"
	PeriodCustom Period = "personalizado"
)

var periodDays = map[Period]int{Period7: 7, Period30: 30, Period90: 90}

// PartnerOption filtra as subcontratações da transportadora parceira.
type PartnerOption string

const (
	PartnerAll PartnerOption = "todos"
	PartnerYes PartnerOption = "sim"
	PartnerNo  PartnerOption = "nao"
)

// Filter combina todos os critérios com E. Listas vazias não filtram.
type Filter struct {
	Period             Period
	From, To           string
	Shippers           []string
	Carriers           []string
	AuditStatuses      []domain.AuditStatus
	Payers             []domain.PayerRole
	PartnerSubcontract PartnerOption
}

func (f Filter) Match(doc domain.TransportDocument, now time.Time, partnerTaxID string) bool {
	if !f.matchPeriod(doc, now) {
		return false
	}
	if len(f.Shippers) > 0 && !containsFold(f.Shippers, doc.ShipperName) {
		return false
	}
	if len(f.Carriers) > 0 && !containsFold(f.Carriers, doc.CarrierName) {
		return false
	}
	if len(f.AuditStatuses) > 0 && !contains(f.AuditStatuses, doc.AuditStatus) {
		return false
	}
	if len(f.Payers) > 0 && !contains(f.Payers, doc.Payer) {
		return false
	}
	switch f.PartnerSubcontract {
	case PartnerYes:
		return compliance.MatchesPartnerSubcontract(doc, partnerTaxID)
	case PartnerNo:
		return !compliance.MatchesPartnerSubcontract(doc, partnerTaxID)
	}
	return true
}

func (f Filter) matchPeriod(doc domain.TransportDocument, now time.Time) bool {
	if f.Period == PeriodCustom {
		return inRange(doc.IssueDate(), f.From, f.To)
	}
	days, ok := periodDays[f.Period]
	if !ok {
		return true
	}
	return !doc.IssuedAt.Before(now.AddDate(0, 0, -days))
}

// inRange compara datas civis AAAA-MM-DD. Limite vazio fica aberto.
func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

// KPIs são os indicadores da tela de auditoria.
type KPIs struct {
	Total           int             `json:"total_ctes"`
	TotalFreight    decimal.Decimal `json:"valor_total_frete"`
	Divergences     int             `json:"divergencias"`
	DivergencePct   decimal.Decimal `json:"percentual_divergencia"`
	AmountToRecover decimal.Decimal `json:"valor_a_recuperar"`
	WithoutTitle    int             `json:"sem_titulo"`
}

func Indicators(docs []domain.TransportDocument) KPIs {
	k := KPIs{Total: len(docs), TotalFreight: decimal.Zero, DivergencePct: decimal.Zero, AmountToRecover: decimal.Zero}
	for _, d := range docs {
		k.TotalFreight = k.TotalFreight.Add(d.FreightValue)
		if d.AuditStatus == domain.AuditDivergent {
			k.Divergences++
			if d.RateComparison.Delta.IsPositive() {
				k.AmountToRecover = k.AmountToRecover.Add(d.RateComparison.Delta)
			}
		}
		if d.Financial.Link == domain.FinancialNoTitle {
			k.WithoutTitle++
		}
	}
	if k.Total > 0 {
		k.DivergencePct = decimal.NewFromInt(int64(k.Divergences)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(k.Total))).
			Round(1)
	}
	return k
}

// #############################################################################
// #                           CT-es RECEBIDOS                                 #
// #############################################################################

// ServiceNormal identifica no filtro os CT-es sem subcontratação.
const ServiceNormal = "NORMAL"

const (
	SituationPayable = "pode-pagar"
	SituationBlocked = "bloqueado"
)

// ReceivedFilter é o filtro da tela de CT-es recebidos. A situação usa só a
// trava base, sem a política de CIOT.
type ReceivedFilter struct {
	Compliance  domain.ComplianceStatus
	Carrier     string
	ServiceType string
	Situation   string
	From, To    string
}

func (f ReceivedFilter) Match(doc domain.TransportDocument) bool {
	if f.Compliance != "" && doc.ComplianceStatus != f.Compliance {
		return false
	}
	if f.Carrier != "" && !strings.EqualFold(strings.TrimSpace(f.Carrier), doc.IssuerName) {
		return false
	}
	if f.ServiceType != "" && !strings.EqualFold(f.ServiceType, serviceType(doc)) {
		return false
	}
	switch f.Situation {
	case SituationPayable:
		if !compliance.IsPayable(doc) {
			return false
		}
	case SituationBlocked:
		if compliance.IsPayable(doc) {
			return false
		}
	}
	return inRange(doc.IssueDate(), f.From, f.To)
}

func serviceType(doc domain.TransportDocument) string {
	if doc.Subcontracting.Role == domain.RoleNone {
		return ServiceNormal
	}
	return string(doc.Subcontracting.Role)
}

type ReceivedKPIs struct {
	Total          int             `json:"total"`
	Linked         int             `json:"vinculados"`
	WithoutInvoice int             `json:"sem_nf"`
	Compliant      int             `json:"conformes"`
	Payable        int             `json:"pode_pagar"`
	Blocked        int             `json:"bloqueados"`
	TotalAudited   decimal.Decimal `json:"valor_total_auditado"`
	BlockedValue   decimal.Decimal `json:"valor_bloqueado"`
}

func ReceivedIndicators(docs []domain.TransportDocument) ReceivedKPIs {
	k := ReceivedKPIs{Total: len(docs), TotalAudited: decimal.Zero, BlockedValue: decimal.Zero}
	for _, d := range docs {
		if d.LinkedInvoiceKey != "" {
			k.Linked++
		} else {
			k.WithoutInvoice++
		}
		if d.ComplianceStatus == domain.ComplianceCompliant {
			k.Compliant++
		}
		k.TotalAudited = k.TotalAudited.Add(d.FreightValue)
		if compliance.IsPayable(d) {
			k.Payable++
		} else {
			k.Blocked++
			k.BlockedValue = k.BlockedValue.Add(d.FreightValue)
		}
	}
	return k
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
