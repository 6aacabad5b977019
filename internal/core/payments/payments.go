// Package payments monta a visão de pagamentos a partir dos CT-es auditados.
// Tudo aqui é leitura: a baixa do título é feita pelo serviço de auditoria.
package payments

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/compliance"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

type Situation string

const (
	SituationAll     Situation = ""
	SituationPayable Situation = "pagavel"
	SituationBlocked Situation = "bloqueado"
	SituationPaid    Situation = "pago"
)

// Filter usa a trava completa (base + CIOT) na situação.
type Filter struct {
	Situation Situation
	Issuer    string
	Shipper   string
	From, To  string
}

// Row é uma linha da tela de pagamentos.
type Row struct {
	Document     domain.TransportDocument `json:"cte"`
	Ready        bool                     `json:"pode_pagar"`
	BlockReasons []string                 `json:"motivos_bloqueio"`
}

// Reasons devolve os motivos separados por vírgula, ou "—" sem motivo.
func (r Row) Reasons() string {
	if len(r.BlockReasons) == 0 {
		return "—"
	}
	return strings.Join(r.BlockReasons, ", ")
}

func NewRow(doc domain.TransportDocument) Row {
	ready := compliance.ReadyForPayment(doc)
	row := Row{Document: doc, Ready: ready, BlockReasons: []string{}}
	if !ready {
		if reasons := compliance.BlockReasons(doc); len(reasons) > 0 {
			row.BlockReasons = reasons
		}
	}
	return row
}

func (f Filter) Match(doc domain.TransportDocument) bool {
	ready := compliance.ReadyForPayment(doc)
	switch f.Situation {
	case SituationPayable:
		if !ready {
			return false
		}
	case SituationBlocked:
		if ready {
			return false
		}
	case SituationPaid:
		if doc.Financial.PaymentStatus != domain.PaymentPaid {
			return false
		}
	}
	if f.Issuer != "" && !strings.EqualFold(strings.TrimSpace(f.Issuer), doc.IssuerName) {
		return false
	}
	if f.Shipper != "" && !strings.EqualFold(strings.TrimSpace(f.Shipper), doc.ShipperName) {
		return false
	}
	day := doc.IssueDate()
	if f.From != "" && day < f.From {
		return false
	}
	if f.To != "" && day > f.To {
		return false
	}
	return true
}

// Apply filtra e monta as linhas, mantendo a ordem de entrada.
func Apply(docs []domain.TransportDocument, f Filter) []Row {
	rows := make([]Row, 0, len(docs))
	for _, d := range docs {
		if f.Match(d) {
			rows = append(rows, NewRow(d))
		}
	}
	return rows
}

type KPIs struct {
	Total        int             `json:"total"`
	PayableNow   int             `json:"pagaveis_hoje"`
	Blocked      int             `json:"bloqueados"`
	Paid         int             `json:"pagos"`
	PayableValue decimal.Decimal `json:"valor_pagavel"`
	BlockedValue decimal.Decimal `json:"valor_bloqueado"`
}

// Indicators calcula os indicadores sobre as linhas já filtradas.
func Indicators(rows []Row) KPIs {
	k := KPIs{Total: len(rows), PayableValue: decimal.Zero, BlockedValue: decimal.Zero}
	for _, r := range rows {
		if r.Ready {
			k.PayableNow++
			k.PayableValue = k.PayableValue.Add(r.Document.FreightValue)
		} else {
			k.Blocked++
			k.BlockedValue = k.BlockedValue.Add(r.Document.FreightValue)
		}
		if r.Document.Financial.PaymentStatus == domain.PaymentPaid {
			k.Paid++
		}
	}
	return k
}
