package audit

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// #############################################################################
// #                         COBERTURA NF-e ↔ CT-e                             #
// #############################################################################

type InvoiceStatus string

const (
	InvoiceLinked   InvoiceStatus = "Vinculada"
	InvoiceAwaiting InvoiceStatus = "Aguardando"
)

// InvoiceRow é uma linha da cobertura fiscal do embarcador. CT-es sem NF-e
// aparecem como Aguardando, com a chave da NF-e vazia.
type InvoiceRow struct {
	InvoiceKey  string          `json:"nfe_chave"`
	IssueDate   string          `json:"data"`
	Shipper     string          `json:"embarcador"`
	Destination string          `json:"destinatario"`
	CargoValue  decimal.Decimal `json:"valor_mercadoria"`
	Status      InvoiceStatus   `json:"status"`
	CTeKey      string          `json:"cte_vinculado"`
}

type CoverageFilter struct {
	Status   InvoiceStatus
	Shipper  string
	From, To string
}

func (f CoverageFilter) Match(row InvoiceRow) bool {
	if f.Status != "" && !strings.EqualFold(string(f.Status), string(row.Status)) {
		return false
	}
	if f.Shipper != "" && !strings.EqualFold(strings.TrimSpace(f.Shipper), row.Shipper) {
		return false
	}
	return inRange(row.IssueDate, f.From, f.To)
}

// InvoiceRows deriva a cobertura dos CT-es: uma linha por NF-e referenciada
// (o primeiro CT-e que a cita) e uma por CT-e ainda sem NF-e.
func InvoiceRows(docs []domain.TransportDocument, f CoverageFilter) []InvoiceRow {
	seen := make(map[string]bool)
	out := make([]InvoiceRow, 0, len(docs))
	for _, d := range docs {
		row := InvoiceRow{
			InvoiceKey:  d.LinkedInvoiceKey,
			IssueDate:   d.IssueDate(),
			Shipper:     d.ShipperName,
			Destination: d.Destination,
			CargoValue:  d.CargoValue,
			Status:      InvoiceAwaiting,
			CTeKey:      d.AccessKey,
		}
		if d.LinkedInvoiceKey != "" {
			if seen[d.LinkedInvoiceKey] {
				continue
			}
			seen[d.LinkedInvoiceKey] = true
			row.Status = InvoiceLinked
		}
		if f.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

type CoverageKPIs struct {
	Total       int `json:"total"`
	Linked      int `json:"vinculadas"`
	Awaiting    int `json:"aguardando"`
	CoveragePct int `json:"percentual_cobertura"`
}

// Coverage arredonda o percentual para inteiro, meio para cima.
func Coverage(rows []InvoiceRow) CoverageKPIs {
	k := CoverageKPIs{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case InvoiceLinked:
			k.Linked++
		case InvoiceAwaiting:
			k.Awaiting++
		}
	}
	if k.Total > 0 {
		k.CoveragePct = (k.Linked*200 + k.Total) / (2 * k.Total)
	}
	return k
}
