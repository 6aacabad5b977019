package report

import (
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/payments"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// #############################################################################
// #                              AUDITORIA CT-e                               #
// #############################################################################

func Documents(docs []domain.TransportDocument) Sheet {
	sheet := Sheet{
		Name: "Auditoria CT-e",
		Header: []string{
			"Chave CT-e", "Série", "Número", "Emissão", "Emitente", "CNPJ Emitente",
			"Embarcador", "Transportador", "Origem", "Destino", "Tomador", "NF-e",
			"Valor Frete", "Valor Carga", "Previsto Tabela", "Delta", "Delta %",
			"Status Auditoria", "Compliance", "Mensagem", "Subcontratação",
			"Duplicidade", "CIOT", "Financeiro", "Conferido",
		},
	}
	for _, d := range docs {
		sheet.Rows = append(sheet.Rows, []string{
			d.AccessKey,
			d.Series,
			d.Number,
			formatDate(d.IssueDate()),
			d.IssuerName,
			d.IssuerTaxID,
			d.ShipperName,
			d.CarrierName,
			d.Origin,
			d.Destination,
			string(d.Payer),
			d.LinkedInvoiceKey,
			formatTwoDecimalsComma(d.FreightValue),
			formatTwoDecimalsComma(d.CargoValue),
			formatTwoDecimalsComma(d.RateComparison.Expected),
			formatTwoDecimalsComma(d.RateComparison.Delta),
			formatTwoDecimalsComma(d.RateComparison.DeltaPct),
			string(d.AuditStatus),
			string(d.ComplianceStatus),
			d.ComplianceMessage,
			roleLabel(d.Subcontracting.Role),
			string(d.Duplicate.Status),
			string(d.CIOT.Status),
			string(d.Financial.Link),
			yesNo(d.Reviewed),
		})
	}
	return sheet
}

func roleLabel(role domain.SubcontractingRole) string {
	if role == domain.RoleNone {
		return "NORMAL"
	}
	return string(role)
}

// #############################################################################
// #                                PAGAMENTOS                                 #
// #############################################################################

func Payments(rows []payments.Row) Sheet {
	sheet := Sheet{
		Name: "Pagamentos",
		Header: []string{
			"Chave CT-e", "Emissão", "Prestador", "Embarcador", "Valor",
			"Pode Pagar", "Motivos", "Status Pagamento",
		},
	}
	for _, r := range rows {
		d := r.Document
		sheet.Rows = append(sheet.Rows, []string{
			d.AccessKey,
			formatDate(d.IssueDate()),
			d.IssuerName,
			d.ShipperName,
			formatTwoDecimalsComma(d.FreightValue),
			yesNo(r.Ready),
			r.Reasons(),
			string(d.Financial.PaymentStatus),
		})
	}
	return sheet
}

// #############################################################################
// #                                FRETISTAS                                  #
// #############################################################################

func Loads(loads []urban.Load) Sheet {
	sheet := Sheet{
		Name: "Fretistas",
		Header: []string{
			"Carga", "NF-e", "Data NF-e", "Embarcador", "Fretista", "Município/UF",
			"Status", "NFS-e", "Alíquota ISS", "Valor ISS", "Valor Frete",
			"Compliance", "Situação", "Observações",
		},
	}
	for _, l := range loads {
		nfse, rate, iss := "—", "—", "—"
		if l.ServiceDoc != nil {
			nfse = l.ServiceDoc.Key
			rate = formatTwoDecimalsComma(l.ServiceDoc.ISSRate)
			iss = formatTwoDecimalsComma(l.ServiceDoc.ISSValue)
		}
		sheet.Rows = append(sheet.Rows, []string{
			l.ID,
			l.InvoiceKey,
			formatDate(l.InvoiceDate),
			l.Shipper,
			l.Carrier,
			l.City,
			string(l.Status),
			nfse,
			rate,
			iss,
			formatTwoDecimalsComma(l.FreightValue),
			string(l.Compliance),
			string(l.Situation),
			l.Notes,
		})
	}
	return sheet
}

// #############################################################################
// #                             CONSULTORIA DELTA                             #
// #############################################################################

func DeltaLines(lines []delta.Line) Sheet {
	sheet := Sheet{
		Name: "Consultoria Delta",
		Header: []string{
			"NF-e", "Emissão", "Valor NF",
			"Contratante", "Esperado Contratante", "CT-e Contratante", "ICMS Contratante", "Pagável Contratante",
			"Executora", "Regra", "Esperado Executora", "CT-e Executora", "ICMS Executora",
			"Delta", "Delta %", "NF Vinculada", "Compliance", "Enviado Pagamento",
		},
	}
	for _, l := range lines {
		c, e := l.ContractorLeg, l.ExecutorLeg
		sheet.Rows = append(sheet.Rows, []string{
			l.InvoiceKey,
			formatDate(l.IssuedOn),
			formatTwoDecimalsComma(l.InvoiceValue),
			c.Carrier,
			formatTwoDecimalsComma(c.Expected),
			formatOptional(c.CTeValue),
			string(c.ICMS),
			yesNo(c.Payable),
			e.Carrier,
			e.Rule,
			formatTwoDecimalsComma(e.Expected),
			formatOptional(e.CTeValue),
			string(e.ICMS),
			formatOptional(l.Delta.Value),
			formatOptional(l.Delta.Pct),
			yesNo(l.ExecutorInvoiceLinked),
			string(l.Compliance),
			yesNo(l.SentToPayment),
		})
	}
	return sheet
}
