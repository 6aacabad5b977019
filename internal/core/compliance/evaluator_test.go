package compliance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

type docOption func(*domain.TransportDocument)

// newDoc monta um CT-e determinístico para os testes.
func newDoc(key string, opts ...docOption) domain.TransportDocument {
	doc := domain.TransportDocument{
		AccessKey:        key,
		Series:           "1",
		Number:           key,
		IssuedAt:         time.Date(2025, 9, 1, 9, 20, 0, 0, time.FixedZone("BRT", -3*3600)),
		IssuerTaxID:      "77777777000155",
		IssuerName:       "Transportes ABC LTDA",
		ShipperName:      "Vila Nova",
		CarrierName:      "Transportes ABC LTDA",
		LinkedInvoiceKey: "35250988888888888888550000098765432100000001",
		Payer:            domain.PayerShipper,
		FreightValue:     decimal.NewFromInt(1000),
		CargoValue:       decimal.NewFromInt(52000),
		ICMS:             domain.ICMS{Value: decimal.NewFromInt(120), Rate: decimal.NewFromInt(12), Highlighted: true},
		CIOT:             domain.CIOT{Status: domain.CIOTNotApplicable},
	}
	for _, opt := range opts {
		opt(&doc)
	}
	return doc
}

func withoutICMS() docOption {
	return func(d *domain.TransportDocument) {
		d.ICMS = domain.ICMS{Value: decimal.Zero, Rate: decimal.Zero}
	}
}

func asExecutor(contractorTaxID string) docOption {
	return func(d *domain.TransportDocument) {
		d.Subcontracting.Role = domain.RoleExecutor
		d.Subcontracting.ContractorTaxID = contractorTaxID
		d.Subcontracting.SubcontractedTaxID = d.IssuerTaxID
	}
}

func asContractor(issuerTaxID, executorRef string) docOption {
	return func(d *domain.TransportDocument) {
		d.IssuerTaxID = issuerTaxID
		d.Subcontracting.Role = domain.RoleContractor
		d.Subcontracting.ExecutorDocumentRef = executorRef
	}
}

func issuedBy(taxID string) docOption {
	return func(d *domain.TransportDocument) { d.IssuerTaxID = taxID }
}

func TestEvaluateDecisionTable(t *testing.T) {
	tests := []struct {
		name    string
		doc     domain.TransportDocument
		status  domain.ComplianceStatus
		payable bool
		message string
	}{
		{"direta com ICMS", newDoc("A"), domain.ComplianceCompliant, true, "CT-e normal com ICMS destacado"},
		{"direta sem ICMS", newDoc("A", withoutICMS()), domain.ComplianceNonCompliant, true, "Prestação normal sem ICMS destacado"},
		{"executora com ICMS", newDoc("A", asExecutor("99")), domain.ComplianceCompliant, true, "CT-e EXECUTORA com ICMS destacado"},
		{"executora sem ICMS", newDoc("A", asExecutor("99"), withoutICMS()), domain.ComplianceNonCompliant, true, "CT-e EXECUTORA sem ICMS destacado"},
		{"contratante sem referencia com ICMS", newDoc("A", asContractor("99", "")), domain.CompliancePending, false, "Referenciar CT-e da executora"},
		{"contratante sem referencia sem ICMS", newDoc("A", asContractor("99", ""), withoutICMS()), domain.CompliancePending, false, "Referenciar CT-e da executora"},
		{"contratante sem ICMS", newDoc("A", asContractor("99", "E1"), withoutICMS()), domain.ComplianceCompliant, false, "CT-e CONTRATANTE sem destaque de ICMS"},
		{"contratante com ICMS", newDoc("A", asContractor("99", "E1")), domain.ComplianceNonCompliant, false, "CT-e CONTRATANTE não deve destacar ICMS"},
		{"papel desconhecido", newDoc("A", func(d *domain.TransportDocument) { d.Subcontracting.Role = "REDESPACHO" }), domain.CompliancePending, false, "Situação não identificada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tt.doc)
			assert.Equal(t, tt.status, v.Status)
			assert.Equal(t, tt.payable, v.Payable)
			assert.Equal(t, tt.message, v.Message)
		})
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	doc := newDoc("A", withoutICMS())
	doc.ComplianceStatus = domain.CompliancePending

	applied := Apply(doc)

	assert.Equal(t, domain.CompliancePending, doc.ComplianceStatus)
	assert.Empty(t, doc.ComplianceMessage)
	assert.Equal(t, domain.ComplianceNonCompliant, applied.ComplianceStatus)
	assert.True(t, applied.Payable)
}

func TestEvaluateAllReturnsNewSlice(t *testing.T) {
	docs := []domain.TransportDocument{newDoc("A"), newDoc("B", asContractor("99", ""))}

	out := EvaluateAll(docs)

	require.Len(t, out, 2)
	assert.Empty(t, docs[0].ComplianceStatus)
	assert.Equal(t, domain.ComplianceCompliant, out[0].ComplianceStatus)
	assert.Equal(t, domain.CompliancePending, out[1].ComplianceStatus)
}

func TestDirectWithoutICMSIsPayableButBlockedByGate(t *testing.T) {
	out := Recompute([]domain.TransportDocument{newDoc("D1", withoutICMS())})

	require.Len(t, out, 1)
	assert.Equal(t, domain.ComplianceNonCompliant, out[0].ComplianceStatus)
	assert.True(t, out[0].Payable)
	assert.False(t, IsPayable(out[0]))
}
