package payments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

func payableDoc(key string, freight int64, day int) domain.TransportDocument {
	return domain.TransportDocument{
		AccessKey:        key,
		IssuedAt:         time.Date(2025, 9, day, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
		IssuerName:       "Transvila Transportes Ltda",
		ShipperName:      "Vila Nova",
		LinkedInvoiceKey: "NFE-" + key,
		FreightValue:     decimal.NewFromInt(freight),
		ComplianceStatus: domain.ComplianceCompliant,
		Payable:          true,
		Duplicate:        domain.Duplicate{Status: domain.DuplicateUnique},
		CIOT:             domain.CIOT{Status: domain.CIOTNotApplicable},
		Financial:        domain.Financial{Link: domain.FinancialLinked, PaymentStatus: domain.PaymentOpen},
	}
}

func sampleDocs() []domain.TransportDocument {
	ok := payableDoc("OK", 1000, 1)

	noCIOT := payableDoc("CIOT", 500, 2)
	noCIOT.CIOT = domain.CIOT{Code: "123", Status: domain.CIOTAbsent}

	noInvoice := payableDoc("SEMNF", 300, 3)
	noInvoice.LinkedInvoiceKey = ""
	noInvoice.ShipperName = "Focomix"

	paid := payableDoc("PAGO", 200, 4)
	paid.Financial = domain.Financial{Link: domain.FinancialSettled, PaymentStatus: domain.PaymentPaid}

	return []domain.TransportDocument{ok, noCIOT, noInvoice, paid}
}

func TestApplySituation(t *testing.T) {
	docs := sampleDocs()

	payable := Apply(docs, Filter{Situation: SituationPayable})
	require.Len(t, payable, 2)
	assert.Equal(t, "OK", payable[0].Document.AccessKey)
	assert.Equal(t, "—", payable[0].Reasons())

	blocked := Apply(docs, Filter{Situation: SituationBlocked})
	require.Len(t, blocked, 2)
	assert.Equal(t, "CIOT ausente", blocked[0].Reasons())
	assert.Equal(t, "Sem NF-e", blocked[1].Reasons())

	paid := Apply(docs, Filter{Situation: SituationPaid})
	require.Len(t, paid, 1)
	assert.Equal(t, "PAGO", paid[0].Document.AccessKey)

	assert.Len(t, Apply(docs, Filter{}), 4)
}

func TestApplyIssuerShipperAndDates(t *testing.T) {
	docs := sampleDocs()

	assert.Len(t, Apply(docs, Filter{Shipper: "focomix"}), 1)
	assert.Len(t, Apply(docs, Filter{Issuer: "Outra"}), 0)

	rows := Apply(docs, Filter{From: "2025-09-02", To: "2025-09-03"})
	require.Len(t, rows, 2)
	assert.Equal(t, "CIOT", rows[0].Document.AccessKey)
	assert.Equal(t, "SEMNF", rows[1].Document.AccessKey)
}

func TestIndicators(t *testing.T) {
	k := Indicators(Apply(sampleDocs(), Filter{}))

	assert.Equal(t, 4, k.Total)
	assert.Equal(t, 2, k.PayableNow)
	assert.Equal(t, 2, k.Blocked)
	assert.Equal(t, 1, k.Paid)
	assert.Equal(t, "1200", k.PayableValue.String())
	assert.Equal(t, "800", k.BlockedValue.String())
}

func TestRowReasonsJoined(t *testing.T) {
	d := payableDoc("X", 100, 1)
	d.LinkedInvoiceKey = ""
	d.Duplicate.Status = domain.DuplicatePossible
	d.Payable = false

	row := NewRow(d)
	assert.False(t, row.Ready)
	assert.Equal(t, "Duplicidade, Sem NF-e, Não pagável", row.Reasons())
}
