package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRows(t *testing.T) {
	docs := seeded(t).Documents()
	// segundo CT-e para a mesma NF-e não gera outra linha
	again := doc("RECENT-2", "5", 2420, fixedNow)
	again.LinkedInvoiceKey = "NFE-RECENT"
	docs = append(docs, again)

	rows := InvoiceRows(docs, CoverageFilter{})
	require.Len(t, rows, 4)
	assert.Equal(t, "NFE-RECENT", rows[0].InvoiceKey)
	assert.Equal(t, "RECENT", rows[0].CTeKey)
	assert.Equal(t, InvoiceLinked, rows[0].Status)
	assert.Equal(t, InvoiceAwaiting, rows[3].Status)
	assert.Equal(t, "SEMNF", rows[3].CTeKey)
	assert.Empty(t, rows[3].InvoiceKey)

	k := Coverage(rows)
	assert.Equal(t, CoverageKPIs{Total: 4, Linked: 3, Awaiting: 1, CoveragePct: 75}, k)

	tests := []struct {
		name   string
		filter CoverageFilter
		want   int
	}{
		{"aguardando", CoverageFilter{Status: "aguardando"}, 1},
		{"vinculada", CoverageFilter{Status: InvoiceLinked}, 3},
		{"embarcador", CoverageFilter{Shipper: "focomix"}, 1},
		{"datas", CoverageFilter{From: "2025-09-01", To: "2025-09-06"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, InvoiceRows(docs, tt.filter), tt.want)
		})
	}
}

func TestCoverageRounding(t *testing.T) {
	rows := []InvoiceRow{{Status: InvoiceLinked}, {Status: InvoiceLinked}, {Status: InvoiceAwaiting}}
	assert.Equal(t, 67, Coverage(rows).CoveragePct)

	rows = []InvoiceRow{{Status: InvoiceLinked}}
	for i := 0; i < 7; i++ {
		rows = append(rows, InvoiceRow{Status: InvoiceAwaiting})
	}
	assert.Equal(t, 13, Coverage(rows).CoveragePct)

	assert.Equal(t, 0, Coverage(nil).CoveragePct)
}
