package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "SAO JOAO TRANSPORTES LTDA", normalizeText("  São João - Transportes Ltda. "))
	assert.Equal(t, "V2 FARMA", normalizeText("v2   farma"))
	assert.Equal(t, "", normalizeText("..."))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1500.00", "1500"},
		{"1.234,56", "1234.56"},
		{"0,5", "0.5"},
		{"", "0"},
		{"abc", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAmount(tt.in).String())
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := parseTimestamp("2025-09-01T23:30:00-03:00")
	assert.True(t, ok)
	// a data considerada é a do fuso do próprio documento
	assert.Equal(t, "2025-09-01", ts.Format("2006-01-02"))

	_, ok = parseTimestamp("2025-09-01")
	assert.True(t, ok)

	_, ok = parseTimestamp("01/09/2025")
	assert.False(t, ok)
}

func TestShipperResolver(t *testing.T) {
	r := NewShipperResolver(knownShippers)

	assert.Equal(t, "Vila Nova", r.Resolve("VILA NOVA"))
	assert.Equal(t, "V2 Farma", r.Resolve("v2 farma distribuidora"))
	assert.Equal(t, "Focomix", r.Resolve("Focomix Indústria de Argamassas"))
	assert.Equal(t, "Transportadora Horizonte", r.Resolve(" Transportadora Horizonte "))
	assert.Equal(t, "", r.Resolve(""))
}

func TestShipperResolverWithoutKnownNames(t *testing.T) {
	r := NewShipperResolver(nil)
	assert.Equal(t, "Qualquer Nome", r.Resolve("Qualquer Nome"))
}
