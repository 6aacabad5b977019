package ingest

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeText remove acentos e pontuação e deixa em maiúsculas.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// parseAmount aceita tanto o formato do XML (1234.56) quanto o brasileiro
// (1.234,56). Valor vazio ou ilegível vira zero.
func parseAmount(val string) decimal.Decimal {
	s := strings.TrimSpace(val)
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		v, err := parseBRLNumber(s)
		if err != nil {
			return decimal.Zero
		}
		return v
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func parseBRLNumber(val string) (decimal.Decimal, error) {
	s := strings.TrimSpace(val)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(val string) (time.Time, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func defaultString(val, fallback string) string {
	if s := strings.TrimSpace(val); s != "" {
		return s
	}
	return strings.TrimSpace(fallback)
}

func joinCity(city, uf string) string {
	city, uf = strings.TrimSpace(city), strings.TrimSpace(uf)
	if city == "" {
		return ""
	}
	if uf == "" {
		return city
	}
	return city + "/" + uf
}
