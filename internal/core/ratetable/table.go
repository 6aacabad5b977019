package ratetable

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// Kind é a forma de cálculo da tabela contratada.
type Kind string

const (
	KindRevenuePercent Kind = "Percentual sobre faturamento"
	KindWeightBand     Kind = "Faixa de peso"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

var validate = validator.New()

// Table é uma tabela de frete contratada entre transportador e embarcador.
type Table struct {
	Carrier   string          `json:"transportador" validate:"required"`
	Shipper   string          `json:"embarcador" validate:"required"`
	Kind      Kind            `json:"tipo" validate:"required"`
	Percent   decimal.Decimal `json:"percentual"`
	UpToKg    decimal.Decimal `json:"ate_kg"`
	BandValue decimal.Decimal `json:"valor"`
	// PerKm é só informativo: o CT-e não traz a distância percorrida.
	PerKm     decimal.Decimal `json:"adicional_por_km"`
	Toll      decimal.Decimal `json:"pedagio"`
	ValidFrom string          `json:"vigencia_inicio" validate:"required,datetime=2006-01-02"`
	ValidTo   string          `json:"vigencia_fim" validate:"required,datetime=2006-01-02"`
}

func (t Table) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("tabela %s/%s inválida: %w", t.Carrier, t.Shipper, err)
	}
	switch t.Kind {
	case KindRevenuePercent:
		if !t.Percent.IsPositive() {
			return fmt.Errorf("tabela %s/%s: percentual deve ser maior que zero", t.Carrier, t.Shipper)
		}
	case KindWeightBand:
		if !t.UpToKg.IsPositive() || !t.BandValue.IsPositive() {
			return fmt.Errorf("tabela %s/%s: faixa de peso exige ate_kg e valor", t.Carrier, t.Shipper)
		}
	default:
		return fmt.Errorf("tabela %s/%s: tipo desconhecido %q", t.Carrier, t.Shipper, t.Kind)
	}
	if t.Toll.IsNegative() {
		return errors.New("pedágio não pode ser negativo")
	}
	if t.PerKm.IsNegative() {
		return errors.New("adicional por km não pode ser negativo")
	}
	if t.ValidTo < t.ValidFrom {
		return fmt.Errorf("tabela %s/%s: fim da vigência anterior ao início", t.Carrier, t.Shipper)
	}
	return nil
}

// ActiveOn indica se a data (no fuso do documento) está dentro da vigência.
func (t Table) ActiveOn(when time.Time) bool {
	day := when.Format(dateLayout)
	return day >= t.ValidFrom && day <= t.ValidTo
}

// Status devolve "Ativa" ou "Expirada" em relação a uma data de referência.
func (t Table) Status(now time.Time) string {
	if now.Format(dateLayout) > t.ValidTo {
		return "Expirada"
	}
	return "Ativa"
}

// Applies indica se a tabela cobre o CT-e: mesmo embarcador, transportador
// contido na razão social do emitente e emissão dentro da vigência.
func (t Table) Applies(doc domain.TransportDocument) bool {
	if !strings.EqualFold(strings.TrimSpace(doc.ShipperName), strings.TrimSpace(t.Shipper)) {
		return false
	}
	carrier := strings.ToUpper(doc.CarrierName)
	if !strings.Contains(carrier, strings.ToUpper(strings.TrimSpace(t.Carrier))) {
		return false
	}
	return t.ActiveOn(doc.IssuedAt)
}

// Expected calcula o frete previsto. ok=false quando a tabela não cobre o
// peso da carga.
func (t Table) Expected(doc domain.TransportDocument) (decimal.Decimal, bool) {
	switch t.Kind {
	case KindRevenuePercent:
		return doc.CargoValue.Mul(t.Percent).Div(hundred).Add(t.Toll).Round(2), true
	case KindWeightBand:
		if doc.CargoWeightKg.GreaterThan(t.UpToKg) {
			return decimal.Zero, false
		}
		return t.BandValue.Add(t.Toll).Round(2), true
	}
	return decimal.Zero, false
}

// Compare confronta o frete cobrado com o previsto pela tabela. Diferença
// percentual acima da tolerância marca o CT-e como Divergente.
func Compare(doc domain.TransportDocument, t Table, tolerancePct decimal.Decimal) domain.RateComparison {
	expected, ok := t.Expected(doc)
	if !ok || !expected.IsPositive() {
		return pending()
	}
	delta := doc.FreightValue.Sub(expected)
	exactPct := delta.Div(expected).Mul(hundred)

	status := domain.AuditCompliant
	if exactPct.Abs().GreaterThan(tolerancePct) {
		status = domain.AuditDivergent
	}
	return domain.RateComparison{
		Expected: expected,
		Delta:    delta.Round(2),
		DeltaPct: exactPct.Round(2),
		Status:   status,
	}
}

func pending() domain.RateComparison {
	return domain.RateComparison{
		Expected: decimal.Zero,
		Delta:    decimal.Zero,
		DeltaPct: decimal.Zero,
		Status:   domain.AuditPending,
	}
}

// DefaultTables são as tabelas contratadas com a Transvila carregadas na
// inicialização.
func DefaultTables() []Table {
	return []Table{
		{
			Carrier: "Transvila", Shipper: "Vila Nova", Kind: KindRevenuePercent,
			Percent: decimal.RequireFromString("4.5"), Toll: decimal.NewFromInt(80),
			ValidFrom: "2025-07-01", ValidTo: "2025-12-31",
		},
		{
			Carrier: "Transvila", Shipper: "Focomix", Kind: KindWeightBand,
			UpToKg: decimal.NewFromInt(10000), BandValue: decimal.NewFromInt(1800),
			ValidFrom: "2025-06-01", ValidTo: "2025-12-31",
		},
		{
			Carrier: "Transvila", Shipper: "V2 Farma", Kind: KindRevenuePercent,
			Percent: decimal.RequireFromString("3.9"), Toll: decimal.NewFromInt(60),
			ValidFrom: "2025-05-01", ValidTo: "2025-11-30",
		},
	}
}
