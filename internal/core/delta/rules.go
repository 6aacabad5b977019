// Package delta audita a operação da Consultoria Delta (Qubit → Transvila →
// Nikkey). Aqui o fluxo fiscal é invertido: a CONTRATANTE destaca ICMS e é
// quem recebe, a EXECUTORA nunca é pagável. Por isso estas regras ficam
// separadas do motor de compliance principal.
package delta

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

type ICMSMark string

const (
	ICMSHighlighted    ICMSMark = "Destacado"
	ICMSNotHighlighted ICMSMark = "Sem destaque"
	ICMSUnknown        ICMSMark = "—"
)

var hundred = decimal.NewFromInt(100)

// Config são os parâmetros das duas pernas e a tolerância do delta.
type Config struct {
	ContractorPct   decimal.Decimal `json:"contratante_percentual" validate:"gt=0"`
	ExecutorPct     decimal.Decimal `json:"executora_percentual" validate:"gt=0"`
	ExecutorMinimum decimal.Decimal `json:"executora_minimo" validate:"gt=0"`
	MinimumLimit    decimal.Decimal `json:"executora_limite_minimo_nf" validate:"gt=0"`
	TolerancePct    decimal.Decimal `json:"tolerancia_percentual" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuração inválida: %w", err)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		ContractorPct:   decimal.RequireFromString("3.3"),
		ExecutorPct:     decimal.RequireFromString("2.5"),
		ExecutorMinimum: decimal.RequireFromString("15.00"),
		MinimumLimit:    decimal.RequireFromString("600.00"),
		TolerancePct:    decimal.RequireFromString("2.0"),
	}
}

// MinimumRule e PercentRule são os rótulos da regra aplicada à EXECUTORA,
// por exemplo "Mín. 15" e "2,5%".
func (c Config) MinimumRule() string {
	return "Mín. " + brNumber(c.ExecutorMinimum)
}

func (c Config) PercentRule() string {
	return brNumber(c.ExecutorPct) + "%"
}

func brNumber(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// Leg é uma perna do transporte.
type Leg struct {
	Role     domain.SubcontractingRole `json:"papel"`
	Carrier  string                    `json:"transportadora"`
	Rule     string                    `json:"regra_aplicada,omitempty"`
	Expected decimal.Decimal           `json:"esperado"`
	CTeValue *decimal.Decimal          `json:"cte_valor"`
	ICMS     ICMSMark                  `json:"icms"`
	Payable  bool                      `json:"pagavel"`
}

// Delta é nulo enquanto não houver CT-e da EXECUTORA.
type Delta struct {
	Value *decimal.Decimal `json:"valor"`
	Pct   *decimal.Decimal `json:"perc"`
}

type Line struct {
	InvoiceKey            string                  `json:"nfe_chave" validate:"required"`
	IssuedOn              string                  `json:"emissao" validate:"required,datetime=2006-01-02"`
	InvoiceValue          decimal.Decimal         `json:"valor_nf" validate:"gt=0"`
	ContractorLeg         Leg                     `json:"perna1"`
	ExecutorLeg           Leg                     `json:"perna2"`
	Delta                 Delta                   `json:"delta"`
	ExecutorInvoiceLinked bool                    `json:"nf_vinculada_executora"`
	Compliance            domain.ComplianceStatus `json:"compliance"`
	SentToPayment         bool                    `json:"enviado_pagamento"`

	// exactPct é o delta percentual sem arredondamento, usado na tolerância.
	exactPct *decimal.Decimal
}

// Calculate recalcula as duas pernas, o delta e a compliance de uma linha.
// O valor do CT-e de cada perna é dado de entrada e não é alterado.
func Calculate(cfg Config, line Line) Line {
	value := line.InvoiceValue

	line.ContractorLeg.Role = domain.RoleContractor
	line.ContractorLeg.Expected = value.Mul(cfg.ContractorPct).Div(hundred).Round(2)
	line.ContractorLeg.Payable = line.ContractorLeg.ICMS == ICMSHighlighted

	line.ExecutorLeg.Role = domain.RoleExecutor
	expected := cfg.ExecutorMinimum
	if value.LessThanOrEqual(cfg.MinimumLimit) {
		line.ExecutorLeg.Expected = cfg.ExecutorMinimum
		line.ExecutorLeg.Rule = cfg.MinimumRule()
	} else {
		expected = value.Mul(cfg.ExecutorPct).Div(hundred)
		line.ExecutorLeg.Expected = expected.Round(2)
		line.ExecutorLeg.Rule = cfg.PercentRule()
	}
	line.ExecutorLeg.Payable = false

	// Só os valores exibidos são arredondados; a tolerância compara o exato.
	line.Delta = Delta{}
	line.exactPct = nil
	if line.ExecutorLeg.CTeValue != nil {
		diff := line.ExecutorLeg.CTeValue.Sub(expected)
		pct := decimal.Zero
		if expected.IsPositive() {
			pct = diff.Div(expected).Mul(hundred)
		}
		dv, dp := diff.Round(2), pct.Round(2)
		line.Delta = Delta{Value: &dv, Pct: &dp}
		line.exactPct = &pct
	}

	line.Compliance = lineCompliance(cfg, line)
	return line
}

func lineCompliance(cfg Config, line Line) domain.ComplianceStatus {
	switch {
	case line.ExecutorLeg.CTeValue == nil || !line.ExecutorInvoiceLinked:
		return domain.CompliancePending
	case line.ContractorLeg.ICMS != ICMSHighlighted:
		return domain.ComplianceNonCompliant
	case line.ExecutorLeg.ICMS == ICMSHighlighted:
		return domain.ComplianceNonCompliant
	case withinTolerance(cfg, line):
		return domain.ComplianceCompliant
	default:
		return domain.ComplianceNonCompliant
	}
}

// PaymentAvailable diz se a linha pode ir ao financeiro: CONTRATANTE pagável,
// linha conforme e delta dentro da tolerância.
func PaymentAvailable(cfg Config, line Line) bool {
	return line.ContractorLeg.Payable &&
		line.Compliance == domain.ComplianceCompliant &&
		withinTolerance(cfg, line)
}

// withinTolerance usa o percentual exato quando a linha passou por Calculate.
func withinTolerance(cfg Config, line Line) bool {
	pct := line.exactPct
	if pct == nil {
		pct = line.Delta.Pct
	}
	return pct != nil && pct.Abs().LessThanOrEqual(cfg.TolerancePct)
}
