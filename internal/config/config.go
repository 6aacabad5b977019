package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
)

// Config é a configuração do processo, lida do ambiente.
type Config struct {
	Port             string
	Production       bool
	AllowedOrigins   []string
	PartnerTaxID     string
	KnownShippers    []string
	RateTolerancePct decimal.Decimal
	Delta            delta.Config
}

const (
	defaultPort          = "8080"
	defaultPartnerTaxID  = "12345678000123"
	defaultKnownShippers = "Vila Nova,Focomix,V2 Farma"
	defaultRateTolerance = "2.0"
)

// FromEnv lê as variáveis de ambiente. Valores numéricos inválidos voltam ao
// padrão com um aviso no log.
func FromEnv(logger *logrus.Logger) Config {
	log := logger.WithField("module", "config")
	deltaDefaults := delta.DefaultConfig()

	cfg := Config{
		Port:             stringFromEnv("PORT", defaultPort),
		Production:       strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production"),
		AllowedOrigins:   splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		PartnerTaxID:     stringFromEnv("PARTNER_TAX_ID", defaultPartnerTaxID),
		KnownShippers:    splitAndTrim(stringFromEnv("KNOWN_SHIPPERS", defaultKnownShippers)),
		RateTolerancePct: decimalFromEnv(log, "RATE_TOLERANCE_PCT", decimal.RequireFromString(defaultRateTolerance)),
		Delta: delta.Config{
			ContractorPct:   decimalFromEnv(log, "DELTA_CONTRACTOR_PCT", deltaDefaults.ContractorPct),
			ExecutorPct:     decimalFromEnv(log, "DELTA_EXECUTOR_PCT", deltaDefaults.ExecutorPct),
			ExecutorMinimum: decimalFromEnv(log, "DELTA_EXECUTOR_MIN", deltaDefaults.ExecutorMinimum),
			MinimumLimit:    decimalFromEnv(log, "DELTA_EXECUTOR_MIN_LIMIT", deltaDefaults.MinimumLimit),
			TolerancePct:    decimalFromEnv(log, "DELTA_TOLERANCE_PCT", deltaDefaults.TolerancePct),
		},
	}
	return cfg
}

func stringFromEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// decimalFromEnv aceita ponto ou vírgula decimal. Só valores positivos.
func decimalFromEnv(log *logrus.Entry, key string, def decimal.Decimal) decimal.Decimal {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	d, err := decimal.NewFromString(strings.Replace(val, ",", ".", 1))
	if err != nil || !d.IsPositive() {
		log.WithFields(logrus.Fields{"funcName": "FromEnv", "variavel": key, "valor": val}).
			Warn("valor inválido, usando padrão")
		return def
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
