// cmd/web/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/config"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ingest"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ratetable"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	responses.InitLogger()
	logger := responses.Logger()
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.FromEnv(logger)

	registry, err := ratetable.NewRegistry(ratetable.DefaultTables())
	if err != nil {
		logger.WithField("field", "tabelas-frete").Fatal(err.Error())
	}
	deltaService, err := delta.NewService(cfg.Delta, delta.DefaultLines(), logger)
	if err != nil {
		logger.WithField("field", "consultoria-delta").Fatal(err.Error())
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	auditService := audit.NewService(audit.Settings{
		PartnerTaxID:     cfg.PartnerTaxID,
		RateTolerancePct: cfg.RateTolerancePct,
	}, registry, logger, m)

	router := api.NewRouter(api.Dependencies{
		Ingest:         ingest.NewService(cfg.KnownShippers, logger),
		Audit:          auditService,
		Urban:          urban.NewService(logger),
		Delta:          deltaService,
		RateTables:     registry,
		Metrics:        m,
		Logger:         logger,
		Production:     cfg.Production,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{"field": "http", "port": cfg.Port}).Info("servidor iniciado")

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("field", "http").Fatal("falha ao iniciar o servidor: " + err.Error())
		}
		return
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("field", "http").Error("falha no desligamento: " + err.Error())
	}
	logger.WithField("field", "http").Info("servidor encerrado")
}
