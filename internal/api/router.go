// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/handlers"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/middleware"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ingest"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ratetable"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/metrics"
)

// Dependencies são os serviços já montados que o roteador expõe.
type Dependencies struct {
	Ingest     ingest.Service
	Audit      audit.Service
	Urban      urban.Service
	Delta      delta.Service
	RateTables *ratetable.Registry
	Metrics    *metrics.Metrics
	Logger     *logrus.Logger

	Production     bool
	AllowedOrigins []string
	// MetricsHandler padrão é promhttp.Handler().
	MetricsHandler http.Handler
}

// corsConfig: em produção só as origens de CORS_ALLOWED_ORIGINS; sem lista,
// nenhuma origem é aceita. Fora de produção, qualquer origem.
func corsConfig(production bool, origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if production {
		if len(origins) == 0 {
			cfg.AllowOriginFunc = func(string) bool { return false }
		} else {
			cfg.AllowOrigins = origins
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Authorization", "Content-Type")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition")
	cfg.AllowCredentials = true
	return cfg
}

func NewRouter(deps Dependencies) *gin.Engine {
	auditHandler := handlers.NewAuditHandler(deps.Ingest, deps.Audit, deps.Urban)
	paymentHandler := handlers.NewPaymentHandler(deps.Audit)
	rateHandler := handlers.NewRateTableHandler(deps.RateTables, deps.Audit)
	urbanHandler := handlers.NewUrbanHandler(deps.Urban)
	deltaHandler := handlers.NewDeltaHandler(deps.Delta)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(deps.Production, deps.AllowedOrigins)))

	apiV1 := router.Group("/api/v1")
	{
		docs := apiV1.Group("/documentos")
		docs.POST("/importar", auditHandler.HandleImport)
		docs.GET("", auditHandler.HandleList)
		docs.GET("/kpis", auditHandler.HandleKPIs)
		docs.GET("/exportar", auditHandler.HandleExport)
		docs.POST("/verificar-compliance", auditHandler.HandleVerify)
		docs.POST("/conferir-lote", auditHandler.HandleBatchReview)
		docs.GET("/:chave", auditHandler.HandleGet)
		docs.POST("/:chave/conferir", auditHandler.HandleReview)

		apiV1.GET("/cte-recebidos", auditHandler.HandleReceived)
		apiV1.GET("/importacoes", auditHandler.HandleLogs)
		apiV1.GET("/nfe-embarcador", auditHandler.HandleCoverage)

		apiV1.GET("/pagamentos", paymentHandler.HandleList)
		apiV1.GET("/pagamentos/exportar", paymentHandler.HandleExport)
		apiV1.POST("/pagamentos/:chave/pagar", paymentHandler.HandlePay)

		apiV1.GET("/tabelas-frete", rateHandler.HandleList)
		apiV1.PUT("/tabelas-frete", rateHandler.HandleReplace)

		loads := apiV1.Group("/fretistas")
		loads.GET("", urbanHandler.HandleList)
		loads.POST("", urbanHandler.HandleRegister)
		loads.GET("/exportar", urbanHandler.HandleExport)
		loads.POST("/:id/entregue", urbanHandler.HandleDelivered)
		loads.POST("/:id/nfse", urbanHandler.HandleAttachNFSe)
		loads.POST("/:id/verificar", urbanHandler.HandleVerify)

		consult := apiV1.Group("/consultoria-delta")
		consult.GET("/configuracoes", deltaHandler.HandleGetConfig)
		consult.PUT("/configuracoes", deltaHandler.HandleUpdateConfig)
		consult.GET("/auditorias", deltaHandler.HandleLines)
		consult.POST("/auditorias", deltaHandler.HandleAdd)
		consult.POST("/recalcular", deltaHandler.HandleRecalculate)
		consult.POST("/exportar", deltaHandler.HandleExport)
		consult.POST("/enviar-pagamento", deltaHandler.HandleSendToPayment)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(metricsHandler))
	router.NoRoute(func(c *gin.Context) {
		responses.Error(c, http.StatusNotFound, "Rota não encontrada")
	})
	return router
}
