// internal/api/handlers/ratetable_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ratetable"
)

type RateTableHandler struct {
	registry *ratetable.Registry
	audit    audit.Service
	now      func() time.Time
}

func NewRateTableHandler(registry *ratetable.Registry, auditService audit.Service) *RateTableHandler {
	return &RateTableHandler{registry: registry, audit: auditService, now: time.Now}
}

type rateTableView struct {
	ratetable.Table
	Status string `json:"status"`
}

func (h *RateTableHandler) HandleList(c *gin.Context) {
	now := h.now()
	tables := h.registry.List()
	out := make([]rateTableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, rateTableView{Table: t, Status: t.Status(now)})
	}
	responses.Success(c, http.StatusOK, out)
}

// HandleReplace troca todas as tabelas de uma vez e refaz a comparação dos
// CT-es já importados.
func (h *RateTableHandler) HandleReplace(c *gin.Context) {
	var tables []ratetable.Table
	if err := c.ShouldBindJSON(&tables); err != nil {
		responses.Error(c, http.StatusBadRequest, "JSON das tabelas inválido", err.Error())
		return
	}
	if err := h.registry.Replace(tables); err != nil {
		responses.Error(c, http.StatusBadRequest, "Tabela de frete inválida", err.Error())
		return
	}
	h.audit.ReapplyRates()
	h.HandleList(c)
}
