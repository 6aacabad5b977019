// internal/api/handlers/urban_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/report"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// UrbanHandler atende a tela de fretistas urbanos.
type UrbanHandler struct {
	service urban.Service
}

func NewUrbanHandler(service urban.Service) *UrbanHandler {
	return &UrbanHandler{service: service}
}

type loadsResponse struct {
	Loads []urban.Load `json:"cargas"`
	KPIs  urban.KPIs   `json:"kpis"`
}

func (h *UrbanHandler) filter(c *gin.Context) (urban.Filter, error) {
	f := urban.Filter{
		Shipper:    strings.TrimSpace(c.Query("embarcador")),
		Carrier:    strings.TrimSpace(c.Query("fretista")),
		Status:     urban.LoadStatus(strings.TrimSpace(c.Query("status"))),
		Compliance: domain.ComplianceStatus(strings.TrimSpace(c.Query("compliance"))),
		Situation:  urban.Situation(strings.TrimSpace(c.Query("situacao"))),
	}
	var err error
	if f.From, err = queryTime(c, "de"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "ate"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *UrbanHandler) HandleList(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	loads := h.service.List(f)
	responses.Success(c, http.StatusOK, loadsResponse{Loads: loads, KPIs: urban.Summarize(loads)})
}

func (h *UrbanHandler) HandleExport(c *gin.Context) {
	f, err := h.filter(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	sendExport(c, c.Query("formato"), "Fretistas", report.Loads(h.service.List(f)))
}

func (h *UrbanHandler) HandleRegister(c *gin.Context) {
	var load urban.Load
	if err := c.ShouldBindJSON(&load); err != nil {
		responses.Error(c, http.StatusBadRequest, "JSON da carga inválido", err.Error())
		return
	}
	created, err := h.service.Register(load)
	if errors.Is(err, urban.ErrLoadExists) {
		responses.Error(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Carga inválida", err.Error())
		return
	}
	responses.Success(c, http.StatusCreated, created)
}

func (h *UrbanHandler) HandleDelivered(c *gin.Context) {
	h.respond(c, h.service.MarkDelivered)
}

func (h *UrbanHandler) HandleVerify(c *gin.Context) {
	h.respond(c, h.service.Verify)
}

type attachNFSeRequest struct {
	Key      string          `json:"chave" binding:"required"`
	ISSRate  decimal.Decimal `json:"iss_aliquota"`
	ISSValue decimal.Decimal `json:"iss_valor"`
}

func (h *UrbanHandler) HandleAttachNFSe(c *gin.Context) {
	var req attachNFSeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Informe a chave da NFS-e", err.Error())
		return
	}
	h.respond(c, func(id string) (urban.Load, error) {
		return h.service.AttachNFSe(id, req.Key, req.ISSRate, req.ISSValue)
	})
}

func (h *UrbanHandler) respond(c *gin.Context, action func(id string) (urban.Load, error)) {
	load, err := action(c.Param("id"))
	if errors.Is(err, urban.ErrLoadNotFound) {
		responses.Error(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		responses.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	responses.Success(c, http.StatusOK, load)
}
