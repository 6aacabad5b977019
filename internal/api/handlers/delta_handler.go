// internal/api/handlers/delta_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/report"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// DeltaHandler atende a Consultoria Delta (subcontratação em duas pernas).
type DeltaHandler struct {
	service delta.Service
}

func NewDeltaHandler(service delta.Service) *DeltaHandler {
	return &DeltaHandler{service: service}
}

type deltaLineView struct {
	delta.Line
	PaymentAvailable bool `json:"pagamento_disponivel"`
}

func (h *DeltaHandler) views(lines []delta.Line) []deltaLineView {
	out := make([]deltaLineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, deltaLineView{Line: l, PaymentAvailable: h.service.PaymentAvailable(l)})
	}
	return out
}

func (h *DeltaHandler) HandleGetConfig(c *gin.Context) {
	responses.Success(c, http.StatusOK, h.service.Config())
}

func (h *DeltaHandler) HandleUpdateConfig(c *gin.Context) {
	var cfg delta.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		responses.Error(c, http.StatusBadRequest, "JSON da configuração inválido", err.Error())
		return
	}
	if err := h.service.UpdateConfig(cfg); err != nil {
		responses.Error(c, http.StatusBadRequest, "Configuração inválida", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, h.service.Config())
}

func (h *DeltaHandler) HandleLines(c *gin.Context) {
	f := delta.Filter{
		Status:  domain.ComplianceStatus(strings.TrimSpace(c.Query("status"))),
		Payable: strings.TrimSpace(c.Query("pagavel")),
		Rule:    strings.TrimSpace(c.Query("regra")),
	}
	since, err := queryTime(c, "desde")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	f.Since = since
	responses.Success(c, http.StatusOK, h.views(h.service.Lines(f)))
}

func (h *DeltaHandler) HandleAdd(c *gin.Context) {
	var line delta.Line
	if err := c.ShouldBindJSON(&line); err != nil {
		responses.Error(c, http.StatusBadRequest, "JSON da linha inválido", err.Error())
		return
	}
	created, err := h.service.Add(line)
	if errors.Is(err, delta.ErrLineExists) {
		responses.Error(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Linha inválida", err.Error())
		return
	}
	responses.Success(c, http.StatusCreated, h.views([]delta.Line{created})[0])
}

type keysRequest struct {
	Keys   []string `json:"chaves"`
	Format string   `json:"formato"`
}

// HandleRecalculate sem chaves recalcula todas as linhas.
func (h *DeltaHandler) HandleRecalculate(c *gin.Context) {
	var req keysRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.Error(c, http.StatusBadRequest, "JSON inválido", err.Error())
			return
		}
	}
	lines, err := h.service.Recalculate(req.Keys)
	if err != nil {
		responses.Error(c, http.StatusNotFound, err.Error())
		return
	}
	responses.Success(c, http.StatusOK, h.views(lines))
}

// HandleExport exporta as linhas escolhidas, ou todas sem chaves.
func (h *DeltaHandler) HandleExport(c *gin.Context) {
	var req keysRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.Error(c, http.StatusBadRequest, "JSON inválido", err.Error())
			return
		}
	}
	lines := h.service.Lines(delta.Filter{})
	if len(req.Keys) > 0 {
		want := make(map[string]bool, len(req.Keys))
		for _, k := range req.Keys {
			want[k] = true
		}
		selected := lines[:0]
		for _, l := range lines {
			if want[l.InvoiceKey] {
				selected = append(selected, l)
			}
		}
		lines = selected
	}
	format := req.Format
	if format == "" {
		format = c.Query("formato")
	}
	sendExport(c, format, "ConsultoriaDelta", report.DeltaLines(lines))
}

type sendToPaymentRequest struct {
	Key string `json:"chave" binding:"required"`
}

func (h *DeltaHandler) HandleSendToPayment(c *gin.Context) {
	var req sendToPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Informe a chave da NF-e", err.Error())
		return
	}
	line, err := h.service.SendToPayment(req.Key)
	switch {
	case errors.Is(err, delta.ErrLineNotFound):
		responses.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, delta.ErrPaymentUnavailable):
		responses.Error(c, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		responses.Error(c, http.StatusInternalServerError, "Erro ao enviar ao financeiro", err.Error())
	default:
		responses.Success(c, http.StatusOK, h.views([]delta.Line{line})[0])
	}
}
