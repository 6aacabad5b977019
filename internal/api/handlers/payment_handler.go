// internal/api/handlers/payment_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/payments"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/report"
)

type PaymentHandler struct {
	audit audit.Service
	now   func() time.Time
}

func NewPaymentHandler(auditService audit.Service) *PaymentHandler {
	return &PaymentHandler{audit: auditService, now: time.Now}
}

type paymentsResponse struct {
	Rows []payments.Row `json:"linhas"`
	KPIs payments.KPIs  `json:"kpis"`
}

func (h *PaymentHandler) rows(c *gin.Context) ([]payments.Row, error) {
	f := payments.Filter{
		Situation: payments.Situation(strings.TrimSpace(c.Query("situacao"))),
		Issuer:    c.Query("prestador"),
		Shipper:   c.Query("embarcador"),
	}
	switch f.Situation {
	case payments.SituationAll, payments.SituationPayable, payments.SituationBlocked, payments.SituationPaid:
	default:
		return nil, errors.New("situacao deve ser pagavel, bloqueado ou pago")
	}
	var err error
	if f.From, err = queryDate(c, "de"); err != nil {
		return nil, err
	}
	if f.To, err = queryDate(c, "ate"); err != nil {
		return nil, err
	}
	return payments.Apply(h.audit.Documents(), f), nil
}

func (h *PaymentHandler) HandleList(c *gin.Context) {
	rows, err := h.rows(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, paymentsResponse{Rows: rows, KPIs: payments.Indicators(rows)})
}

func (h *PaymentHandler) HandleExport(c *gin.Context) {
	rows, err := h.rows(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	sendExport(c, c.Query("formato"), "Pagamentos", report.Payments(rows))
}

// HandlePay registra o pagamento. Só passa pela trava completa.
func (h *PaymentHandler) HandlePay(c *gin.Context) {
	doc, err := h.audit.RegisterPayment(c.Param("chave"), h.now())
	switch {
	case errors.Is(err, audit.ErrDocumentNotFound):
		responses.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrAlreadyPaid):
		responses.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, audit.ErrNotPayable):
		responses.Error(c, http.StatusUnprocessableEntity, audit.ErrNotPayable.Error(), payments.NewRow(doc).BlockReasons...)
	case err != nil:
		responses.Error(c, http.StatusInternalServerError, "Erro ao registrar pagamento", err.Error())
	default:
		responses.Success(c, http.StatusOK, doc)
	}
}
