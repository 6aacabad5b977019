// internal/api/handlers/audit_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ingest"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/report"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// AuditHandler lida com a importação e a auditoria dos CT-es.
type AuditHandler struct {
	ingest ingest.Service
	audit  audit.Service
	urban  urban.Service
}

func NewAuditHandler(ingestService ingest.Service, auditService audit.Service, urbanService urban.Service) *AuditHandler {
	return &AuditHandler{
		ingest: ingestService,
		audit:  auditService,
		urban:  urbanService,
	}
}

type importResponse struct {
	Log         domain.ImportLog `json:"log"`
	Failures    []ingest.Failure `json:"falhas"`
	LinkedLoads int              `json:"cargas_vinculadas"`
	ServiceDocs int              `json:"nfses"`
	CIOTRecords int              `json:"ciots"`
}

// HandleImport recebe os XMLs (campo xmlFiles) e o usuário opcional.
func (h *AuditHandler) HandleImport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Formulário multipart inválido")
		return
	}
	headers := form.File["xmlFiles"]
	if len(headers) == 0 {
		responses.Error(c, http.StatusBadRequest, "Nenhum arquivo XML foi enviado")
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir um dos arquivos", header.Filename)
			return
		}
		defer file.Close()
		files = append(files, ingest.File{Name: header.Filename, Reader: file})
	}

	res := h.ingest.ParseFiles(files)
	entry, err := h.audit.Import(c.Request.Context(), strings.TrimSpace(c.PostForm("usuario")), res)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao importar os arquivos", err.Error())
		return
	}
	linked := h.urban.AttachFromInvoices(res.ServiceInvoices)

	failures := res.Failures
	if failures == nil {
		failures = []ingest.Failure{}
	}
	responses.Success(c, http.StatusOK, importResponse{
		Log:         entry,
		Failures:    failures,
		LinkedLoads: linked,
		ServiceDocs: len(res.ServiceInvoices),
		CIOTRecords: len(res.CIOTs),
	})
}

func (h *AuditHandler) filterFromQuery(c *gin.Context) (audit.Filter, error) {
	f := audit.Filter{
		Period:             audit.Period(strings.TrimSpace(c.Query("periodo"))),
		Shippers:           queryList(c, "embarcador"),
		Carriers:           queryList(c, "transportador"),
		PartnerSubcontract: audit.PartnerOption(strings.TrimSpace(c.Query("subcontratacao_parceira"))),
	}
	switch f.Period {
	case audit.PeriodAll, audit.Period7, audit.Period30, audit.Period90, audit.PeriodCustom:
	default:
		return f, errors.New("período deve ser 7dias, 30dias, 90dias ou personalizado")
	}
	switch f.PartnerSubcontract {
	case "", audit.PartnerAll, audit.PartnerYes, audit.PartnerNo:
	default:
		return f, errors.New("subcontratacao_parceira deve ser todos, sim ou nao")
	}
	for _, s := range queryList(c, "status") {
		f.AuditStatuses = append(f.AuditStatuses, domain.AuditStatus(s))
	}
	for _, p := range queryList(c, "tomador") {
		f.Payers = append(f.Payers, domain.PayerRole(p))
	}

	var err error
	if f.From, err = queryDate(c, "de"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "ate"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *AuditHandler) HandleList(c *gin.Context) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, h.audit.List(f))
}

func (h *AuditHandler) HandleKPIs(c *gin.Context) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, audit.Indicators(h.audit.List(f)))
}

func (h *AuditHandler) HandleGet(c *gin.Context) {
	doc, err := h.audit.Get(c.Param("chave"))
	if err != nil {
		responses.Error(c, http.StatusNotFound, err.Error())
		return
	}
	responses.Success(c, http.StatusOK, doc)
}

func (h *AuditHandler) HandleVerify(c *gin.Context) {
	sum, err := h.audit.VerifyCompliance(c.Request.Context())
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao verificar compliance", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, sum)
}

func (h *AuditHandler) HandleReview(c *gin.Context) {
	key := c.Param("chave")
	if err := h.audit.MarkReviewed(key); err != nil {
		responses.Error(c, http.StatusNotFound, err.Error())
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"chave": key, "conferido": true})
}

type batchReviewRequest struct {
	Keys []string `json:"chaves" binding:"required,min=1"`
}

func (h *AuditHandler) HandleBatchReview(c *gin.Context) {
	var req batchReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Informe as chaves a conferir", err.Error())
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"conferidos": h.audit.MarkBatchReviewed(req.Keys)})
}

func (h *AuditHandler) HandleExport(c *gin.Context) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	sendExport(c, c.Query("formato"), "AuditoriaCTe", report.Documents(h.audit.List(f)))
}

type receivedResponse struct {
	Documents []domain.TransportDocument `json:"ctes"`
	KPIs      audit.ReceivedKPIs         `json:"kpis"`
}

// HandleReceived é a visão de CT-es recebidos, com os indicadores do recorte.
func (h *AuditHandler) HandleReceived(c *gin.Context) {
	f := audit.ReceivedFilter{
		Compliance:  domain.ComplianceStatus(strings.TrimSpace(c.Query("compliance"))),
		Carrier:     c.Query("transportadora"),
		ServiceType: strings.TrimSpace(c.Query("tipo_servico")),
		Situation:   strings.TrimSpace(c.Query("situacao")),
	}
	var err error
	if f.From, err = queryDate(c, "de"); err == nil {
		f.To, err = queryDate(c, "ate")
	}
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	docs := h.audit.Received(f)
	responses.Success(c, http.StatusOK, receivedResponse{Documents: docs, KPIs: audit.ReceivedIndicators(docs)})
}

type coverageResponse struct {
	Invoices []audit.InvoiceRow `json:"nfes"`
	KPIs     audit.CoverageKPIs `json:"kpis"`
}

// HandleCoverage mostra quais NF-es do embarcador já têm CT-e vinculado.
func (h *AuditHandler) HandleCoverage(c *gin.Context) {
	f := audit.CoverageFilter{
		Status:  audit.InvoiceStatus(strings.TrimSpace(c.Query("status"))),
		Shipper: c.Query("embarcador"),
	}
	var err error
	if f.From, err = queryDate(c, "de"); err == nil {
		f.To, err = queryDate(c, "ate")
	}
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return
	}
	rows := audit.InvoiceRows(h.audit.Documents(), f)
	responses.Success(c, http.StatusOK, coverageResponse{Invoices: rows, KPIs: audit.Coverage(rows)})
}

func (h *AuditHandler) HandleLogs(c *gin.Context) {
	responses.Success(c, http.StatusOK, h.audit.Logs())
}
