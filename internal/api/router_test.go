package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/audit"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/delta"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ingest"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/ratetable"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/urban"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/metrics"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []string        `json:"details"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry, err := ratetable.NewRegistry(ratetable.DefaultTables())
	require.NoError(t, err)
	deltaService, err := delta.NewService(delta.DefaultConfig(), delta.DefaultLines(), logger)
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Ingest: ingest.NewService([]string{"Vila Nova", "Focomix", "V2 Farma"}, logger),
		Audit: audit.NewService(audit.Settings{
			PartnerTaxID:     "12345678000123",
			RateTolerancePct: decimal.NewFromInt(2),
		}, registry, logger, m),
		Urban:          urban.NewService(logger),
		Delta:          deltaService,
		RateTables:     registry,
		Metrics:        m,
		Logger:         logger,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func do(t *testing.T, r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func uploadBody(t *testing.T, user string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join("..", "core", "ingest", "testdata", name))
		require.NoError(t, err)
		part, err := mw.CreateFormFile("xmlFiles", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if user != "" {
		require.NoError(t, mw.WriteField("usuario", user))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	do(t, r, http.MethodGet, "/api/v1/documentos", nil, "")
	w = do(t, r, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "frete_endpoint_latency_seconds")
}

func TestImportFlow(t *testing.T) {
	r := newTestRouter(t)

	load := `{"nfe_chave":"NF1","data_nfe":"2025-09-02","embarcador":"Vila Nova","fretista":"Fretes Urbanos ME","valor_frete":"850.00"}`
	w := do(t, r, http.MethodPost, "/api/v1/fretistas", strings.NewReader(load), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body, ct := uploadBody(t, "ana@vilanova.com.br",
		"cte_direto.xml", "cte_executora.xml", "cte_contratante.xml", "nfse.xml", "ciot.txt")
	w = do(t, r, http.MethodPost, "/api/v1/documentos/importar", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Log struct {
			User      string `json:"usuario"`
			Files     int    `json:"arquivos"`
			Processed int    `json:"ctes_processados"`
			CIOTs     int    `json:"ciots_reconhecidos"`
			Errors    int    `json:"erros"`
		} `json:"log"`
		LinkedLoads int `json:"cargas_vinculadas"`
		NFSes       int `json:"nfses"`
	}
	env := decode(t, w, &res)
	assert.True(t, env.Success)
	assert.Equal(t, "ana@vilanova.com.br", res.Log.User)
	assert.Equal(t, 5, res.Log.Files)
	assert.Equal(t, 3, res.Log.Processed)
	assert.Equal(t, 2, res.Log.CIOTs)
	assert.Equal(t, 0, res.Log.Errors)
	assert.Equal(t, 1, res.NFSes)
	assert.Equal(t, 1, res.LinkedLoads)

	var docs []map[string]interface{}
	decode(t, do(t, r, http.MethodGet, "/api/v1/documentos", nil, ""), &docs)
	assert.Len(t, docs, 3)

	var logs []map[string]interface{}
	decode(t, do(t, r, http.MethodGet, "/api/v1/importacoes", nil, ""), &logs)
	assert.Len(t, logs, 1)

	var coverage struct {
		KPIs struct {
			Total    int `json:"total"`
			Linked   int `json:"vinculadas"`
			Awaiting int `json:"aguardando"`
			Pct      int `json:"percentual_cobertura"`
		} `json:"kpis"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/v1/nfe-embarcador", nil, ""), &coverage)
	assert.Equal(t, 3, coverage.KPIs.Total)
	assert.Equal(t, 2, coverage.KPIs.Linked)
	assert.Equal(t, 1, coverage.KPIs.Awaiting)
	assert.Equal(t, 67, coverage.KPIs.Pct)

	var loads struct {
		KPIs struct {
			WithNFSe int `json:"com_nfse"`
		} `json:"kpis"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/v1/fretistas", nil, ""), &loads)
	assert.Equal(t, 1, loads.KPIs.WithNFSe)

	w = do(t, r, http.MethodGet, "/api/v1/documentos/exportar?formato=csv", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=AuditoriaCTe_")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestImportWithoutFiles(t *testing.T) {
	r := newTestRouter(t)
	body, ct := uploadBody(t, "")

	w := do(t, r, http.MethodPost, "/api/v1/documentos/importar", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Nenhum arquivo XML foi enviado", env.Error)
}

func TestDocumentErrors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"chave inexistente", http.MethodGet, "/api/v1/documentos/nao-existe", "", http.StatusNotFound},
		{"conferir inexistente", http.MethodPost, "/api/v1/documentos/nao-existe/conferir", "", http.StatusNotFound},
		{"lote vazio", http.MethodPost, "/api/v1/documentos/conferir-lote", `{"chaves":[]}`, http.StatusBadRequest},
		{"periodo invalido", http.MethodGet, "/api/v1/documentos?periodo=ontem", "", http.StatusBadRequest},
		{"data invalida", http.MethodGet, "/api/v1/cte-recebidos?de=01/09/2025", "", http.StatusBadRequest},
		{"formato invalido", http.MethodGet, "/api/v1/documentos/exportar?formato=pdf", "", http.StatusBadRequest},
		{"pagar inexistente", http.MethodPost, "/api/v1/pagamentos/nao-existe/pagar", "", http.StatusNotFound},
		{"situacao invalida", http.MethodGet, "/api/v1/pagamentos?situacao=talvez", "", http.StatusBadRequest},
		{"rota inexistente", http.MethodGet, "/api/v1/nada", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := do(t, r, tt.method, tt.path, body, "application/json")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, decode(t, w, nil).Success)
		})
	}
}

func TestVerifyAndPay(t *testing.T) {
	r := newTestRouter(t)
	body, ct := uploadBody(t, "", "cte_direto.xml")
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/v1/documentos/importar", body, ct).Code)

	var sum audit.Summary
	decode(t, do(t, r, http.MethodPost, "/api/v1/documentos/verificar-compliance", nil, ""), &sum)
	assert.Equal(t, 1, sum.Total)

	var docs []struct {
		Key string `json:"chave_cte"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/v1/documentos", nil, ""), &docs)
	require.Len(t, docs, 1)

	var page struct {
		KPIs struct {
			Total int `json:"total"`
		} `json:"kpis"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/v1/pagamentos", nil, ""), &page)
	assert.Equal(t, 1, page.KPIs.Total)

	require.Equal(t, 1, sum.Payable)
	w := do(t, r, http.MethodPost, "/api/v1/pagamentos/"+docs[0].Key+"/pagar", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/v1/pagamentos/"+docs[0].Key+"/pagar", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	decode(t, do(t, r, http.MethodGet, "/api/v1/pagamentos?situacao=pago", nil, ""), &page)
	assert.Equal(t, 1, page.KPIs.Total)

	w = do(t, r, http.MethodPost, "/api/v1/documentos/"+docs[0].Key+"/conferir", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateTables(t *testing.T) {
	r := newTestRouter(t)

	var tables []map[string]interface{}
	decode(t, do(t, r, http.MethodGet, "/api/v1/tabelas-frete", nil, ""), &tables)
	require.Len(t, tables, 3)
	assert.Contains(t, tables[0], "status")

	w := do(t, r, http.MethodPut, "/api/v1/tabelas-frete", strings.NewReader(`[{"transportador":"Transvila"}]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	valid := `[{"transportador":"Transvila","embarcador":"Vila Nova","tipo":"Percentual sobre faturamento","percentual":"5","pedagio":"0","vigencia_inicio":"2025-01-01","vigencia_fim":"2025-12-31"}]`
	w = do(t, r, http.MethodPut, "/api/v1/tabelas-frete", strings.NewReader(valid), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &tables)
	assert.Len(t, tables, 1)
}

func TestDeltaRoutes(t *testing.T) {
	r := newTestRouter(t)

	var lines []map[string]interface{}
	decode(t, do(t, r, http.MethodGet, "/api/v1/consultoria-delta/auditorias", nil, ""), &lines)
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "pagamento_disponivel")

	w := do(t, r, http.MethodPut, "/api/v1/consultoria-delta/configuracoes",
		strings.NewReader(`{"contratante_percentual":"0","executora_percentual":"2.5","executora_minimo":"15","executora_limite_minimo_nf":"600","tolerancia_percentual":"2"}`),
		"application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/consultoria-delta/recalcular", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/consultoria-delta/recalcular", strings.NewReader(`{"chaves":["nao-existe"]}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/consultoria-delta/enviar-pagamento", strings.NewReader(`{"chave":"nao-existe"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/consultoria-delta/exportar", strings.NewReader(`{"formato":"xlsx","chaves":["352509QU0001"]}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}
