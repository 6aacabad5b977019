// internal/api/handlers/helpers.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/api/responses"
	"github.com/LuisEduardoPedra/auditoriaFrete/internal/core/report"
)

const dateLayout = "2006-01-02"

// queryList junta parâmetros repetidos (?embarcador=a&embarcador=b) e listas
// separadas por vírgula (?embarcador=a,b).
func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// queryDate valida uma data AAAA-MM-DD opcional.
func queryDate(c *gin.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		return "", fmt.Errorf("parâmetro '%s' deve estar no formato AAAA-MM-DD", name)
	}
	return v, nil
}

func queryTime(c *gin.Context, name string) (time.Time, error) {
	v, err := queryDate(c, name)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(dateLayout, v)
}

// sendExport gera o arquivo e responde como anexo.
func sendExport(c *gin.Context, formatParam, baseName string, sheet report.Sheet) {
	format, err := report.ParseFormat(formatParam)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Formato de exportação inválido", err.Error())
		return
	}
	data, err := report.Render(format, sheet)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o arquivo", err.Error())
		return
	}

	fileName := fmt.Sprintf("%s_%s.%s", baseName, time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, format.ContentType(), data)
}
