// internal/core/report/report.go
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("formato de exportação não suportado")

// ParseFormat aceita "csv" (padrão quando vazio) e "xlsx".
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, v)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=windows-1252"
}

// Sheet é uma tabela pronta para exportação; as células já vêm formatadas.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Render gera o arquivo no formato pedido.
func Render(format Format, sheet Sheet) ([]byte, error) {
	switch format {
	case FormatCSV:
		return CSV(sheet)
	case FormatXLSX:
		return XLSX(sheet)
	}
	return nil, ErrUnknownFormat
}

// CSV grava com ';' em Windows-1252. Caracteres fora da página de código
// viram o substituto do encoder.
func CSV(sheet Sheet) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	tw := transform.NewWriter(&buffer, encoder)
	writer := csv.NewWriter(tw)
	writer.Comma = ';'

	if err := writer.Write(sheet.Header); err != nil {
		return nil, fmt.Errorf("erro ao gravar cabeçalho: %w", err)
	}
	for _, row := range sheet.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("erro ao gravar linha: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("erro ao codificar CSV: %w", err)
	}
	return buffer.Bytes(), nil
}

// XLSX gera uma planilha por Sheet, na ordem recebida.
func XLSX(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, errors.New("nenhuma planilha para exportar")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}

		header := sheet.Header
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return nil, err
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			values := row
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

// Nomes de aba no Excel têm no máximo 31 caracteres.
func sheetName(name string, i int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Planilha%d", i+1)
	}
	if r := []rune(name); len(r) > 31 {
		return string(r[:31])
	}
	return name
}

func formatTwoDecimalsComma(val decimal.Decimal) string {
	return strings.Replace(val.StringFixed(2), ".", ",", 1)
}

func formatOptional(val *decimal.Decimal) string {
	if val == nil {
		return "—"
	}
	return formatTwoDecimalsComma(*val)
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// formatDate converte AAAA-MM-DD para DD/MM/AAAA; outro formato passa direto.
func formatDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
