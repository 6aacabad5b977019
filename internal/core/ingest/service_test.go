package ingest

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

var knownShippers = []string{"Vila Nova", "Focomix", "V2 Farma"}

func newTestService() Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(knownShippers, logger)
}

func openFixture(t *testing.T, name string) File {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return File{Name: name, Reader: strings.NewReader(string(data))}
}

func TestParseFilesDirectCTe(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "cte_direto.xml")})

	require.Empty(t, res.Failures)
	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]

	assert.Equal(t, "35250977777777000155570010000012341000012345", doc.AccessKey)
	assert.Equal(t, "1", doc.Series)
	assert.Equal(t, "1234", doc.Number)
	assert.Equal(t, "2025-09-01", doc.IssueDate())
	assert.Equal(t, "77777777000155", doc.IssuerTaxID)
	assert.Equal(t, "Vila Nova", doc.ShipperName)
	assert.Equal(t, "Transportes ABC LTDA", doc.CarrierName)
	assert.Equal(t, "Sao Paulo/SP", doc.Origin)
	assert.Equal(t, "Curitiba/PR", doc.Destination)
	assert.Equal(t, domain.PayerShipper, doc.Payer)
	assert.Equal(t, "35250911111111000111550010000987651000098765", doc.LinkedInvoiceKey)
	assert.Equal(t, "1500", doc.FreightValue.String())
	assert.Equal(t, "52000", doc.CargoValue.String())
	assert.Equal(t, "2450.5", doc.CargoWeightKg.String())
	assert.Equal(t, "Materiais de construcao", doc.PredominantProduct)

	assert.True(t, doc.ICMS.Highlighted)
	assert.Equal(t, "180", doc.ICMS.Value.String())
	assert.Equal(t, "12", doc.ICMS.Rate.String())

	assert.Equal(t, domain.RoleNone, doc.Subcontracting.Role)
	assert.Equal(t, domain.DuplicateUnique, doc.Duplicate.Status)
	assert.Equal(t, domain.CIOTNotApplicable, doc.CIOT.Status)
	assert.Equal(t, domain.FinancialNoTitle, doc.Financial.Link)
	assert.Equal(t, "1500", doc.Financial.TitleAmount.String())
	assert.Equal(t, domain.PaymentNone, doc.Financial.PaymentStatus)
	assert.Equal(t, domain.AuditPending, doc.AuditStatus)
}

func TestParseFilesExecutorCTe(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "cte_executora.xml")})

	require.Empty(t, res.Failures)
	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]

	assert.Equal(t, "2", doc.Series)
	assert.Equal(t, domain.PayerCarrier, doc.Payer)
	assert.Equal(t, "Focomix", doc.ShipperName)
	assert.Equal(t, domain.RoleExecutor, doc.Subcontracting.Role)
	assert.Equal(t, "12345678000123", doc.Subcontracting.ContractorTaxID)
	assert.Equal(t, "88888888000166", doc.Subcontracting.SubcontractedTaxID)
	assert.Equal(t, "35250912345678000123570010000000771000000777", doc.Subcontracting.ContractorDocumentRef)
	assert.Equal(t, domain.CIOT{Code: "123456789012", Status: domain.CIOTValid}, doc.CIOT)
	assert.True(t, doc.CargoWeightKg.IsZero())
}

func TestParseFilesContractorCTe(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "cte_contratante.xml")})

	require.Empty(t, res.Failures)
	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]

	// sem protocolo a chave vem do atributo Id
	assert.Equal(t, "35250912345678000123570010000000771000000777", doc.AccessKey)
	assert.Equal(t, "1", doc.Series)
	assert.Equal(t, domain.PayerCarrier, doc.Payer)
	assert.Equal(t, "Comercial Boa Vista", doc.ShipperName)
	assert.False(t, doc.ICMS.Highlighted)
	assert.True(t, doc.ICMS.Value.IsZero())
	assert.Empty(t, doc.LinkedInvoiceKey)

	assert.Equal(t, domain.RoleContractor, doc.Subcontracting.Role)
	assert.Equal(t, "35250988888888000166570010000005551000005555", doc.Subcontracting.ExecutorDocumentRef)
	assert.Equal(t, "88888888000166", doc.Subcontracting.SubcontractedTaxID)
}

func TestParseFilesLatin1(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "cte_latin1.xml")})

	require.Empty(t, res.Failures)
	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]

	assert.Equal(t, "Transportes São João", doc.CarrierName)
	assert.Equal(t, "São José/SC", doc.Origin)
	assert.Equal(t, "Destino não informado", doc.Destination)
	assert.Equal(t, "Embarcador não informado", doc.ShipperName)
	assert.Equal(t, "Diversos", doc.PredominantProduct)
}

func TestParseFilesNFSe(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "nfse.xml")})

	require.Empty(t, res.Failures)
	require.Len(t, res.ServiceInvoices, 1)
	inv := res.ServiceInvoices[0]

	assert.Equal(t, "123", inv.Number)
	assert.Equal(t, "AB12-CD34", inv.VerificationCode)
	assert.Equal(t, "33333333000133", inv.ProviderTaxID)
	assert.Equal(t, "Fretes Urbanos ME", inv.ProviderName)
	assert.Equal(t, "850", inv.ServicesValue.String())
	assert.Equal(t, "42.5", inv.ISSValue.String())
	assert.Equal(t, "5", inv.ISSRate.String())
	assert.Equal(t, "2025-09-02", inv.IssuedAt.Format("2006-01-02"))
}

func TestParseFilesCIOTText(t *testing.T) {
	res := newTestService().ParseFiles([]File{openFixture(t, "ciot.txt")})

	require.Empty(t, res.Failures)
	require.Len(t, res.CIOTs, 1)
	assert.Equal(t, "123456789012", res.CIOTs[0].Code)
	assert.Equal(t, domain.CIOTValid, res.CIOTs[0].Status)
	assert.Equal(t, "1250", res.CIOTs[0].FreightValue.String())
}

func TestParseCIOTCancelled(t *testing.T) {
	rec, err := parseCIOT([]byte("<ciot><codigo>CIOT 98765432100</codigo>\n<situacao>Status: CANCELADO</situacao></ciot>"))

	require.NoError(t, err)
	assert.Equal(t, "98765432100", rec.Code)
	assert.Equal(t, domain.CIOTAbsent, rec.Status)
}

func TestParseCIOTCodeWithHyphen(t *testing.T) {
	rec, err := parseCIOT([]byte("Comprovante de CIOT\nCIOT: 1234-5678-AB\nSituação: Ativo"))
	require.NoError(t, err)
	assert.Equal(t, "1234-5678-AB", rec.Code)
	assert.Equal(t, domain.CIOTValid, rec.Status)
}

func TestParseCIOTWithoutCode(t *testing.T) {
	_, err := parseCIOT([]byte("Comprovante de CIOT\nSituação: Ativo"))
	assert.Error(t, err)
}

func TestParseFilesCollectsFailuresWithoutAbortingBatch(t *testing.T) {
	files := []File{
		{Name: "qualquer.xml", Reader: strings.NewReader("<root><a>1</a></root>")},
		{Name: "notas.txt", Reader: strings.NewReader("isto não é xml")},
		{Name: "sem_chave.xml", Reader: strings.NewReader(`<CTe><infCte><ide><nCT>1</nCT></ide></infCte></CTe>`)},
		{Name: "quebrado_cte.xml", Reader: strings.NewReader(`<cteProc><CTe><infCte>`)},
		openFixture(t, "cte_direto.xml"),
	}

	res := newTestService().ParseFiles(files)

	assert.Equal(t, 5, res.Files)
	require.Len(t, res.Documents, 1)
	require.Len(t, res.Failures, 4)

	assert.Equal(t, "qualquer.xml", res.Failures[0].File)
	assert.Equal(t, ErrUnknownDocument.Error(), res.Failures[0].Error)
	assert.Equal(t, "notas.txt", res.Failures[1].File)
	assert.Contains(t, res.Failures[1].Error, ErrInvalidXML.Error())
	assert.Equal(t, ErrMissingKey.Error(), res.Failures[2].Error)
	assert.Contains(t, res.Failures[3].Error, ErrInvalidXML.Error())
}

func TestDetectKindByFileName(t *testing.T) {
	kind, err := detectKind([]byte("<lote><item/></lote>"), "Lote_NFSE_setembro.xml")
	require.NoError(t, err)
	assert.Equal(t, KindNFSe, kind)

	kind, err = detectKind([]byte("<lote><item/></lote>"), "cte-123.xml")
	require.NoError(t, err)
	assert.Equal(t, KindCTe, kind)
}
