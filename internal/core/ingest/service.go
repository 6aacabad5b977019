package ingest

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

var (
	ErrUnknownDocument = errors.New("tipo de documento não reconhecido")
	ErrInvalidXML      = errors.New("XML inválido")
	ErrMissingKey      = errors.New("chave de acesso ausente")
)

// Kind identifica o tipo de arquivo recebido.
type Kind string

const (
	KindCTe  Kind = "CT-e"
	KindNFSe Kind = "NFS-e"
	KindCIOT Kind = "CIOT"
)

// File é um arquivo enviado no upload.
type File struct {
	Name   string
	Reader io.Reader
}

type Failure struct {
	File  string `json:"arquivo"`
	Error string `json:"erro"`
}

// Result agrupa o que foi lido de um lote de arquivos. Arquivos com problema
// viram Failures e não interrompem o lote.
type Result struct {
	Files           int                        `json:"arquivos"`
	Documents       []domain.TransportDocument `json:"ctes"`
	ServiceInvoices []domain.ServiceInvoice    `json:"nfses"`
	CIOTs           []domain.CIOTRecord        `json:"ciots"`
	Failures        []Failure                  `json:"falhas"`
}

type Service interface {
	ParseFiles(files []File) Result
}

type service struct {
	shippers *ShipperResolver
	log      *logrus.Entry
	now      func() time.Time
}

// NewService cria o serviço de leitura de XML. knownShippers são os nomes
// canônicos de embarcadores usados para normalizar o remetente do CT-e.
func NewService(knownShippers []string, logger *logrus.Logger) Service {
	return &service{
		shippers: NewShipperResolver(knownShippers),
		log:      logger.WithField("module", "ingest"),
		now:      time.Now,
	}
}

func (s *service) ParseFiles(files []File) Result {
	res := Result{Files: len(files)}
	for _, f := range files {
		if err := s.parseFile(f, &res); err != nil {
			s.log.WithFields(logrus.Fields{"funcName": "ParseFiles", "arquivo": f.Name}).Warn(err.Error())
			res.Failures = append(res.Failures, Failure{File: f.Name, Error: err.Error()})
		}
	}
	return res
}

func (s *service) parseFile(f File, res *Result) error {
	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return fmt.Errorf("erro ao ler arquivo: %w", err)
	}

	kind, err := detectKind(data, f.Name)
	if err != nil {
		return err
	}

	switch kind {
	case KindCTe:
		doc, err := s.parseCTe(data)
		if err != nil {
			return err
		}
		res.Documents = append(res.Documents, doc)
	case KindNFSe:
		inv, err := s.parseNFSe(data)
		if err != nil {
			return err
		}
		res.ServiceInvoices = append(res.ServiceInvoices, inv)
	case KindCIOT:
		rec, err := parseCIOT(data)
		if err != nil {
			return err
		}
		res.CIOTs = append(res.CIOTs, rec)
	}
	return nil
}

// detectKind olha o elemento raiz; se o conteúdo não for XML válido, tenta
// reconhecer um comprovante de CIOT em texto e, por fim, o nome do arquivo.
func detectKind(data []byte, fileName string) (Kind, error) {
	root, xmlErr := rootElement(data)
	switch root {
	case "cteProc", "CTe":
		return KindCTe, nil
	case "CompNfse", "Nfse", "nfseProc", "ConsultarNfseResposta", "GerarNfseResposta":
		return KindNFSe, nil
	}

	if bytes.Contains(bytes.ToUpper(data), []byte("CIOT")) {
		return KindCIOT, nil
	}

	name := strings.ToLower(fileName)
	if xmlErr == nil {
		switch {
		case strings.Contains(name, "nfse"):
			return KindNFSe, nil
		case strings.Contains(name, "cte"):
			return KindCTe, nil
		}
	}
	if strings.Contains(name, "ciot") {
		return KindCIOT, nil
	}
	if xmlErr != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidXML, xmlErr)
	}
	return "", ErrUnknownDocument
}

func rootElement(data []byte) (string, error) {
	dec := newDecoder(data)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	return dec
}

// charsetReader trata os XMLs exportados em ISO-8859-1/Windows-1252 por
// alguns ERPs.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "latin1", "latin-1", "iso8859-1", "iso-8859-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset não suportado %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset não suportado %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// #############################################################################
// #                                   CT-e                                    #
// #############################################################################

func (s *service) parseCTe(data []byte) (domain.TransportDocument, error) {
	var inf domain.InfCTe
	var prot domain.InfProtCTe
	found := false

	dec := newDecoder(data)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.TransportDocument{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "infCte":
			if err := dec.DecodeElement(&inf, &se); err != nil {
				return domain.TransportDocument{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
			}
			found = true
		case "infProt":
			if err := dec.DecodeElement(&prot, &se); err != nil {
				return domain.TransportDocument{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
			}
		}
	}
	if !found {
		return domain.TransportDocument{}, fmt.Errorf("%w: grupo infCte não encontrado", ErrInvalidXML)
	}
	return s.buildDocument(inf, prot)
}

func (s *service) buildDocument(inf domain.InfCTe, prot domain.InfProtCTe) (domain.TransportDocument, error) {
	key := strings.TrimSpace(prot.ChCTe)
	if key == "" {
		key = strings.TrimPrefix(strings.TrimSpace(inf.ID), "CTe")
	}
	if key == "" {
		return domain.TransportDocument{}, ErrMissingKey
	}

	issuedAt, ok := parseTimestamp(inf.Ide.DhEmi)
	if !ok {
		issuedAt = s.now()
	}

	freight := parseAmount(inf.VPrest.VTPrest)
	icms := readICMS(inf)

	doc := domain.TransportDocument{
		AccessKey:          key,
		Series:             defaultString(inf.Ide.Serie, "1"),
		Number:             strings.TrimSpace(inf.Ide.NCT),
		IssuedAt:           issuedAt,
		IssuerTaxID:        strings.TrimSpace(inf.Emit.CNPJ),
		IssuerName:         strings.TrimSpace(inf.Emit.XNome),
		ShipperName:        defaultString(s.shippers.Resolve(inf.Rem.XNome), "Embarcador não informado"),
		CarrierName:        defaultString(inf.Emit.XNome, "Transportador não informado"),
		Origin:             defaultString(joinCity(inf.Ide.XMunIni, inf.Ide.UFIni), "Origem não informada"),
		Destination:        defaultString(joinCity(inf.Ide.XMunFim, inf.Ide.UFFim), "Destino não informado"),
		Payer:              payerRole(inf),
		FreightValue:       freight,
		CargoValue:         parseAmount(inf.InfCTeNorm.InfCarga.VCarga),
		CargoWeightKg:      cargoWeight(inf),
		PredominantProduct: defaultString(inf.InfCTeNorm.InfCarga.ProPred, "Diversos"),
		ICMS:               icms,
		Subcontracting:     readSubcontracting(inf),
		Duplicate:          domain.Duplicate{Status: domain.DuplicateUnique},
		Financial: domain.Financial{
			Link:          domain.FinancialNoTitle,
			TitleAmount:   freight,
			PaymentStatus: domain.PaymentNone,
		},
		CIOT:           readCIOT(inf),
		RateComparison: domain.RateComparison{Status: domain.AuditPending},
		AuditStatus:    domain.AuditPending,
	}
	if len(inf.InfCTeNorm.InfDoc.InfNFe) > 0 {
		doc.LinkedInvoiceKey = strings.TrimSpace(inf.InfCTeNorm.InfDoc.InfNFe[0].Chave)
	}
	return doc, nil
}

// readICMS pega o primeiro grupo de ICMS preenchido. ICMS destacado significa
// valor de ICMS maior que zero.
func readICMS(inf domain.InfCTe) domain.ICMS {
	g := inf.Imp.ICMS
	var valueStr, rateStr string
	switch {
	case g.ICMS00.VICMS != "":
		valueStr, rateStr = g.ICMS00.VICMS, g.ICMS00.PICMS
	case g.ICMS20.VICMS != "":
		valueStr, rateStr = g.ICMS20.VICMS, g.ICMS20.PICMS
	case g.ICMS60.VICMSSTRet != "":
		valueStr, rateStr = g.ICMS60.VICMSSTRet, g.ICMS60.PICMSSTRet
	case g.ICMS90.VICMS != "":
		valueStr, rateStr = g.ICMS90.VICMS, g.ICMS90.PICMS
	case g.ICMSOutraUF.VICMSOutraUF != "":
		valueStr, rateStr = g.ICMSOutraUF.VICMSOutraUF, g.ICMSOutraUF.PICMSOutraUF
	case g.ICMS45.CST != "", g.ICMSSN.IndSN != "":
		// isento, não tributado ou Simples Nacional: sem destaque
	}
	value := parseAmount(valueStr)
	return domain.ICMS{
		Value:       value,
		Rate:        parseAmount(rateStr),
		Highlighted: value.GreaterThan(decimal.Zero),
	}
}

// readSubcontracting: tpServ=1 identifica o CT-e da EXECUTORA (subcontratada),
// que referencia a contratante em docAnt. O CT-e da CONTRATANTE é marcado em
// compl/ObsCont (xCampo papelSubcontratacao / chCTeExecutora).
func readSubcontracting(inf domain.InfCTe) domain.Subcontracting {
	var sub domain.Subcontracting

	if strings.TrimSpace(inf.Ide.TpServ) == "1" {
		sub.Role = domain.RoleExecutor
		sub.SubcontractedTaxID = strings.TrimSpace(inf.Emit.CNPJ)
		if ants := inf.InfCTeNorm.DocAnt.EmiDocAnt; len(ants) > 0 {
			sub.ContractorTaxID = strings.TrimSpace(ants[0].CNPJ)
			if eles := ants[0].IDDocAnt.IDDocAntEle; len(eles) > 0 {
				sub.ContractorDocumentRef = strings.TrimSpace(eles[0].ChCTe)
			}
		}
		return sub
	}

	for _, obs := range inf.Compl.ObsCont {
		texto := strings.TrimSpace(obs.XTexto)
		switch strings.ToLower(strings.TrimSpace(obs.XCampo)) {
		case "papelsubcontratacao":
			if strings.EqualFold(texto, string(domain.RoleContractor)) {
				sub.Role = domain.RoleContractor
			}
		case "chcteexecutora":
			sub.Role = domain.RoleContractor
			sub.ExecutorDocumentRef = texto
		case "cnpjsubcontratada":
			sub.SubcontractedTaxID = texto
		}
	}
	if sub.Role != domain.RoleContractor {
		return domain.Subcontracting{}
	}
	return sub
}

func payerRole(inf domain.InfCTe) domain.PayerRole {
	if inf.Ide.Toma4.Toma != "" {
		return domain.PayerCarrier
	}
	switch strings.TrimSpace(inf.Ide.Toma3.Toma) {
	case "", "0", "1":
		return domain.PayerShipper
	default:
		return domain.PayerCarrier
	}
}

func cargoWeight(inf domain.InfCTe) decimal.Decimal {
	for _, q := range inf.InfCTeNorm.InfCarga.InfQ {
		if strings.TrimSpace(q.CUnid) == "01" {
			return parseAmount(q.QCarga)
		}
	}
	return decimal.Zero
}

func readCIOT(inf domain.InfCTe) domain.CIOT {
	code := strings.TrimSpace(inf.InfCTeNorm.InfModal.Rodo.CIOT)
	if code == "" {
		return domain.CIOT{Status: domain.CIOTNotApplicable}
	}
	return domain.CIOT{Code: code, Status: domain.CIOTValid}
}

// #############################################################################
// #                                   NFS-e                                   #
// #############################################################################

func (s *service) parseNFSe(data []byte) (domain.ServiceInvoice, error) {
	var inf domain.InfNfse
	found := false

	dec := newDecoder(data)
	for !found {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.ServiceInvoice{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "InfNfse" {
			if err := dec.DecodeElement(&inf, &se); err != nil {
				return domain.ServiceInvoice{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
			}
			found = true
		}
	}
	if !found {
		return domain.ServiceInvoice{}, fmt.Errorf("%w: grupo InfNfse não encontrado", ErrInvalidXML)
	}

	numero := strings.TrimSpace(inf.Numero)
	issuedAt, ok := parseTimestamp(inf.DataEmissao)
	if !ok {
		issuedAt = s.now()
	}
	prestador := inf.PrestadorServico.IdentificacaoPrestador
	cnpj := defaultString(prestador.Cnpj, prestador.CpfCnpj.Cnpj)

	return domain.ServiceInvoice{
		Number:           numero,
		VerificationCode: defaultString(inf.CodigoVerificacao, "NFSE-"+numero),
		IssuedAt:         issuedAt,
		ProviderTaxID:    cnpj,
		ProviderName:     strings.TrimSpace(inf.PrestadorServico.RazaoSocial),
		ServicesValue:    parseAmount(inf.Servico.Valores.ValorServicos),
		ISSValue:         parseAmount(inf.Servico.Valores.ValorIss),
		ISSRate:          parseAmount(inf.Servico.Valores.Aliquota),
	}, nil
}

// #############################################################################
// #                                   CIOT                                    #
// #############################################################################

var (
	ciotCodeRegex  = regexp.MustCompile(`(?i)CIOT[:\s>#-]*([0-9A-Z]*[0-9][0-9A-Z]*(?:-[0-9A-Z]+)*)`)
	ciotValueRegex = regexp.MustCompile(`\d[\d.,]*`)
)

// parseCIOT lê comprovantes de CIOT, que chegam em XML ou texto livre.
func parseCIOT(data []byte) (domain.CIOTRecord, error) {
	rec := domain.CIOTRecord{Status: domain.CIOTValid, FreightValue: decimal.Zero}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		upper := normalizeText(line)

		if rec.Code == "" {
			if m := ciotCodeRegex.FindStringSubmatch(line); m != nil {
				rec.Code = strings.ToUpper(m[1])
			}
		}
		if strings.Contains(upper, "SITUACAO") || strings.Contains(upper, "STATUS") {
			for _, word := range strings.Fields(upper) {
				switch word {
				case "INVALIDO", "INATIVO", "CANCELADO", "ENCERRADO":
					rec.Status = domain.CIOTAbsent
				}
			}
		}
		if strings.Contains(upper, "VALOR") && strings.Contains(upper, "FRETE") {
			if m := ciotValueRegex.FindString(stripTags(line)); m != "" {
				rec.FreightValue = parseAmount(m)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return rec, fmt.Errorf("erro ao ler CIOT: %w", err)
	}
	if rec.Code == "" {
		return rec, errors.New("código CIOT não encontrado")
	}
	return rec, nil
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRegex.ReplaceAllString(s, " ")
}
