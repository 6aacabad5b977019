// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubcontractingRole indica o papel do emitente numa subcontratação.
// Vazio significa prestação direta (sem subcontratação).
type SubcontractingRole string

const (
	RoleNone       SubcontractingRole = ""
	RoleExecutor   SubcontractingRole = "EXECUTORA"
	RoleContractor SubcontractingRole = "CONTRATANTE"
)

type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "Conforme"
	ComplianceNonCompliant ComplianceStatus = "Não conforme"
	CompliancePending      ComplianceStatus = "Pendente"
)

type DuplicateStatus string

const (
	DuplicateUnique            DuplicateStatus = "Único"
	DuplicatePossible          DuplicateStatus = "Possível duplicado"
	DuplicateSubcontractorPair DuplicateStatus = "Par subcontratação"
)

// PayerRole é o tomador do serviço.
type PayerRole string

const (
	PayerShipper PayerRole = "Embarcador"
	PayerCarrier PayerRole = "Transportador"
)

type CIOTStatus string

const (
	CIOTValid         CIOTStatus = "Válido"
	CIOTNotApplicable CIOTStatus = "Não aplicável"
	CIOTAbsent        CIOTStatus = "Ausente"
)

type FinancialLink string

const (
	FinancialLinked  FinancialLink = "Vinculado"
	FinancialNoTitle FinancialLink = "Sem título"
	FinancialSettled FinancialLink = "Pago"
)

type PaymentStatus string

const (
	PaymentOpen PaymentStatus = "Em aberto"
	PaymentPaid PaymentStatus = "Pago"
	PaymentNone PaymentStatus = "—"
)

type AuditStatus string

const (
	AuditCompliant AuditStatus = "Conforme"
	AuditDivergent AuditStatus = "Divergente"
	AuditPending   AuditStatus = "Pendente"
)

// ICMS guarda o imposto do CT-e. Highlighted indica ICMS destacado no documento.
type ICMS struct {
	Value       decimal.Decimal `json:"valor"`
	Rate        decimal.Decimal `json:"aliquota"`
	Highlighted bool            `json:"destacado"`
}

type Subcontracting struct {
	Role                  SubcontractingRole `json:"tipo"`
	ContractorTaxID       string             `json:"cnpj_contratante,omitempty"`
	SubcontractedTaxID    string             `json:"cnpj_subcontratada,omitempty"`
	ExecutorDocumentRef   string             `json:"referencia_cte_executora,omitempty"`
	ContractorDocumentRef string             `json:"referencia_cte_contratante,omitempty"`
}

type Duplicate struct {
	Status     DuplicateStatus `json:"status"`
	RelatedKey string          `json:"chave_relacionada,omitempty"`
}

// Financial é informativo; a decisão de pagamento não depende destes campos.
type Financial struct {
	Link          FinancialLink   `json:"vinculo"`
	TitleAmount   decimal.Decimal `json:"titulo"`
	PaymentStatus PaymentStatus   `json:"status"`
	DueDate       *time.Time      `json:"vencimento,omitempty"`
	PaidAt        *time.Time      `json:"pagamento,omitempty"`
}

type CIOT struct {
	Code   string     `json:"codigo,omitempty"`
	Status CIOTStatus `json:"situacao"`
}

// RateComparison compara o frete cobrado com a tabela de frete vigente.
type RateComparison struct {
	Expected decimal.Decimal `json:"esperado"`
	Delta    decimal.Decimal `json:"delta"`
	DeltaPct decimal.Decimal `json:"delta_perc"`
	Status   AuditStatus     `json:"status"`
}

// TransportDocument representa um CT-e já estruturado.
type TransportDocument struct {
	AccessKey string    `json:"chave_cte"`
	Series    string    `json:"serie"`
	Number    string    `json:"numero"`
	IssuedAt  time.Time `json:"dh_emi"`

	IssuerTaxID string `json:"emit_cnpj"`
	IssuerName  string `json:"emit_nome"`

	ShipperName      string    `json:"embarcador"`
	CarrierName      string    `json:"transportador"`
	LinkedInvoiceKey string    `json:"nfe_chave,omitempty"`
	Origin           string    `json:"origem"`
	Destination      string    `json:"destino"`
	Payer            PayerRole `json:"tomador"`

	FreightValue       decimal.Decimal `json:"v_t_prest"`
	CargoValue         decimal.Decimal `json:"v_carga"`
	CargoWeightKg      decimal.Decimal `json:"peso_kg"`
	PredominantProduct string          `json:"produto_predominante"`

	ICMS           ICMS           `json:"icms"`
	Subcontracting Subcontracting `json:"subcontratacao"`

	ComplianceStatus  ComplianceStatus `json:"status_compliance"`
	ComplianceMessage string           `json:"mensagem_compliance"`
	Payable           bool             `json:"pagavel"`

	Duplicate Duplicate `json:"duplicidade"`

	Financial      Financial      `json:"financeiro"`
	CIOT           CIOT           `json:"ciot"`
	RateComparison RateComparison `json:"comparacao_tabela"`
	AuditStatus    AuditStatus    `json:"status_auditoria"`

	Reviewed bool `json:"conferido"`
}

// IssueDate devolve a data civil da emissão no fuso do próprio documento.
func (d TransportDocument) IssueDate() string {
	return d.IssuedAt.Format("2006-01-02")
}

// ServiceInvoice é uma NFS-e já lida do XML.
type ServiceInvoice struct {
	Number           string          `json:"numero"`
	VerificationCode string          `json:"codigo_verificacao"`
	IssuedAt         time.Time       `json:"data_emissao"`
	ProviderTaxID    string          `json:"prestador_cnpj"`
	ProviderName     string          `json:"prestador_nome"`
	ServicesValue    decimal.Decimal `json:"valor_servicos"`
	ISSValue         decimal.Decimal `json:"valor_iss"`
	ISSRate          decimal.Decimal `json:"aliquota_iss"`
}

type CIOTRecord struct {
	Code         string          `json:"codigo"`
	Status       CIOTStatus      `json:"situacao"`
	FreightValue decimal.Decimal `json:"valor_frete"`
}

// ImportLog registra cada lote importado.
type ImportLog struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"data_hora"`
	User               string    `json:"usuario"`
	Files              int       `json:"arquivos"`
	DocumentsProcessed int       `json:"ctes_processados"`
	CIOTsRecognized    int       `json:"ciots_reconhecidos"`
	Errors             int       `json:"erros"`
	Details            string    `json:"detalhes"`
}
