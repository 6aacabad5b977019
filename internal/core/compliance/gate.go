package compliance

import "github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"

// Predicate é uma condição de liberação de pagamento sobre um documento.
type Predicate func(domain.TransportDocument) bool

// All combina predicados com E lógico.
func All(preds ...Predicate) Predicate {
	return func(doc domain.TransportDocument) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

// IsPayable é a trava base de pagamento. Repete as checagens de compliance e
// duplicidade mesmo com Payable já calculado, para não depender de quem
// alterou um campo sem recalcular os outros.
func IsPayable(doc domain.TransportDocument) bool {
	return doc.Payable &&
		doc.ComplianceStatus == domain.ComplianceCompliant &&
		doc.Duplicate.Status == domain.DuplicateUnique &&
		doc.LinkedInvoiceKey != "" &&
		doc.Subcontracting.Role != domain.RoleContractor
}

// CIOTCleared é a política das telas de pagamento: CIOT válido ou não aplicável.
func CIOTCleared(doc domain.TransportDocument) bool {
	return doc.CIOT.Status == domain.CIOTValid || doc.CIOT.Status == domain.CIOTNotApplicable
}

// ReadyForPayment é a trava base somada à política de CIOT.
var ReadyForPayment = All(IsPayable, CIOTCleared)

// BlockReasons lista os motivos de bloqueio exibidos na tela de pagamentos.
func BlockReasons(doc domain.TransportDocument) []string {
	var motivos []string
	if doc.ComplianceStatus != domain.ComplianceCompliant {
		motivos = append(motivos, "Não conforme")
	}
	if doc.Duplicate.Status != domain.DuplicateUnique {
		motivos = append(motivos, "Duplicidade")
	}
	if doc.LinkedInvoiceKey == "" {
		motivos = append(motivos, "Sem NF-e")
	}
	if doc.Subcontracting.Role == domain.RoleContractor {
		motivos = append(motivos, "CONTRATANTE (não pagável)")
	}
	if doc.CIOT.Status == domain.CIOTAbsent {
		motivos = append(motivos, "CIOT ausente")
	}
	if !doc.Payable {
		motivos = append(motivos, "Não pagável")
	}
	return motivos
}

// MatchesPartnerSubcontract indica se o documento faz parte de uma
// subcontratação da transportadora parceira, seja como CONTRATANTE emitente
// ou como EXECUTORA contratada por ela.
func MatchesPartnerSubcontract(doc domain.TransportDocument, partnerTaxID string) bool {
	if partnerTaxID == "" {
		return false
	}
	sub := doc.Subcontracting
	asContractor := sub.Role == domain.RoleContractor && doc.IssuerTaxID == partnerTaxID
	asExecutor := sub.Role == domain.RoleExecutor && sub.ContractorTaxID == partnerTaxID
	return asContractor || asExecutor
}
