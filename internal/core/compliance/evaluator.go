package compliance

import "github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"

// Verdict é o resultado da avaliação de compliance de um CT-e.
type Verdict struct {
	Status  domain.ComplianceStatus `json:"status_compliance"`
	Message string                  `json:"mensagem_compliance"`
	Payable bool                    `json:"pagavel"`
}

// Evaluate aplica a tabela de decisão sobre papel de subcontratação e destaque
// de ICMS. Não altera o documento recebido.
func Evaluate(doc domain.TransportDocument) Verdict {
	sub := doc.Subcontracting
	highlighted := doc.ICMS.Highlighted

	switch sub.Role {
	case domain.RoleNone:
		if highlighted {
			return Verdict{domain.ComplianceCompliant, "CT-e normal com ICMS destacado", true}
		}
		return Verdict{domain.ComplianceNonCompliant, "Prestação normal sem ICMS destacado", true}

	case domain.RoleExecutor:
		if highlighted {
			return Verdict{domain.ComplianceCompliant, "CT-e EXECUTORA com ICMS destacado", true}
		}
		return Verdict{domain.ComplianceNonCompliant, "CT-e EXECUTORA sem ICMS destacado", true}

	case domain.RoleContractor:
		// A CONTRATANTE nunca é pagável diretamente.
		if sub.ExecutorDocumentRef == "" {
			return Verdict{domain.CompliancePending, "Referenciar CT-e da executora", false}
		}
		if !highlighted {
			return Verdict{domain.ComplianceCompliant, "CT-e CONTRATANTE sem destaque de ICMS", false}
		}
		return Verdict{domain.ComplianceNonCompliant, "CT-e CONTRATANTE não deve destacar ICMS", false}
	}

	return Verdict{domain.CompliancePending, "Situação não identificada", false}
}

// Apply devolve uma cópia do documento com o veredito incorporado.
func Apply(doc domain.TransportDocument) domain.TransportDocument {
	v := Evaluate(doc)
	doc.ComplianceStatus = v.Status
	doc.ComplianceMessage = v.Message
	doc.Payable = v.Payable
	return doc
}

// EvaluateAll aplica Evaluate sobre toda a coleção, sem tocar no slice original.
func EvaluateAll(docs []domain.TransportDocument) []domain.TransportDocument {
	out := make([]domain.TransportDocument, len(docs))
	for i, doc := range docs {
		out[i] = Apply(doc)
	}
	return out
}

// Recompute é a ação "verificar compliance": reavalia cada documento e depois
// refaz a detecção de duplicidade sobre o conjunto inteiro.
func Recompute(docs []domain.TransportDocument) []domain.TransportDocument {
	return DetectDuplicates(EvaluateAll(docs))
}
