package compliance

import (
	"strings"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// identityKey agrupa reemissões do mesmo evento: emitente, série, número e a
// data civil da emissão. A granularidade por dia é heurística e pode agrupar
// reemissões legítimas no mesmo dia.
func identityKey(doc domain.TransportDocument) string {
	return strings.Join([]string{doc.IssuerTaxID, doc.Series, doc.Number, doc.IssueDate()}, "-")
}

// DetectDuplicates reclassifica toda a coleção quanto a duplicidade e pares de
// subcontratação. Trabalha sobre uma cópia: o slice recebido não é alterado.
//
// Ordem de precedência por documento:
//  1. chave de acesso repetida -> Possível duplicado, não pagável;
//  2. identidade (emitente, série, número, dia) repetida -> Possível duplicado, não pagável;
//  3. EXECUTORA com CNPJ da contratante -> procura a CONTRATANTE que a referencia
//     e marca as duas como Par subcontratação, uma apontando para a outra.
func DetectDuplicates(docs []domain.TransportDocument) []domain.TransportDocument {
	out := make([]domain.TransportDocument, len(docs))
	copy(out, docs)

	byKey := make(map[string]int, len(out))
	byIdentity := make(map[string]int, len(out))
	for i := range out {
		out[i].Duplicate = domain.Duplicate{Status: domain.DuplicateUnique}
		byKey[out[i].AccessKey]++
		byIdentity[identityKey(out[i])]++
	}

	for i := range out {
		if byKey[out[i].AccessKey] > 1 || byIdentity[identityKey(out[i])] > 1 {
			out[i].Duplicate.Status = domain.DuplicatePossible
			out[i].Payable = false
		}
	}

	for i := range out {
		exec := &out[i]
		if exec.Duplicate.Status != domain.DuplicateUnique {
			continue
		}
		if exec.Subcontracting.Role != domain.RoleExecutor || exec.Subcontracting.ContractorTaxID == "" {
			continue
		}
		for j := range out {
			c := &out[j]
			if c.Subcontracting.Role != domain.RoleContractor || c.Duplicate.Status != domain.DuplicateUnique {
				continue
			}
			if c.Subcontracting.ExecutorDocumentRef != exec.AccessKey || c.IssuerTaxID != exec.Subcontracting.ContractorTaxID {
				continue
			}
			exec.Duplicate = domain.Duplicate{Status: domain.DuplicateSubcontractorPair, RelatedKey: c.AccessKey}
			c.Duplicate = domain.Duplicate{Status: domain.DuplicateSubcontractorPair, RelatedKey: exec.AccessKey}
			break
		}
	}

	return out
}
