package ratetable

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/LuisEduardoPedra/auditoriaFrete/internal/domain"
)

// Registry guarda as tabelas vigentes em memória.
type Registry struct {
	mu     sync.RWMutex
	tables []Table
}

func NewRegistry(tables []Table) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(tables); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace troca todas as tabelas de uma vez. Se alguma for inválida nada é
// alterado.
func (r *Registry) Replace(tables []Table) error {
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	cp := make([]Table, len(tables))
	copy(cp, tables)

	r.mu.Lock()
	r.tables = cp
	r.mu.Unlock()
	return nil
}

func (r *Registry) List() []Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Table, len(r.tables))
	copy(out, r.tables)
	return out
}

// Find devolve a primeira tabela que cobre o documento.
func (r *Registry) Find(doc domain.TransportDocument) (Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tables {
		if t.Applies(doc) {
			return t, true
		}
	}
	return Table{}, false
}

// Audit preenche a comparação com a tabela e o status de auditoria do CT-e.
// Sem tabela aplicável o documento fica Pendente.
func (r *Registry) Audit(doc domain.TransportDocument, tolerancePct decimal.Decimal) domain.TransportDocument {
	t, ok := r.Find(doc)
	if !ok {
		doc.RateComparison = pending()
	} else {
		doc.RateComparison = Compare(doc, t, tolerancePct)
	}
	doc.AuditStatus = AuditStatusFor(doc.RateComparison, ok)
	return doc
}

func AuditStatusFor(cmp domain.RateComparison, found bool) domain.AuditStatus {
	if !found || cmp.Status == "" {
		return domain.AuditPending
	}
	return cmp.Status
}
