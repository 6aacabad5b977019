package ingest

import (
	"strings"

	"github.com/schollz/closestmatch"
)

// ShipperResolver converte a razão social do remetente no nome canônico do
// embarcador cadastrado. Nomes sem correspondência são mantidos como vieram.
type ShipperResolver struct {
	canonical map[string]string
	keys      []string
	matcher   *closestmatch.ClosestMatch
}

func NewShipperResolver(known []string) *ShipperResolver {
	r := &ShipperResolver{canonical: make(map[string]string)}
	for _, name := range known {
		key := normalizeText(name)
		if key == "" {
			continue
		}
		if _, ok := r.canonical[key]; !ok {
			r.keys = append(r.keys, key)
		}
		r.canonical[key] = strings.TrimSpace(name)
	}
	if len(r.keys) > 0 {
		r.matcher = closestmatch.New(r.keys, []int{3, 4})
	}
	return r
}

// Resolve tenta, nesta ordem: igualdade após normalização, todas as palavras
// do nome cadastrado presentes na razão social, e busca aproximada. A busca
// aproximada só vale se os dois nomes tiverem ao menos uma palavra em comum.
func (r *ShipperResolver) Resolve(name string) string {
	raw := strings.TrimSpace(name)
	key := normalizeText(raw)
	if key == "" || r.matcher == nil {
		return raw
	}

	if c, ok := r.canonical[key]; ok {
		return c
	}

	words := wordSet(key)
	for _, k := range r.keys {
		if containsAll(words, strings.Fields(k)) {
			return r.canonical[k]
		}
	}

	if match := r.matcher.Closest(key); match != "" && sharesWord(words, match) {
		return r.canonical[match]
	}
	return raw
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func containsAll(set map[string]bool, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !set[w] {
			return false
		}
	}
	return true
}

func sharesWord(set map[string]bool, candidate string) bool {
	for _, w := range strings.Fields(candidate) {
		if len(w) >= 3 && set[w] {
			return true
		}
	}
	return false
}
