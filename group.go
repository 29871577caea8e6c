package searchql

import (
	"strings"

	"github.com/veldtlab/searchql/schema"
)

// groupClauses rewrites colon-separated runs into clause candidates.
// Parenthesized spans are grouped before their containing span, so
// nesting is already explicit by the time a span is scanned.
//
// For every ":" the scan looks backward for the longest token run that
// matches a registered field label. Tokens before the matched run pass
// through untouched, and so does everything around a ":" with no match;
// the colon itself is dropped in that case so the stray words fall back
// to full-text search.
func (p *Parser) groupClauses(items []candidate) []candidate {
	for i, it := range items {
		if g, ok := it.(*group); ok {
			items[i] = &group{items: p.groupClauses(g.items)}
		}
	}

	var out []candidate
	i := 0
	for i < len(items) {
		k := nextColon(items, i)
		if k < 0 {
			out = append(out, items[i:]...)
			break
		}

		start := labelRunStart(items, i, k)
		matched := -1
		var field schema.Field
		for j := start; j < k; j++ {
			if f, ok := p.registry.Lookup(joinAtoms(items[j:k])); ok {
				matched, field = j, f
				break
			}
		}
		if matched < 0 {
			out = append(out, items[i:k]...)
			i = k + 1
			continue
		}

		out = append(out, items[i:matched]...)
		cand, next := captureClause(items, k+1)
		cand.field = field
		out = append(out, cand)
		i = next
	}
	return out
}

// nextColon returns the index of the next ":" atom at or after i.
func nextColon(items []candidate, i int) int {
	for ; i < len(items); i++ {
		if a, ok := items[i].(*atom); ok && a.tok.isSymbol(":") {
			return i
		}
	}
	return -1
}

// labelRunStart walks backward from the ":" at k to the start of the
// contiguous run of plain value tokens that may form a field label.
// Connectives and symbols break the run.
func labelRunStart(items []candidate, lo, k int) int {
	start := k
	for start > lo {
		a, ok := items[start-1].(*atom)
		if !ok || !labelMaterial(a.tok) {
			break
		}
		start--
	}
	return start
}

func labelMaterial(t token) bool {
	return t.isValue() && !t.isConnective("&") && !t.isConnective("|")
}

// joinAtoms renders a run of atoms as label text.
func joinAtoms(items []candidate) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.(*atom).tok.text
	}
	return strings.Join(parts, " ")
}

// captureClause reads the written clause tail after a ":": at most one
// comparison operator, at most one value, and any number of additional
// ";"-joined values. Returns the candidate and the index of the first
// unconsumed item.
func captureClause(items []candidate, pos int) (*clauseCand, int) {
	cand := &clauseCand{}

	if pos < len(items) {
		if a, ok := items[pos].(*atom); ok && a.tok.isOperator() {
			cand.opText = a.tok.text
			pos++
		}
	}
	if pos < len(items) {
		if a, ok := items[pos].(*atom); ok && labelMaterial(a.tok) {
			cand.values = append(cand.values, a.tok)
			pos++
		}
	}
	for pos < len(items) {
		a, ok := items[pos].(*atom)
		if !ok || !a.tok.isSymbol(";") {
			break
		}
		cand.isList = true
		pos++
		if pos < len(items) {
			if v, ok := items[pos].(*atom); ok && labelMaterial(v.tok) {
				cand.values = append(cand.values, v.tok)
				pos++
			}
		}
	}
	return cand, pos
}
