package searchql

import "github.com/veldtlab/searchql/domain"

// resolve folds candidates into boolean junctions. OR runs first and
// binds tighter; the AND pass then joins whatever remains, treating
// plain adjacency as an implicit AND. Explicit groups resolve before
// the span that contains them and participate as single opaque units.
func resolve(items []candidate) []candidate {
	items = resolveGroups(items)
	items = joinOr(items)
	return joinAnd(items)
}

func resolveGroups(items []candidate) []candidate {
	out := make([]candidate, 0, len(items))
	for _, it := range items {
		g, ok := it.(*group)
		if !ok {
			out = append(out, it)
			continue
		}
		// "()" contributes nothing, anything else resolves to one unit.
		if inner := resolve(g.items); len(inner) > 0 {
			if j, ok := inner[0].(*junctionCand); ok {
				j.grouped = true
			}
			out = append(out, inner[0])
		}
	}
	return out
}

// joinOr folds "|"-separated neighbors into OR junctions. A "|" with a
// missing, duplicated, or conflicting neighbor is skipped rather than
// an error. Consecutive OR operands fold into one n-ary junction, but
// a junction from explicit parentheses stays a closed operand.
func joinOr(items []candidate) []candidate {
	var out []candidate
	for i := 0; i < len(items); i++ {
		if !isConnective(items[i], "|") {
			out = append(out, items[i])
			continue
		}
		if len(out) == 0 || isConnective(out[len(out)-1], "&") {
			continue
		}
		j := i + 1
		for j < len(items) && isConnective(items[j], "|") {
			j++
		}
		if j >= len(items) || isConnective(items[j], "&") {
			continue
		}

		prev := out[len(out)-1]
		if jn, ok := prev.(*junctionCand); ok && jn.op == domain.BoolOr && !jn.grouped {
			jn.children = append(jn.children, items[j])
		} else {
			out[len(out)-1] = &junctionCand{op: domain.BoolOr, children: []candidate{prev, items[j]}}
		}
		i = j
	}
	return out
}

// joinAnd folds everything left after the OR pass into a single AND
// junction. Leftover connective tokens are dropped.
func joinAnd(items []candidate) []candidate {
	var units []candidate
	for _, it := range items {
		if isConnective(it, "&") || isConnective(it, "|") {
			continue
		}
		units = append(units, it)
	}
	if len(units) <= 1 {
		return units
	}
	return []candidate{&junctionCand{op: domain.BoolAnd, children: units}}
}

func isConnective(c candidate, text string) bool {
	a, ok := c.(*atom)
	return ok && a.tok.isConnective(text)
}
