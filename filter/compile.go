package filter

import (
	"strings"
)

// CompiledPredicate is the result of pushing a filter list down to the
// storage layer: a parameterized query fragment and the ordered literals to
// bind to its placeholders.
//
// Invariant: the number of '?' placeholders in Fragment equals len(Args),
// and Args preserve the left-to-right order in which their filters were
// visited.
type CompiledPredicate struct {
	Fragment string
	Args     []any
}

// Empty reports whether nothing was pushed down.
func (p CompiledPredicate) Empty() bool {
	return p.Fragment == ""
}

// Compile translates a filter list into a parameterized query fragment plus
// its bind arguments. Filters that cannot be pushed down contribute nothing
// and are not reported; pushdown is best-effort and the caller re-applies
// un-pushed filters after the scan (see Matches).
//
// Top-level filters are joined with AND. An empty input compiles to the
// empty predicate (no WHERE clause).
func Compile(filters []Filter) CompiledPredicate {
	var sb strings.Builder
	var args []any
	for _, f := range filters {
		frag, fargs, ok := compileOne(f)
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(frag)
		args = append(args, fargs...)
	}
	return CompiledPredicate{Fragment: sb.String(), Args: args}
}

// compileOne compiles a single filter node. ok is false when the node, or
// either side of a conjunction/disjunction, is outside the supported set;
// a half-pushed AND/OR would change which rows the store returns, so the
// whole node is dropped instead.
func compileOne(f Filter) (string, []any, bool) {
	switch f.Kind {
	case KindEqualTo:
		return f.Column + " = ?", []any{f.Value}, true
	case KindLessThan:
		return f.Column + " < ?", []any{f.Value}, true
	case KindGreaterThan:
		return f.Column + " > ?", []any{f.Value}, true
	case KindLessThanOrEqual:
		return f.Column + " <= ?", []any{f.Value}, true
	case KindGreaterThanOrEqual:
		return f.Column + " >= ?", []any{f.Value}, true
	case KindStartsWith:
		// The prefix is passed through verbatim: '%' or '_' already present
		// in it keep their LIKE wildcard meaning. Interoperability with the
		// store depends on this exact text, so it is pinned by tests rather
		// than escaped.
		prefix, _ := f.Value.(string)
		return f.Column + " LIKE ?", []any{prefix + "%"}, true
	case KindIn:
		if len(f.Values) == 0 {
			return "", nil, false
		}
		var sb strings.Builder
		sb.WriteString(f.Column)
		sb.WriteString(" IN (")
		for i := range f.Values {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("?")
		}
		sb.WriteString(")")
		return sb.String(), append([]any(nil), f.Values...), true
	case KindAnd:
		return compileJoin(f, "AND")
	case KindOr:
		return compileJoin(f, "OR")
	default:
		return "", nil, false
	}
}

func compileJoin(f Filter, op string) (string, []any, bool) {
	if f.Left == nil || f.Right == nil {
		return "", nil, false
	}
	lfrag, largs, ok := compileOne(*f.Left)
	if !ok {
		return "", nil, false
	}
	rfrag, rargs, ok := compileOne(*f.Right)
	if !ok {
		return "", nil, false
	}
	return "(" + lfrag + ") " + op + " (" + rfrag + ")", append(largs, rargs...), true
}
