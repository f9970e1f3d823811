package filter

import (
	"bytes"
	"strings"

	"github.com/tupleworks/shardscan/model"
)

// Matches evaluates a filter tree against a row in memory. It is the
// residual counterpart to Compile: filters that were dropped from pushdown
// are re-applied here by the caller after the scan.
//
// Unsupported filters match nothing. A column missing from the schema, or a
// comparison across incompatible types, evaluates to false rather than
// erroring, mirroring how the store treats such predicates.
func Matches(f Filter, schema model.Schema, row model.Row) bool {
	switch f.Kind {
	case KindAnd:
		if f.Left == nil || f.Right == nil {
			return false
		}
		return Matches(*f.Left, schema, row) && Matches(*f.Right, schema, row)
	case KindOr:
		if f.Left == nil || f.Right == nil {
			return false
		}
		return Matches(*f.Left, schema, row) || Matches(*f.Right, schema, row)
	case KindUnsupported:
		return false
	}

	i, ok := schema.Ordinal(f.Column)
	if !ok || i >= len(row) {
		return false
	}
	value := row[i]

	switch f.Kind {
	case KindEqualTo:
		return compareEqual(value, f.Value)
	case KindLessThan:
		return compareLess(value, f.Value)
	case KindGreaterThan:
		return compareLess(f.Value, value)
	case KindLessThanOrEqual:
		return compareLess(value, f.Value) || compareEqual(value, f.Value)
	case KindGreaterThanOrEqual:
		return compareLess(f.Value, value) || compareEqual(value, f.Value)
	case KindStartsWith:
		s, sok := value.(string)
		prefix, pok := f.Value.(string)
		return sok && pok && strings.HasPrefix(s, prefix)
	case KindIn:
		for _, v := range f.Values {
			if compareEqual(value, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compareEqual compares two opaque literals for equality with numeric
// coercion across integer and float representations.
func compareEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, aok := asInt64(a); aok {
		if bi, bok := asInt64(b); bok {
			return ai == bi
		}
	}
	if af, aok := asFloat64(a); aok {
		if bf, bok := asFloat64(b); bok {
			return af == bf
		}
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	default:
		return false
	}
}

func compareLess(a, b any) bool {
	if af, aok := asFloat64(a); aok {
		bf, bok := asFloat64(b)
		return bok && af < bf
	}
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		return bok && as < bs
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
