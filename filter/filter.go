package filter

// Kind identifies the concrete predicate stored in a Filter.
type Kind uint8

const (
	// KindUnsupported represents a predicate the compiler cannot push down.
	KindUnsupported Kind = iota
	// KindEqualTo represents column = value.
	KindEqualTo
	// KindLessThan represents column < value.
	KindLessThan
	// KindGreaterThan represents column > value.
	KindGreaterThan
	// KindLessThanOrEqual represents column <= value.
	KindLessThanOrEqual
	// KindGreaterThanOrEqual represents column >= value.
	KindGreaterThanOrEqual
	// KindStartsWith represents a string prefix match.
	KindStartsWith
	// KindIn represents column IN (values...).
	KindIn
	// KindAnd represents the conjunction of two filters.
	KindAnd
	// KindOr represents the disjunction of two filters.
	KindOr
)

// Filter is a node of a recursive predicate tree. It is immutable once
// constructed; build trees with the constructor functions below.
//
// Comparison kinds carry Column and Value, KindIn carries Column and Values,
// KindAnd/KindOr carry Left and Right. KindUnsupported carries nothing and
// compiles to nothing.
type Filter struct {
	Kind   Kind
	Column string
	Value  any
	Values []any
	Left   *Filter
	Right  *Filter
}

// Eq creates an equality filter (column = value).
func Eq(column string, value any) Filter {
	return Filter{Kind: KindEqualTo, Column: column, Value: value}
}

// Lt creates a less-than filter (column < value).
func Lt(column string, value any) Filter {
	return Filter{Kind: KindLessThan, Column: column, Value: value}
}

// Gt creates a greater-than filter (column > value).
func Gt(column string, value any) Filter {
	return Filter{Kind: KindGreaterThan, Column: column, Value: value}
}

// Lte creates a less-than-or-equal filter (column <= value).
func Lte(column string, value any) Filter {
	return Filter{Kind: KindLessThanOrEqual, Column: column, Value: value}
}

// Gte creates a greater-than-or-equal filter (column >= value).
func Gte(column string, value any) Filter {
	return Filter{Kind: KindGreaterThanOrEqual, Column: column, Value: value}
}

// StartsWith creates a string prefix filter.
func StartsWith(column string, prefix string) Filter {
	return Filter{Kind: KindStartsWith, Column: column, Value: prefix}
}

// In creates a membership filter (column IN (values...)).
//
// A zero-length value list has no defined comparison; it yields an
// unsupported filter so it never reaches the compiler.
func In(column string, values ...any) Filter {
	if len(values) == 0 {
		return Unsupported()
	}
	return Filter{Kind: KindIn, Column: column, Values: values}
}

// And creates the conjunction of two filters.
func And(left, right Filter) Filter {
	return Filter{Kind: KindAnd, Left: &left, Right: &right}
}

// Or creates the disjunction of two filters.
func Or(left, right Filter) Filter {
	return Filter{Kind: KindOr, Left: &left, Right: &right}
}

// Unsupported creates a filter outside the pushdown vocabulary. Callers that
// wrap foreign predicate types map them to this; the compiler drops it
// silently and the caller re-applies the original predicate after the scan.
func Unsupported() Filter {
	return Filter{Kind: KindUnsupported}
}
