// Package filter provides the predicate tree pushed down to the row store
// and its compiler.
//
// # Filter vocabulary
//
// Build predicate trees with the constructor functions:
//
//   - Eq(column, value): equality
//   - Lt / Gt / Lte / Gte(column, value): ordered comparisons
//   - StartsWith(column, prefix): string prefix match
//   - In(column, values...): membership
//   - And(l, r) / Or(l, r): boolean composition, arbitrarily nested
//   - Unsupported(): a predicate outside the pushdown vocabulary
//
// Example:
//
//	pred := filter.Compile([]filter.Filter{
//	    filter.And(
//	        filter.Eq("region", "emea"),
//	        filter.Gte("amount", 100),
//	    ),
//	})
//	// pred.Fragment == "(region = ?) AND (amount >= ?)"
//	// pred.Args     == []any{"emea", 100}
//
// # Best-effort pushdown
//
// Compile never fails: filters it cannot express are silently excluded from
// the fragment. The caller owns residual filtering and can use Matches to
// re-apply any filter, pushed or not, against the rows it receives.
package filter
