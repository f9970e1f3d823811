package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tupleworks/shardscan/model"
)

func testSchema() model.Schema {
	return model.NewSchema(
		model.Column{Name: "id", Type: model.TypeInt},
		model.Column{Name: "name", Type: model.TypeString},
		model.Column{Name: "amount", Type: model.TypeFloat},
		model.Column{Name: "active", Type: model.TypeBool},
	)
}

func TestMatches(t *testing.T) {
	schema := testSchema()
	row := model.Row{int64(7), "Alice", 12.5, true}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{"Eq_Int_Match", Eq("id", 7), true},
		{"Eq_Int_NoMatch", Eq("id", 8), false},
		{"Eq_String_Match", Eq("name", "Alice"), true},
		{"Eq_Bool_Match", Eq("active", true), true},
		{"Eq_MixedNumeric", Eq("amount", 12.5), true},
		{"Lt_Match", Lt("id", 10), true},
		{"Lt_NoMatch", Lt("id", 7), false},
		{"Gt_Match", Gt("amount", 10), true},
		{"Lte_Boundary", Lte("id", 7), true},
		{"Gte_Boundary", Gte("id", 7), true},
		{"StartsWith_Match", StartsWith("name", "Al"), true},
		{"StartsWith_NoMatch", StartsWith("name", "Bo"), false},
		{"In_Match", In("id", 1, 7, 9), true},
		{"In_NoMatch", In("id", 1, 9), false},
		{"And_BothTrue", And(Eq("id", 7), Gt("amount", 10)), true},
		{"And_OneFalse", And(Eq("id", 7), Gt("amount", 100)), false},
		{"Or_OneTrue", Or(Eq("id", 99), StartsWith("name", "Al")), true},
		{"Or_BothFalse", Or(Eq("id", 99), Eq("name", "Bob")), false},
		{"Unsupported_MatchesNothing", Unsupported(), false},
		{"UnknownColumn", Eq("missing", 1), false},
		{"TypeMismatch", Lt("name", 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.filter, schema, row))
		})
	}
}

func TestMatchesResidualAgreesWithPushdownSemantics(t *testing.T) {
	// A filter dropped from pushdown and one that was pushed must agree on
	// what they select when re-applied in memory.
	schema := testSchema()
	rows := []model.Row{
		{int64(1), "Alice", 5.0, true},
		{int64(2), "Bob", 50.0, false},
		{int64(3), "Ann", 500.0, true},
	}

	f := And(StartsWith("name", "A"), Gte("amount", 5))
	var kept []int64
	for _, row := range rows {
		if Matches(f, schema, row) {
			kept = append(kept, row[0].(int64))
		}
	}
	assert.Equal(t, []int64{1, 3}, kept)
}
