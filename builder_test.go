package shardscan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shardscan "github.com/tupleworks/shardscan"
	"github.com/tupleworks/shardscan/filter"
	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/store"
	"github.com/tupleworks/shardscan/testutil"
)

func TestBuilderValidation(t *testing.T) {
	factory := testutil.NewFactory(nil)
	meta := &testutil.Metadata{Info: partitionedInfo()}

	tests := []struct {
		name  string
		build func() (*shardscan.Scanner, error)
	}{
		{
			"MissingTable",
			func() (*shardscan.Scanner, error) {
				return shardscan.Table("", orderSchema).
					Connect(factory.Open, store.ConnProps{}).
					Metadata(meta).
					Build()
			},
		},
		{
			"EmptySchema",
			func() (*shardscan.Scanner, error) {
				return shardscan.Table("orders", model.NewSchema()).
					Connect(factory.Open, store.ConnProps{}).
					Metadata(meta).
					Build()
			},
		},
		{
			"MissingFactory",
			func() (*shardscan.Scanner, error) {
				return shardscan.Table("orders", orderSchema).
					Metadata(meta).
					Build()
			},
		},
		{
			"MissingMetadata",
			func() (*shardscan.Scanner, error) {
				return shardscan.Table("orders", orderSchema).
					Connect(factory.Open, store.ConnProps{}).
					Build()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.Error(t, err)
		})
	}
}

func TestBuilderRejectsUnknownProjectedColumn(t *testing.T) {
	factory := testutil.NewFactory(nil)
	meta := &testutil.Metadata{Info: partitionedInfo()}

	_, err := shardscan.Table("orders", orderSchema).
		Connect(factory.Open, store.ConnProps{}).
		Metadata(meta).
		Project("id", "no_such_column").
		Build()
	require.Error(t, err)

	var unknown *shardscan.ErrUnknownColumn
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no_such_column", unknown.Column)
}

func TestBuilderIsImmutable(t *testing.T) {
	factory := testutil.NewFactory(nil)
	meta := &testutil.Metadata{Info: partitionedInfo()}

	base := shardscan.Table("orders", orderSchema).
		Connect(factory.Open, store.ConnProps{}).
		Metadata(meta)

	filtered := base.Filters(filter.Eq("id", 1))

	plain, err := base.Build()
	require.NoError(t, err)
	defer plain.Close()

	pushed, err := filtered.Build()
	require.NoError(t, err)
	defer pushed.Close()

	assert.True(t, plain.Predicate().Empty())
	assert.Equal(t, "id = ?", pushed.Predicate().Fragment)
}

func TestBuilderCompilesPredicateOnce(t *testing.T) {
	factory := testutil.NewFactory(nil)
	meta := &testutil.Metadata{Info: partitionedInfo()}

	sc, err := shardscan.Table("orders", orderSchema).
		Connect(factory.Open, store.ConnProps{}).
		Metadata(meta).
		Filters(filter.In("id", 1, 2), filter.StartsWith("name", "A")).
		Build()
	require.NoError(t, err)
	defer sc.Close()

	pred := sc.Predicate()
	assert.Equal(t, "id IN (?,?) AND name LIKE ?", pred.Fragment)
	assert.Equal(t, []any{1, 2, "A%"}, pred.Args)
}
