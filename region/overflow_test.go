package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupleworks/shardscan/model"
)

func TestOverflowRoundTrip(t *testing.T) {
	columns := model.Row{float64(42), "hello", true, nil}

	block, err := CompressOverflow(columns)
	require.NoError(t, err)

	decoded, err := DecompressOverflow(block)
	require.NoError(t, err)
	assert.Equal(t, columns, decoded)
}

func TestOverflowRoundTripLargeValue(t *testing.T) {
	// Large repetitive payloads actually compress; the round trip must not
	// depend on whether compression succeeded.
	big := make([]byte, 0, 1<<16)
	for len(big) < 1<<16 {
		big = append(big, "abcdabcdabcd"...)
	}
	columns := model.Row{string(big)}

	block, err := CompressOverflow(columns)
	require.NoError(t, err)
	assert.Less(t, len(block), len(big))

	decoded, err := DecompressOverflow(block)
	require.NoError(t, err)
	assert.Equal(t, columns, decoded)
}

func TestOverflowTruncatedBlock(t *testing.T) {
	columns := model.Row{"payload"}
	block, err := CompressOverflow(columns)
	require.NoError(t, err)

	for _, cut := range []int{0, 1, len(block) / 2} {
		_, err := DecompressOverflow(block[:cut])
		assert.Error(t, err)
	}
}

func TestBasicEntryFill(t *testing.T) {
	schema := model.NewSchema(
		model.Column{Name: "id", Type: model.TypeFloat},
		model.Column{Name: "name", Type: model.TypeString},
	)

	tests := []struct {
		name   string
		entry  *BasicEntry
		filled bool
	}{
		{"InMemory", &BasicEntry{Columns: model.Row{float64(1), "a"}}, true},
		{"Stale", &BasicEntry{Stale: true, Columns: model.Row{float64(1), "a"}}, false},
		{"RemoteOnly", &BasicEntry{RemoteOnly: true}, false},
		{"NoValue", &BasicEntry{}, false},
		{"WidthMismatch", &BasicEntry{Columns: model.Row{float64(1)}}, false},
		{"CorruptOverflow", &BasicEntry{Overflow: []byte{0xff}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := model.NewRow(schema)
			assert.Equal(t, tt.filled, tt.entry.Fill(schema, row))
		})
	}
}

func TestBasicEntryFillFromOverflow(t *testing.T) {
	schema := model.NewSchema(
		model.Column{Name: "id", Type: model.TypeFloat},
		model.Column{Name: "name", Type: model.TypeString},
	)

	block, err := CompressOverflow(model.Row{float64(7), "evicted"})
	require.NoError(t, err)
	entry := &BasicEntry{Overflow: block}

	row := model.NewRow(schema)
	require.True(t, entry.Fill(schema, row))
	assert.Equal(t, model.Row{float64(7), "evicted"}, row)
}
