package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketSetBasics(t *testing.T) {
	b := NewBucketSet()
	assert.True(t, b.IsEmpty())

	b.Add(3)
	b.Add(1)
	b.Add(3)
	assert.False(t, b.IsEmpty())
	assert.Equal(t, uint64(2), b.Cardinality())
	assert.True(t, b.Contains(1))
	assert.False(t, b.Contains(2))
	assert.Equal(t, []uint32{1, 3}, b.Slice())
}

func TestBucketSetOf(t *testing.T) {
	b := BucketSetOf(5, 2, 9)
	assert.Equal(t, []uint32{2, 5, 9}, b.Slice())
}

func TestBucketSetIterator(t *testing.T) {
	b := BucketSetOf(4, 1, 7)

	var got []uint32
	for id := range b.Iterator() {
		got = append(got, id)
	}
	assert.Equal(t, []uint32{1, 4, 7}, got)
}

func TestBucketSetCloneIsIndependent(t *testing.T) {
	b := BucketSetOf(1, 2)
	c := b.Clone()
	c.Add(3)
	assert.False(t, b.Contains(3))
	assert.True(t, c.Contains(3))
}

func TestBucketSetOr(t *testing.T) {
	b := BucketSetOf(1)
	b.Or(BucketSetOf(2, 3))
	assert.Equal(t, []uint32{1, 2, 3}, b.Slice())
}
