package partition

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// BucketSet is a set of bucket identifiers, unique within one table.
// It wraps a 32-bit Roaring Bitmap.
type BucketSet struct {
	rb *roaring.Bitmap
}

// NewBucketSet creates a new empty bucket set.
func NewBucketSet() *BucketSet {
	return &BucketSet{
		rb: roaring.New(),
	}
}

// BucketSetOf creates a bucket set containing the given bucket IDs.
func BucketSetOf(ids ...uint32) *BucketSet {
	b := NewBucketSet()
	for _, id := range ids {
		b.rb.Add(id)
	}
	return b
}

// Add adds a bucket ID to the set.
func (b *BucketSet) Add(id uint32) {
	b.rb.Add(id)
}

// Contains checks if a bucket ID is in the set.
func (b *BucketSet) Contains(id uint32) bool {
	return b.rb.Contains(id)
}

// IsEmpty returns true if the set is empty.
func (b *BucketSet) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of buckets in the set.
func (b *BucketSet) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (b *BucketSet) Clone() *BucketSet {
	return &BucketSet{
		rb: b.rb.Clone(),
	}
}

// Or computes the union of two sets in place.
func (b *BucketSet) Or(other *BucketSet) {
	b.rb.Or(other.rb)
}

// Iterator returns an iterator over the set in ascending bucket order.
func (b *BucketSet) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Slice returns the bucket IDs in ascending order.
func (b *BucketSet) Slice() []uint32 {
	return b.rb.ToArray()
}

// String returns a string representation of the set.
func (b *BucketSet) String() string {
	return b.rb.String()
}
