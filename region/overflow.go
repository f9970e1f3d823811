package region

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/tupleworks/shardscan/model"
)

// Overflow values are entry payloads that were evicted from heap memory and
// persist as an LZ4 block prefixed with the uncompressed size as a uvarint.

var errOverflowTruncated = errors.New("overflow block truncated")

// CompressOverflow encodes a column slice into an overflow block.
func CompressOverflow(columns model.Row) ([]byte, error) {
	raw, err := json.Marshal([]any(columns))
	if err != nil {
		return nil, fmt.Errorf("failed to encode overflow value: %w", err)
	}

	header := binary.AppendUvarint(nil, uint64(len(raw)))
	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compress overflow value: %w", err)
	}
	if n == 0 {
		// Incompressible; store raw with a zero marker.
		return append(binary.AppendUvarint(header, 0), raw...), nil
	}
	block := binary.AppendUvarint(header, uint64(n))
	return append(block, compressed[:n]...), nil
}

// DecompressOverflow decodes an overflow block back into its columns.
func DecompressOverflow(block []byte) (model.Row, error) {
	rawSize, n := binary.Uvarint(block)
	if n <= 0 {
		return nil, errOverflowTruncated
	}
	block = block[n:]
	compSize, n := binary.Uvarint(block)
	if n <= 0 {
		return nil, errOverflowTruncated
	}
	block = block[n:]

	var raw []byte
	if compSize == 0 {
		if uint64(len(block)) < rawSize {
			return nil, errOverflowTruncated
		}
		raw = block[:rawSize]
	} else {
		if uint64(len(block)) < compSize {
			return nil, errOverflowTruncated
		}
		raw = make([]byte, rawSize)
		decoded, err := lz4.UncompressBlock(block[:compSize], raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress overflow value: %w", err)
		}
		if uint64(decoded) != rawSize {
			return nil, errors.New("overflow block size mismatch")
		}
	}

	var columns []any
	if err := json.Unmarshal(raw, &columns); err != nil {
		return nil, fmt.Errorf("failed to decode overflow value: %w", err)
	}
	return model.Row(columns), nil
}
