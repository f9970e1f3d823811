package shardscan

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMoreRows is returned by Next once an iterator is exhausted.
	ErrNoMoreRows = errors.New("no more rows")

	// ErrScannerClosed is returned when computing against a closed scanner.
	ErrScannerClosed = errors.New("scanner is closed")
)

// ErrUnknownColumn indicates a projected column that does not exist in the
// scan's declared schema.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownColumn struct {
	Column string
	cause  error
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown column: %q", e.Column)
}

func (e *ErrUnknownColumn) Unwrap() error { return e.cause }
