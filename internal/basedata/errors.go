package basedata

import (
	"errors"
	"fmt"
	"io/fs"
)

// FormatError reports a file whose signature, size or scan type matches no
// supported layout.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "basedata: unsupported format: " + e.Reason
}

// DecodeError reports a truncated record or a gate count that overruns its
// record. Record is the zero-based radial index, or -1 for the file header.
type DecodeError struct {
	Record int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Record < 0 {
		return "basedata: decode header: " + e.Reason
	}
	return fmt.Sprintf("basedata: decode radial %d: %s", e.Record, e.Reason)
}

// ConsistencyError reports a violated derived invariant: unbalanced sweep
// markers, a bad split-cut pairing or a record-count mismatch.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "basedata: inconsistent volume: " + e.Reason
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

func consistencyErrorf(format string, args ...any) error {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind classifies err for metric labels: "format", "decode",
// "consistency", "io" or "other".
func ErrorKind(err error) string {
	var (
		fe *FormatError
		de *DecodeError
		ce *ConsistencyError
		pe *fs.PathError
	)
	switch {
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &ce):
		return "consistency"
	case errors.As(err, &pe):
		return "io"
	default:
		return "other"
	}
}
