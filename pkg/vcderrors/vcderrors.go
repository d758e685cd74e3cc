// Package vcderrors provides the error taxonomy shared by every stage of
// the VCD build and multiplex pipelines.
package vcderrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so the CLI layer can decide how to report it
// without inspecting message text.
type Kind int

const (
	// InvalidInput covers malformed stream ids, sequence headers, or
	// audio layers that the bitstream itself declares wrong.
	InvalidInput Kind = iota
	// UnsupportedInput covers inputs that are well-formed but outside
	// what this system implements (VBR video, non-PAL/NTSC rate,
	// non-Layer-II audio).
	UnsupportedInput
	// TruncatedInput covers unexpected EOF mid-structure.
	TruncatedInput
	// CapacityExceeded covers fixed-size buffers/tables that overflowed
	// (pack > 2324 bytes, directory > 2048 bytes, too many directories).
	CapacityExceeded
	// IOError covers failures talking to the filesystem.
	IOError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case UnsupportedInput:
		return "unsupported input"
	case TruncatedInput:
		return "truncated input"
	case CapacityExceeded:
		return "capacity exceeded"
	case IOError:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// kindError pairs a Kind with the wrapped cause so errors.Cause still
// reaches the original error while Kind can be recovered separately.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *kindError) Cause() error { return e.cause }

func (e *kindError) Unwrap() error { return e.cause }

// New creates a Kind-tagged error from a message, in the style of
// errors.New but carrying a classification.
func New(kind Kind, message string) error {
	return &kindError{kind: kind, cause: errors.New(message)}
}

// Errorf creates a Kind-tagged error with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap tags an existing error with a Kind and adds context, preserving the
// original error in the Cause chain.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.Wrap(err, message)}
}

// Wrapf tags an existing error with a Kind and adds formatted context.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.Wrapf(err, format, args...)}
}

// KindOf walks the error's cause chain looking for a Kind tag, returning
// ok=false if none was ever attached.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if ke, isKind := err.(*kindError); isKind {
			return ke.kind, true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return 0, false
}
