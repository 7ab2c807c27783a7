package materialbin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTruncatedData indicates that the buffer ended before all expected bytes were read.
	ErrTruncatedData = errors.New("materialbin: truncated data")

	// ErrTrailingData indicates bytes remain after the closing magic of a material.
	ErrTrailingData = errors.New("materialbin: trailing data after end of material")

	// ErrLengthOutOfRange indicates a length or count prefix that cannot fit the remaining
	// buffer on decode, or a collection too large for its prefix width on encode.
	ErrLengthOutOfRange = errors.New("materialbin: length prefix out of range")

	// ErrInvalidTag indicates a discriminant (enum, boolean flag, bitset character) outside
	// the set the layout allows.
	ErrInvalidTag = errors.New("materialbin: invalid tag value")

	// ErrBadMagic indicates the leading or trailing magic, or the definition header string, did not match.
	ErrBadMagic = errors.New("materialbin: bad magic")

	// ErrFormatMismatch indicates the embedded format number belongs to a different layout.
	ErrFormatMismatch = errors.New("materialbin: format number mismatch")

	// ErrEncrypted indicates an encrypted material, which cannot be transcoded.
	ErrEncrypted = errors.New("materialbin: encrypted material")

	// ErrUnknownVersion indicates a Version outside the registry.
	ErrUnknownVersion = errors.New("materialbin: unknown version")

	// ErrNoMatch is matched by every *NoMatchError.
	ErrNoMatch = errors.New("materialbin: not a material in any known version")

	// ErrUnrepresentable indicates the material uses a construct the target layout lacks.
	ErrUnrepresentable = errors.New("materialbin: construct not representable in target version")

	// ErrInvalidModel indicates a Material value that no layout can encode.
	ErrInvalidModel = errors.New("materialbin: invalid material")

	// ErrNilIO indicates that NewWriter was called with a nil io.Writer.
	ErrNilIO = errors.New("materialbin: NewWriter called with a nil io.Writer")
)

// DecodeError reports why a buffer does not conform to one version's layout.
type DecodeError struct {
	Version Version
	Offset  int64 // offset of the first failing read
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("materialbin: decode as %s failed at offset %d: %v", e.Version, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NoMatchError is returned by Sniff once every registered version failed to decode.
type NoMatchError struct {
	Attempts []*DecodeError // in registry order
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	b.WriteString(ErrNoMatch.Error())
	for i, attempt := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", attempt.Version, attempt.Err)
	}
	return b.String()
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

func (e *NoMatchError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, attempt := range e.Attempts {
		errs[i] = attempt
	}
	return errs
}

// EncodeError reports why a Material could not be written in a target version.
type EncodeError struct {
	Version Version
	Field   string // dotted path of the offending construct
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("materialbin: encode as %s: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("materialbin: encode as %s: %s: %v", e.Version, e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
