package materialbin

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader decodes little-endian primitives from an in-memory buffer.
// It tracks the first error together with the offset where it happened.
// Subsequent reads become no-ops and leave their destinations untouched.
type Reader struct {
	b     []byte
	n     int   // current read position
	err   error // first error encountered
	errAt int64 // offset of the first error
	order binary.ByteOrder
}

// NewReader creates a Reader positioned at offset 0 of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b, order: binary.LittleEndian}
}

// WithByteOrder allows setting a custom byte order and returns
// the configured for chaining.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	r.order = order
	return r
}

func (r *Reader) Offset() int64    { return int64(r.n) }
func (r *Reader) Err() error       { return r.err }
func (r *Reader) ErrOffset() int64 { return r.errAt }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.n >= len(r.b) {
		return 0
	}
	return len(r.b) - r.n
}

// Fail records err as the reader's error unless one is already set.
func (r *Reader) Fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
		r.errAt = int64(r.n)
	}
}

// Failf records a formatted error wrapping base.
func (r *Reader) Failf(base error, format string, args ...any) {
	if r.err == nil {
		r.Fail(fmt.Errorf("%w: "+format, append([]any{base}, args...)...))
	}
}

// take returns the next n bytes as a sub-slice of the buffer.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.Failf(ErrTruncatedData, "need %d bytes, have %d", n, r.Remaining())
		return nil
	}
	buf := r.b[r.n : r.n+n]
	r.n += n
	return buf
}

// ExpectEnd fails with ErrTrailingData unless the whole buffer has been consumed.
func (r *Reader) ExpectEnd() {
	if r.err == nil && r.Remaining() != 0 {
		r.Failf(ErrTrailingData, "%d bytes left", r.Remaining())
	}
}

// --- Primitive Read Operations ---

func (r *Reader) ReadUint8(dest *uint8) {
	if buf := r.take(1); buf != nil {
		*dest = buf[0]
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	if buf := r.take(2); buf != nil {
		*dest = r.order.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	if buf := r.take(4); buf != nil {
		*dest = r.order.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	if buf := r.take(8); buf != nil {
		*dest = r.order.Uint64(buf)
	}
}

func (r *Reader) ReadFloat32(dest *float32) {
	if buf := r.take(4); buf != nil {
		*dest = math.Float32frombits(r.order.Uint32(buf))
	}
}

// ReadBool reads a one-byte flag. Only 0 and 1 are accepted; anything else is
// a structural mismatch, which keeps misaligned parses from succeeding.
func (r *Reader) ReadBool(dest *bool) {
	var b uint8
	r.ReadUint8(&b)
	if r.err != nil {
		return
	}
	switch b {
	case 0:
		*dest = false
	case 1:
		*dest = true
	default:
		r.n--
		r.Failf(ErrInvalidTag, "boolean flag 0x%02x", b)
	}
}

// ReadBytes reads a u32 length prefix followed by that many bytes.
// The returned slice is a copy and does not alias the input buffer.
func (r *Reader) ReadBytes(dest *[]byte) {
	var n uint32
	r.ReadUint32(&n)
	if r.err != nil {
		return
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.n -= 4
		r.Failf(ErrLengthOutOfRange, "length %d exceeds remaining %d bytes", n, r.Remaining()-4)
		return
	}
	buf := r.take(int(n))
	if r.err == nil {
		*dest = append([]byte(nil), buf...)
	}
}

// ReadString reads a u32 length-prefixed string.
func (r *Reader) ReadString(dest *string) {
	var n uint32
	r.ReadUint32(&n)
	if r.err != nil {
		return
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.n -= 4
		r.Failf(ErrLengthOutOfRange, "string length %d exceeds remaining %d bytes", n, r.Remaining()-4)
		return
	}
	if buf := r.take(int(n)); r.err == nil {
		*dest = string(buf)
	}
}

// ReadOptional reads a presence flag and, when set, calls read to fill the value.
// The result is nil when the flag is clear or any read failed.
func ReadOptional[T any](r *Reader, read func(*T)) *T {
	var present bool
	r.ReadBool(&present)
	if !present || r.err != nil {
		return nil
	}
	v := new(T)
	read(v)
	if r.err != nil {
		return nil
	}
	return v
}
