package materialbin

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

type writer interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	Flush() error
}

// Writer provides a buffered writer that simplifies writing binary data.
// It wraps bufio.Writer for efficiency and tracks the first error that occurs.
// After an error, all subsequent write operations become no-ops.
type Writer struct {
	w     writer
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
	order binary.ByteOrder
}

type bytesBufferWriterAdapter struct{ *bytes.Buffer }

func (w *bytesBufferWriterAdapter) Flush() error { return nil }

// NewWriter creates a new Writer. A *bytes.Buffer is written to directly;
// any other destination is wrapped in a bufio.Writer and must be flushed
// through Result or Flush.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}

	switch bw := w.(type) {
	case *Writer:
		return &Writer{w: bw.w, order: bw.order}, nil
	case *bytes.Buffer:
		return &Writer{w: &bytesBufferWriterAdapter{bw}, order: binary.LittleEndian}, nil
	}

	return &Writer{w: bufio.NewWriter(w), order: binary.LittleEndian}, nil
}

// WithByteOrder allows setting a custom byte order and returns
// the configured for chaining.
func (w *Writer) WithByteOrder(order binary.ByteOrder) *Writer {
	w.order = order
	return w
}

// Write implements the io.Writer interface.
func (w *Writer) Write(buf []byte) (int, error) {
	if buf == nil || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(buf)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// setError records the first non-nil error.
// This preserves the root cause of a failure chain instead of a later,
// less relevant error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Fail records err unless an earlier error is already latched.
func (w *Writer) Fail(err error) { w.setError(err) }

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	err := w.w.Flush()
	w.setError(err)
	return err
}

// --- Primitive Write Operations ---

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteUint8(v uint8) {
	if w.err != nil {
		return
	}
	err := w.w.WriteByte(v)
	if err == nil {
		w.count++
	} else {
		w.err = err
	}
}

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	w.order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString writes a u32 length prefix followed by the string bytes.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	if !fits[uint32](len(s)) {
		w.setError(ErrLengthOutOfRange)
		return
	}
	w.WriteUint32(uint32(len(s)))
	if s == "" || w.err != nil {
		return
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.setError(err)
}

// WriteBytes writes a u32 length prefix followed by buf.
func (w *Writer) WriteBytes(buf []byte) {
	if w.err != nil {
		return
	}
	if !fits[uint32](len(buf)) {
		w.setError(ErrLengthOutOfRange)
		return
	}
	w.WriteUint32(uint32(len(buf)))
	if len(buf) > 0 {
		_, _ = w.Write(buf)
	}
}

// WriteOptional writes a presence flag and, when v is non-nil, the value itself.
func WriteOptional[T any](w *Writer, v *T, write func(T)) {
	w.WriteBool(v != nil)
	if v != nil {
		write(*v)
	}
}
