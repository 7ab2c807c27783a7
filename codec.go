package materialbin

import (
	"encoding"
	"io"
)

// Marshaler defines the encoding methods of a versioned document.
type Marshaler interface {
	// encoding.BinaryMarshaler provides the primary encoding method.
	encoding.BinaryMarshaler // Method: MarshalBinary() ([]byte, error)
	// io.WriterTo provides stream-based writing.
	io.WriterTo // Method: WriteTo(writer io.Writer) (int64, error)
}

// Unmarshaler defines the decoding methods of a versioned document.
type Unmarshaler interface {
	// encoding.BinaryUnmarshaler decodes data from a byte slice.
	encoding.BinaryUnmarshaler // Method: UnmarshalBinary(data []byte) error
	// io.ReaderFrom reads a whole material from a stream.
	io.ReaderFrom // Method: ReadFrom(r io.Reader) (int64, error)
}

// Codec aggregates the binary serialization and deserialization interfaces.
type Codec interface {
	Marshaler
	Unmarshaler
}

// Document pairs a Material with the version it is encoded as.
//
// Unmarshaling sniffs the version and records it; marshaling writes the
// material in the recorded version.
type Document struct {
	Version  Version
	Material *Material
}

// Statically assert that Document implements Codec.
var _ Codec = (*Document)(nil)

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Document) MarshalBinary() ([]byte, error) {
	return Marshal(d.Material, d.Version)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Document) UnmarshalBinary(data []byte) error {
	m, v, err := Sniff(data)
	if err != nil {
		return err
	}
	d.Material, d.Version = m, v
	return nil
}

// WriteTo implements io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return WriteToGeneric(d, w)
}

// ReadFrom implements io.ReaderFrom. It consumes r to EOF.
func (d *Document) ReadFrom(r io.Reader) (int64, error) {
	return ReadFromGeneric(d, r)
}
