package materialbin

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Offsets of the fixed material header.
var (
	formatAt     = 8 + 4 + len(definitionHeader)
	encryptionAt = formatAt + 8
	nameAt       = encryptionAt + 4
)

func mustMarshal(t testing.TB, m *Material, v Version) []byte {
	t.Helper()
	data, err := Marshal(m, v)
	require.NoError(t, err)
	return data
}

func requireDecodeError(t *testing.T, err error, want error) *DecodeError {
	t.Helper()
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %T: %v", err, err)
	assert.ErrorIs(t, err, want)
	return de
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, v := range AllVersions() {
		t.Run(v.String(), func(t *testing.T) {
			want := sampleMaterial(v)
			data := mustMarshal(t, want, v)

			got, err := Decode(data, v)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			again := mustMarshal(t, got, v)
			assert.Equal(t, data, again, "re-encoding must be byte-identical")
		})
	}
}

func TestDecodeMinimal(t *testing.T) {
	m := &Material{Name: ""}
	data := mustMarshal(t, m, V1_18_30)
	got, err := Decode(data, V1_18_30)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeErrors(t *testing.T) {
	valid := mustMarshal(t, sampleMaterial(V1_20_80), V1_20_80)
	mutate := func(f func(b []byte) []byte) []byte {
		return f(bytes.Clone(valid))
	}

	t.Run("UnknownVersion", func(t *testing.T) {
		_, err := Decode(valid, Version(42))
		assert.ErrorIs(t, err, ErrUnknownVersion)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Decode(nil, V1_20_80)
		de := requireDecodeError(t, err, ErrTruncatedData)
		assert.Zero(t, de.Offset)
	})

	t.Run("BadMagic", func(t *testing.T) {
		data := mutate(func(b []byte) []byte { b[0] ^= 0xFF; return b })
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrBadMagic)
		assert.Zero(t, de.Offset)
	})

	t.Run("BadClosingMagic", func(t *testing.T) {
		data := mutate(func(b []byte) []byte { b[len(b)-1] = 0x7F; return b })
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrBadMagic)
		assert.EqualValues(t, len(valid)-8, de.Offset)
	})

	t.Run("FormatMismatch", func(t *testing.T) {
		_, err := Decode(valid, V1_21_20)
		de := requireDecodeError(t, err, ErrFormatMismatch)
		assert.EqualValues(t, formatAt, de.Offset)
		assert.Equal(t, V1_21_20, de.Version)
	})

	t.Run("Encrypted", func(t *testing.T) {
		data := mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[encryptionAt:], encryptionSimple)
			return b
		})
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrEncrypted)
		assert.EqualValues(t, encryptionAt, de.Offset)
	})

	t.Run("UnknownEncryption", func(t *testing.T) {
		data := mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[encryptionAt:], 7)
			return b
		})
		_, err := Decode(data, V1_20_80)
		requireDecodeError(t, err, ErrInvalidTag)
	})

	t.Run("StringLengthOutOfRange", func(t *testing.T) {
		data := mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[nameAt:], 0xFFFFFFFF)
			return b
		})
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrLengthOutOfRange)
		assert.EqualValues(t, nameAt, de.Offset)
	})

	t.Run("NonBooleanOptionFlag", func(t *testing.T) {
		at := nameAt + 4 + len("RenderChunk")
		data := mutate(func(b []byte) []byte { b[at] = 2; return b })
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrInvalidTag)
		assert.EqualValues(t, at, de.Offset)
	})

	t.Run("EnumOutOfRange", func(t *testing.T) {
		at := bytes.Index(valid, []byte("s_MatTexture")) + len("s_MatTexture") + 2
		data := mutate(func(b []byte) []byte { b[at] = 9; return b })
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrInvalidTag)
		assert.EqualValues(t, at, de.Offset)
	})

	t.Run("InvalidBitset", func(t *testing.T) {
		data := mutate(func(b []byte) []byte {
			return bytes.Replace(b, []byte("0110"), []byte("01x0"), 1)
		})
		_, err := Decode(data, V1_20_80)
		requireDecodeError(t, err, ErrInvalidTag)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Decode(valid[:len(valid)-1], V1_20_80)
		requireDecodeError(t, err, ErrTruncatedData)
	})

	t.Run("TrailingData", func(t *testing.T) {
		data := append(bytes.Clone(valid), 0x00)
		_, err := Decode(data, V1_20_80)
		de := requireDecodeError(t, err, ErrTrailingData)
		assert.EqualValues(t, len(valid), de.Offset)
	})
}

func TestDecodeExternalPropertyWithData(t *testing.T) {
	m := &Material{Properties: []Property{{Name: "u_ext", Type: PropertyVec4, Data: []float32{1, 2, 3, 4}}}}
	data := mustMarshal(t, m, V1_18_30)

	// Retag the vec4 property as external; its data flag is still set.
	at := bytes.Index(data, []byte("u_ext")) + len("u_ext")
	binary.LittleEndian.PutUint16(data[at:], uint16(PropertyExternal))

	_, err := Decode(data, V1_18_30)
	requireDecodeError(t, err, ErrInvalidTag)
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	data := mustMarshal(t, sampleMaterial(V1_18_30), V1_18_30)
	m, err := Decode(data, V1_18_30)
	require.NoError(t, err)

	code := m.Passes[0].Variants[0].Shaders[0].Bytecode
	want := bytes.Clone(code)
	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, want, code)
}
