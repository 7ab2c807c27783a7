package materialbin

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSinkFull = errors.New("sink full")

// failingWriter accepts limit bytes and then fails every write with errSinkFull.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	room := w.limit - w.n
	if len(p) <= room {
		w.n += len(p)
		return len(p), nil
	}
	w.n += room
	return room, errSinkFull
}

func requireEncodeError(t *testing.T, err error, want error) *EncodeError {
	t.Helper()
	require.Error(t, err)
	var ee *EncodeError
	require.True(t, errors.As(err, &ee), "got %T: %v", err, err)
	assert.ErrorIs(t, err, want)
	return ee
}

func TestEncodeDeterministic(t *testing.T) {
	for _, v := range AllVersions() {
		m := sampleMaterial(v)
		a := mustMarshal(t, m, v)
		b := mustMarshal(t, m, v)
		assert.Equal(t, a, b, v.String())
	}
}

func TestEncodeHeader(t *testing.T) {
	data := mustMarshal(t, &Material{Name: "m"}, V1_21_20)
	assert.Equal(t, []byte{0x1A, 0xDA, 0x11, 0x0A, 0, 0, 0, 0}, data[:8])
	assert.Equal(t, []byte{25, 0, 0, 0, 0, 0, 0, 0}, data[formatAt:formatAt+8])
	assert.Equal(t, []byte("NONE"), data[encryptionAt:encryptionAt+4])
	assert.Equal(t, data[:8], data[len(data)-8:])
}

func TestEncodeUpgradeNeedsNoChanges(t *testing.T) {
	// Every construct of an older layout exists in the newer ones.
	m := sampleMaterial(V1_18_30)
	for _, v := range AllVersions() {
		data := mustMarshal(t, m, v)
		got, err := Decode(data, v)
		require.NoError(t, err, v.String())
		assert.Equal(t, m, got, v.String())
	}
}

func TestEncodeRejectsLossyDowngrade(t *testing.T) {
	tests := []struct {
		name   string
		source Version
		target Version
		edit   func(m *Material)
		field  string
	}{
		{
			name:   "UniformOverrides",
			source: V1_21_20,
			target: V1_20_80,
		},
		{
			name:   "SamplerState",
			source: V1_19_60,
			target: V1_18_30,
			field:  "samplers[0]",
		},
		{
			name:   "SamplerCustomType",
			source: V1_20_80,
			target: V1_19_60,
			field:  "samplers[1]",
		},
		{
			name:   "InputConstraints",
			source: V1_20_80,
			target: V1_19_60,
			edit:   func(m *Material) { m.Samplers[1].CustomTypeInfo = nil },
			field:  "passes[0].variants[0].shaders[0].inputs[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMaterial(tt.source)
			if tt.edit != nil {
				tt.edit(m)
			}
			var buf bytes.Buffer
			err := Encode(&buf, m, tt.target)
			ee := requireEncodeError(t, err, ErrUnrepresentable)
			assert.Equal(t, tt.target, ee.Version)
			assert.Equal(t, tt.field, ee.Field)
			assert.Zero(t, buf.Len(), "nothing may be written before representability is known")
		})
	}
}

func TestEncodeRejectsInvalidModel(t *testing.T) {
	tests := []struct {
		name  string
		m     *Material
		want  error
		field string
	}{
		{"Nil", nil, ErrInvalidModel, ""},
		{
			"PropertyDataLength",
			&Material{Properties: []Property{{Type: PropertyMat3, Data: []float32{1}}}},
			ErrInvalidModel, "properties[0]",
		},
		{
			"ExternalWithData",
			&Material{Properties: []Property{{Type: PropertyExternal, Data: []float32{}}}},
			ErrInvalidModel, "properties[0]",
		},
		{
			"UnknownPropertyType",
			&Material{Properties: []Property{{Type: 9}}},
			ErrInvalidModel, "properties[0]",
		},
		{
			"SamplerType",
			&Material{Samplers: []Sampler{{Type: 10}}},
			ErrInvalidModel, "samplers[0]",
		},
		{
			"Bitset",
			&Material{Passes: []Pass{{Bitset: "012"}}},
			ErrInvalidModel, "passes[0]",
		},
		{
			"ShaderPlatform",
			&Material{Passes: []Pass{{Variants: []Variant{{Shaders: []ShaderCode{{Stage: PlatformShaderStage{Platform: 12}}}}}}}},
			ErrInvalidModel, "passes[0].variants[0].shaders[0]",
		},
		{
			"TooManySamplers",
			&Material{Samplers: make([]Sampler, 256)},
			ErrLengthOutOfRange, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, tt.m, V1_21_20)
			ee := requireEncodeError(t, err, tt.want)
			assert.Equal(t, tt.field, ee.Field)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestEncodeUnknownVersion(t *testing.T) {
	err := Encode(&bytes.Buffer{}, &Material{}, Version(9))
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestEncodePropagatesWriterErrors(t *testing.T) {
	m := sampleMaterial(V1_21_20)
	size := len(mustMarshal(t, m, V1_21_20))

	for _, limit := range []int{0, 10, size - 1} {
		err := Encode(&failingWriter{limit: limit}, m, V1_21_20)
		require.Error(t, err)
		assert.ErrorIs(t, err, errSinkFull)
		var ee *EncodeError
		assert.False(t, errors.As(err, &ee), "I/O failures are not encode errors")
	}

	require.NoError(t, Encode(&failingWriter{limit: size}, m, V1_21_20))
}

func TestCompatibleVersions(t *testing.T) {
	assert.Equal(t, AllVersions(), CompatibleVersions(sampleMaterial(V1_18_30)))
	assert.Equal(t, []Version{V1_21_20, V1_20_80, V1_19_60}, CompatibleVersions(sampleMaterial(V1_19_60)))
	assert.Equal(t, []Version{V1_21_20}, CompatibleVersions(sampleMaterial(V1_21_20)))
	assert.Empty(t, CompatibleVersions(&Material{Samplers: []Sampler{{Access: 7}}}))
}

func TestTranscode(t *testing.T) {
	src := sampleMaterial(V1_20_80)
	data := mustMarshal(t, src, V1_20_80)

	out, source, err := Transcode(data, V1_21_20)
	require.NoError(t, err)
	assert.Equal(t, V1_20_80, source)

	got, err := Decode(out, V1_21_20)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	_, source, err = Transcode(data, V1_18_30)
	assert.Equal(t, V1_20_80, source)
	assert.ErrorIs(t, err, ErrUnrepresentable)
}
