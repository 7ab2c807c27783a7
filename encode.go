package materialbin

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Encode writes m in the exact layout of version v.
//
// The material is checked against the target layout before the first byte is
// written: a construct the layout cannot carry fails with an *EncodeError
// wrapping ErrUnrepresentable rather than being dropped. Errors returned by w
// are passed through unchanged; w may then hold a partial encoding.
func Encode(w io.Writer, m *Material, v Version) error {
	layout, err := v.Layout()
	if err != nil {
		return err
	}
	if err := check(m, layout); err != nil {
		err.Version = v
		return err
	}
	bw, err := NewWriter(w)
	if err != nil {
		return err
	}
	encodeMaterial(bw, m, layout)
	_, err = bw.Result()
	return err
}

// Marshal encodes m for version v into a new byte slice.
func Marshal(m *Material, v Version) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Transcode sniffs the version of data and re-encodes it for target.
func Transcode(data []byte, target Version) ([]byte, Version, error) {
	m, source, err := Sniff(data)
	if err != nil {
		return nil, 0, err
	}
	out, err := Marshal(m, target)
	if err != nil {
		return nil, source, err
	}
	return out, source, nil
}

// CompatibleVersions returns, in registry order, every version m can be encoded to.
func CompatibleVersions(m *Material) []Version {
	var out []Version
	for _, e := range registry {
		if check(m, e.layout) == nil {
			out = append(out, e.version)
		}
	}
	return out
}

func encodeMaterial(w *Writer, m *Material, l Layout) {
	w.WriteUint64(materialMagic)
	w.WriteString(definitionHeader)
	w.WriteUint64(l.FormatNumber)
	w.WriteUint32(encryptionNone)
	w.WriteString(m.Name)
	WriteOptional(w, m.ParentName, w.WriteString)
	writeList[uint8](w, m.Samplers, func(w *Writer, s Sampler) { encodeSampler(w, s, l) })
	writeList[uint16](w, m.Properties, encodeProperty)
	if l.UniformOverrides {
		writeList[uint16](w, m.UniformOverrides, writeKeyValue)
	}
	writeList[uint16](w, m.Passes, func(w *Writer, p Pass) { encodePass(w, p, l) })
	w.WriteUint64(materialMagic)
}

func encodeSampler(w *Writer, s Sampler, l Layout) {
	w.WriteString(s.Name)
	w.WriteUint16(s.Reg)
	w.WriteUint8(uint8(s.Access))
	w.WriteUint8(uint8(s.Precision))
	w.WriteBool(s.AllowUnorderedAccess)
	w.WriteUint8(uint8(s.Type))
	w.WriteString(s.TextureFormat)
	if l.SamplerState {
		WriteOptional(w, s.State, w.WriteUint8)
	}
	WriteOptional(w, s.DefaultTexture, w.WriteString)
	if l.SamplerCustomType {
		WriteOptional(w, s.CustomTypeInfo, func(info CustomTypeInfo) {
			w.WriteString(info.StructName)
			w.WriteUint32(info.Size)
		})
	}
}

func encodeProperty(w *Writer, p Property) {
	w.WriteString(p.Name)
	w.WriteUint16(uint16(p.Type))
	w.WriteUint32(p.Count)
	w.WriteBool(p.Data != nil)
	for _, f := range p.Data {
		w.WriteFloat32(f)
	}
}

func encodePass(w *Writer, p Pass, l Layout) {
	w.WriteString(p.Name)
	w.WriteString(p.Bitset)
	w.WriteString(p.FallbackPass)
	WriteOptional(w, p.DefaultBlendMode, w.WriteUint16)
	writeList[uint16](w, p.DefaultVariant, writeKeyValue)
	writeList[uint16](w, p.Variants, func(w *Writer, v Variant) { encodeVariant(w, v, l) })
}

func encodeVariant(w *Writer, v Variant, l Layout) {
	w.WriteBool(v.IsSupported)
	writeList[uint16](w, v.Flags, writeKeyValue)
	writeList[uint16](w, v.Shaders, func(w *Writer, c ShaderCode) { encodeShaderCode(w, c, l) })
}

func encodeShaderCode(w *Writer, c ShaderCode, l Layout) {
	w.WriteString(c.Stage.StageName)
	w.WriteString(c.Stage.PlatformName)
	w.WriteUint8(uint8(c.Stage.Stage))
	w.WriteUint8(uint8(c.Stage.Platform))
	writeList[uint16](w, c.Inputs, func(w *Writer, in ShaderInput) { encodeShaderInput(w, in, l) })
	w.WriteUint64(c.SourceHash)
	w.WriteBytes(c.Bytecode)
}

func encodeShaderInput(w *Writer, in ShaderInput, l Layout) {
	w.WriteString(in.Name)
	w.WriteUint8(uint8(in.Type))
	w.WriteUint8(in.AttributeIndex)
	w.WriteUint8(in.AttributeSubIndex)
	w.WriteBool(in.IsPerInstance)
	if l.InputConstraints {
		WriteOptional(w, in.PrecisionConstraint, func(p Precision) { w.WriteUint8(uint8(p)) })
		WriteOptional(w, in.InterpolationConstraint, func(i Interpolation) { w.WriteUint8(uint8(i)) })
	}
}

// checker walks a material and records the first construct that the layout
// cannot carry or that no layout accepts.
type checker struct {
	l    Layout
	path []string
	err  *EncodeError
}

func check(m *Material, l Layout) *EncodeError {
	if m == nil {
		return &EncodeError{Err: fmt.Errorf("%w: nil material", ErrInvalidModel)}
	}
	c := &checker{l: l}
	c.material(m)
	return c.err
}

func (c *checker) fail(base error, format string, args ...any) {
	if c.err != nil {
		return
	}
	c.err = &EncodeError{
		Field: strings.Join(c.path, "."),
		Err:   fmt.Errorf("%w: "+format, append([]any{base}, args...)...),
	}
}

func (c *checker) enter(format string, args ...any) { c.path = append(c.path, fmt.Sprintf(format, args...)) }
func (c *checker) leave()                           { c.path = c.path[:len(c.path)-1] }

// count validates a collection length against its prefix width.
func count[N interface{ ~uint8 | ~uint16 }](c *checker, what string, n int) {
	if !fits[N](n) {
		c.fail(ErrLengthOutOfRange, "%d %s exceed the %d-byte count", n, what, sizeOf[N]())
	}
}

func (c *checker) material(m *Material) {
	count[uint8](c, "samplers", len(m.Samplers))
	count[uint16](c, "properties", len(m.Properties))
	count[uint16](c, "uniform overrides", len(m.UniformOverrides))
	count[uint16](c, "passes", len(m.Passes))
	if len(m.UniformOverrides) > 0 && !c.l.UniformOverrides {
		c.fail(ErrUnrepresentable, "%d uniform overrides", len(m.UniformOverrides))
	}
	for i := range m.Samplers {
		c.enter("samplers[%d]", i)
		c.sampler(&m.Samplers[i])
		c.leave()
	}
	for i := range m.Properties {
		c.enter("properties[%d]", i)
		c.property(&m.Properties[i])
		c.leave()
	}
	for i := range m.Passes {
		c.enter("passes[%d]", i)
		c.pass(&m.Passes[i])
		c.leave()
	}
}

func (c *checker) sampler(s *Sampler) {
	switch {
	case !s.Access.Valid():
		c.fail(ErrInvalidModel, "access %d", s.Access)
	case !s.Precision.Valid():
		c.fail(ErrInvalidModel, "precision %d", s.Precision)
	case !s.Type.Valid():
		c.fail(ErrInvalidModel, "type %d", s.Type)
	case s.State != nil && !c.l.SamplerState:
		c.fail(ErrUnrepresentable, "sampler state %d", *s.State)
	case s.CustomTypeInfo != nil && !c.l.SamplerCustomType:
		c.fail(ErrUnrepresentable, "custom type info %q", s.CustomTypeInfo.StructName)
	}
}

func (c *checker) property(p *Property) {
	switch {
	case !p.Type.Valid():
		c.fail(ErrInvalidModel, "type %d", p.Type)
	case p.Data != nil && p.Type.Components() == 0:
		c.fail(ErrInvalidModel, "%s property carries data", p.Type)
	case p.Data != nil && len(p.Data) != p.Type.Components():
		c.fail(ErrInvalidModel, "%s carries %d values, want %d", p.Type, len(p.Data), p.Type.Components())
	}
}

func (c *checker) pass(p *Pass) {
	if strings.Trim(p.Bitset, "01") != "" {
		c.fail(ErrInvalidModel, "bitset %q", p.Bitset)
	}
	count[uint16](c, "default variant flags", len(p.DefaultVariant))
	count[uint16](c, "variants", len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		c.enter("variants[%d]", i)
		count[uint16](c, "flags", len(v.Flags))
		count[uint16](c, "shaders", len(v.Shaders))
		for j := range v.Shaders {
			c.enter("shaders[%d]", j)
			c.shader(&v.Shaders[j])
			c.leave()
		}
		c.leave()
	}
}

func (c *checker) shader(s *ShaderCode) {
	if !s.Stage.Stage.Valid() {
		c.fail(ErrInvalidModel, "stage %d", s.Stage.Stage)
	}
	if !s.Stage.Platform.Valid() {
		c.fail(ErrInvalidModel, "platform %d", s.Stage.Platform)
	}
	count[uint16](c, "inputs", len(s.Inputs))
	for i := range s.Inputs {
		in := &s.Inputs[i]
		c.enter("inputs[%d]", i)
		switch {
		case !in.Type.Valid():
			c.fail(ErrInvalidModel, "type %d", in.Type)
		case in.PrecisionConstraint != nil && !c.l.InputConstraints:
			c.fail(ErrUnrepresentable, "precision constraint %s", *in.PrecisionConstraint)
		case in.InterpolationConstraint != nil && !c.l.InputConstraints:
			c.fail(ErrUnrepresentable, "interpolation constraint %s", *in.InterpolationConstraint)
		case in.PrecisionConstraint != nil && !in.PrecisionConstraint.Valid():
			c.fail(ErrInvalidModel, "precision constraint %d", *in.PrecisionConstraint)
		case in.InterpolationConstraint != nil && !in.InterpolationConstraint.Valid():
			c.fail(ErrInvalidModel, "interpolation constraint %d", *in.InterpolationConstraint)
		}
		c.leave()
	}
}
