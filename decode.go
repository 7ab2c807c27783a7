package materialbin

import "strings"

// materialMagic opens and closes every compiled material.
const materialMagic uint64 = 0x0A11DA1A

// definitionHeader follows the opening magic.
const definitionHeader = "RenderDragon.CompiledMaterialDefinition"

// Encryption variants, read as a little-endian u32 of their ASCII bytes.
const (
	encryptionNone    uint32 = 0x454E4F4E // "NONE"
	encryptionSimple  uint32 = 0x4C504D53 // "SMPL"
	encryptionKeyPair uint32 = 0x5250594B // "KYPR"
)

// Decode parses data as a material in the layout of version v.
// It has no side effects; on failure it returns a *DecodeError describing the
// first structural mismatch.
func Decode(data []byte, v Version) (*Material, error) {
	layout, err := v.Layout()
	if err != nil {
		return nil, err
	}
	r := NewReader(data)
	m := decodeMaterial(r, layout)
	if err := r.Err(); err != nil {
		return nil, &DecodeError{Version: v, Offset: r.ErrOffset(), Err: err}
	}
	return m, nil
}

func decodeMaterial(r *Reader, l Layout) *Material {
	var magic uint64
	r.ReadUint64(&magic)
	if r.Err() == nil && magic != materialMagic {
		r.n -= 8
		r.Failf(ErrBadMagic, "got 0x%X", magic)
	}

	var header string
	r.ReadString(&header)
	if r.Err() == nil && header != definitionHeader {
		r.Failf(ErrBadMagic, "definition header %q", header)
	}

	var format uint64
	r.ReadUint64(&format)
	if r.Err() == nil && format != l.FormatNumber {
		r.n -= 8
		r.Failf(ErrFormatMismatch, "format %d, layout expects %d", format, l.FormatNumber)
	}

	var encryption uint32
	r.ReadUint32(&encryption)
	if r.Err() == nil && encryption != encryptionNone {
		r.n -= 4
		switch encryption {
		case encryptionSimple, encryptionKeyPair:
			r.Failf(ErrEncrypted, "variant 0x%08X", encryption)
		default:
			r.Failf(ErrInvalidTag, "encryption variant 0x%08X", encryption)
		}
	}

	m := &Material{}
	r.ReadString(&m.Name)
	m.ParentName = ReadOptional(r, r.ReadString)
	m.Samplers = readList[uint8](r, func(r *Reader) Sampler { return decodeSampler(r, l) })
	m.Properties = readList[uint16](r, decodeProperty)
	if l.UniformOverrides {
		m.UniformOverrides = readList[uint16](r, readKeyValue)
	}
	m.Passes = readList[uint16](r, func(r *Reader) Pass { return decodePass(r, l) })

	r.ReadUint64(&magic)
	if r.Err() == nil && magic != materialMagic {
		r.n -= 8
		r.Failf(ErrBadMagic, "closing magic 0x%X", magic)
	}
	r.ExpectEnd()

	if r.Err() != nil {
		return nil
	}
	return m
}

// readEnum reads a u8 discriminant and validates it with valid.
func readEnum[T ~uint8](r *Reader, dest *T, what string, valid func(T) bool) {
	var b uint8
	r.ReadUint8(&b)
	if r.Err() != nil {
		return
	}
	if !valid(T(b)) {
		r.n--
		r.Failf(ErrInvalidTag, "%s %d", what, b)
		return
	}
	*dest = T(b)
}

func decodeSampler(r *Reader, l Layout) Sampler {
	var s Sampler
	r.ReadString(&s.Name)
	r.ReadUint16(&s.Reg)
	readEnum(r, &s.Access, "sampler access", SamplerAccess.Valid)
	readEnum(r, &s.Precision, "sampler precision", Precision.Valid)
	r.ReadBool(&s.AllowUnorderedAccess)
	readEnum(r, &s.Type, "sampler type", SamplerType.Valid)
	r.ReadString(&s.TextureFormat)
	if l.SamplerState {
		s.State = ReadOptional(r, r.ReadUint8)
	}
	s.DefaultTexture = ReadOptional(r, r.ReadString)
	if l.SamplerCustomType {
		s.CustomTypeInfo = ReadOptional(r, func(info *CustomTypeInfo) {
			r.ReadString(&info.StructName)
			r.ReadUint32(&info.Size)
		})
	}
	return s
}

func decodeProperty(r *Reader) Property {
	var p Property
	r.ReadString(&p.Name)
	var kind uint16
	r.ReadUint16(&kind)
	if r.Err() == nil && !PropertyType(kind).Valid() {
		r.n -= 2
		r.Failf(ErrInvalidTag, "property type %d", kind)
	}
	p.Type = PropertyType(kind)
	r.ReadUint32(&p.Count)

	var hasData bool
	r.ReadBool(&hasData)
	if !hasData || r.Err() != nil {
		return p
	}
	n := p.Type.Components()
	if n == 0 {
		r.n--
		r.Failf(ErrInvalidTag, "%s property carries data", p.Type)
		return p
	}
	p.Data = make([]float32, n)
	for i := range p.Data {
		r.ReadFloat32(&p.Data[i])
	}
	return p
}

func decodePass(r *Reader, l Layout) Pass {
	var p Pass
	r.ReadString(&p.Name)
	r.ReadString(&p.Bitset)
	if r.Err() == nil && strings.Trim(p.Bitset, "01") != "" {
		r.Failf(ErrInvalidTag, "pass bitset %q", p.Bitset)
	}
	r.ReadString(&p.FallbackPass)
	p.DefaultBlendMode = ReadOptional(r, r.ReadUint16)
	p.DefaultVariant = readList[uint16](r, readKeyValue)
	p.Variants = readList[uint16](r, func(r *Reader) Variant { return decodeVariant(r, l) })
	return p
}

func decodeVariant(r *Reader, l Layout) Variant {
	var v Variant
	r.ReadBool(&v.IsSupported)
	v.Flags = readList[uint16](r, readKeyValue)
	v.Shaders = readList[uint16](r, func(r *Reader) ShaderCode { return decodeShaderCode(r, l) })
	return v
}

func decodeShaderCode(r *Reader, l Layout) ShaderCode {
	var c ShaderCode
	r.ReadString(&c.Stage.StageName)
	r.ReadString(&c.Stage.PlatformName)
	readEnum(r, &c.Stage.Stage, "shader stage", ShaderStage.Valid)
	readEnum(r, &c.Stage.Platform, "shader platform", ShaderPlatform.Valid)
	c.Inputs = readList[uint16](r, func(r *Reader) ShaderInput { return decodeShaderInput(r, l) })
	r.ReadUint64(&c.SourceHash)
	r.ReadBytes(&c.Bytecode)
	return c
}

func decodeShaderInput(r *Reader, l Layout) ShaderInput {
	var in ShaderInput
	r.ReadString(&in.Name)
	readEnum(r, &in.Type, "shader input type", ShaderInputType.Valid)
	r.ReadUint8(&in.AttributeIndex)
	r.ReadUint8(&in.AttributeSubIndex)
	r.ReadBool(&in.IsPerInstance)
	if l.InputConstraints {
		in.PrecisionConstraint = ReadOptional(r, func(p *Precision) {
			readEnum(r, p, "precision constraint", Precision.Valid)
		})
		in.InterpolationConstraint = ReadOptional(r, func(p *Interpolation) {
			readEnum(r, p, "interpolation constraint", Interpolation.Valid)
		})
	}
	return in
}
