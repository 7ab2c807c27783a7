package materialbin

import "fmt"

// Material is the version-agnostic form of one compiled material definition.
// It holds no reference to the layout it was decoded from and can be encoded
// to any version whose layout represents every construct it uses.
type Material struct {
	Name             string     `json:"name" yaml:"name"`                                             // Material name
	ParentName       *string    `json:"parentName,omitempty" yaml:"parentName,omitempty"`             // Parent material, if any
	Samplers         []Sampler  `json:"samplers,omitempty" yaml:"samplers,omitempty"`                 // Sampler definitions in file order
	Properties       []Property `json:"properties,omitempty" yaml:"properties,omitempty"`             // Property fields in file order
	UniformOverrides []KeyValue `json:"uniformOverrides,omitempty" yaml:"uniformOverrides,omitempty"` // 1.21.20+
	Passes           []Pass     `json:"passes,omitempty" yaml:"passes,omitempty"`                     // Render passes in file order
}

// Sampler is a texture or buffer binding.
type Sampler struct {
	Name                 string          `json:"name" yaml:"name"`
	Reg                  uint16          `json:"reg" yaml:"reg"`
	Access               SamplerAccess   `json:"access" yaml:"access"`
	Precision            Precision       `json:"precision" yaml:"precision"`
	AllowUnorderedAccess bool            `json:"allowUnorderedAccess" yaml:"allowUnorderedAccess"`
	Type                 SamplerType     `json:"type" yaml:"type"`
	TextureFormat        string          `json:"textureFormat" yaml:"textureFormat"`
	State                *uint8          `json:"state,omitempty" yaml:"state,omitempty"`                   // 1.19.60+
	DefaultTexture       *string         `json:"defaultTexture,omitempty" yaml:"defaultTexture,omitempty"` // Builtin texture name
	CustomTypeInfo       *CustomTypeInfo `json:"customTypeInfo,omitempty" yaml:"customTypeInfo,omitempty"` // 1.20.80+
}

// CustomTypeInfo describes the element struct of a structured buffer.
type CustomTypeInfo struct {
	StructName string `json:"structName" yaml:"structName"`
	Size       uint32 `json:"size" yaml:"size"`
}

// Property is a uniform declaration with optional default data.
type Property struct {
	Name  string       `json:"name" yaml:"name"`
	Type  PropertyType `json:"type" yaml:"type"`
	Count uint32       `json:"count" yaml:"count"`
	Data  []float32    `json:"data,omitempty" yaml:"data,omitempty"` // Type.Components() values, or nil
}

// Pass is one named render pass.
type Pass struct {
	Name             string     `json:"name" yaml:"name"`
	Bitset           string     `json:"bitset" yaml:"bitset"` // Platform support mask of '0'/'1' characters
	FallbackPass     string     `json:"fallbackPass" yaml:"fallbackPass"`
	DefaultBlendMode *uint16    `json:"defaultBlendMode,omitempty" yaml:"defaultBlendMode,omitempty"`
	DefaultVariant   []KeyValue `json:"defaultVariant,omitempty" yaml:"defaultVariant,omitempty"`
	Variants         []Variant  `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// Variant is one flag combination of a pass with its compiled shaders.
type Variant struct {
	IsSupported bool         `json:"isSupported" yaml:"isSupported"`
	Flags       []KeyValue   `json:"flags,omitempty" yaml:"flags,omitempty"`
	Shaders     []ShaderCode `json:"shaders,omitempty" yaml:"shaders,omitempty"`
}

// PlatformShaderStage identifies which stage and platform a shader was compiled for.
type PlatformShaderStage struct {
	StageName    string         `json:"stageName" yaml:"stageName"`
	PlatformName string         `json:"platformName" yaml:"platformName"`
	Stage        ShaderStage    `json:"stage" yaml:"stage"`
	Platform     ShaderPlatform `json:"platform" yaml:"platform"`
}

// ShaderCode is a compiled bgfx shader together with its vertex inputs.
type ShaderCode struct {
	Stage      PlatformShaderStage `json:"stage" yaml:"stage"`
	Inputs     []ShaderInput       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	SourceHash uint64              `json:"sourceHash" yaml:"sourceHash"`
	Bytecode   []byte              `json:"bytecode,omitempty" yaml:"bytecode,omitempty"`
}

// ShaderInput is one vertex attribute consumed by a shader.
type ShaderInput struct {
	Name                    string          `json:"name" yaml:"name"`
	Type                    ShaderInputType `json:"type" yaml:"type"`
	AttributeIndex          uint8           `json:"attributeIndex" yaml:"attributeIndex"`
	AttributeSubIndex       uint8           `json:"attributeSubIndex" yaml:"attributeSubIndex"`
	IsPerInstance           bool            `json:"isPerInstance" yaml:"isPerInstance"`
	PrecisionConstraint     *Precision      `json:"precisionConstraint,omitempty" yaml:"precisionConstraint,omitempty"`         // 1.20.80+
	InterpolationConstraint *Interpolation  `json:"interpolationConstraint,omitempty" yaml:"interpolationConstraint,omitempty"` // 1.20.80+
}

// enum is the set of named values of one discriminant type.
type enum[T ~uint8 | ~uint16] []string

func (e enum[T]) valid(v T) bool { return int(v) < len(e) && e[v] != "" }

func (e enum[T]) name(kind string, v T) string {
	if e.valid(v) {
		return e[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

type SamplerAccess uint8

const (
	AccessNone SamplerAccess = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

var samplerAccessNames = enum[SamplerAccess]{"None", "Read", "Write", "ReadWrite"}

func (v SamplerAccess) Valid() bool    { return samplerAccessNames.valid(v) }
func (v SamplerAccess) String() string { return samplerAccessNames.name("SamplerAccess", v) }

type Precision uint8

const (
	PrecisionLow Precision = iota
	PrecisionMedium
	PrecisionHigh
)

var precisionNames = enum[Precision]{"Lowp", "Mediump", "Highp"}

func (v Precision) Valid() bool    { return precisionNames.valid(v) }
func (v Precision) String() string { return precisionNames.name("Precision", v) }

type SamplerType uint8

const (
	Sampler2D SamplerType = iota
	Sampler2DArray
	Sampler2DExternal
	Sampler3D
	SamplerCube
	SamplerStructuredBuffer
	SamplerRawBuffer
	SamplerAccelerationStructure
	Sampler2DShadow
	Sampler2DArrayShadow
)

var samplerTypeNames = enum[SamplerType]{
	"Type2D", "Type2DArray", "External2D", "Type3D", "TypeCube",
	"StructuredBuffer", "RawBuffer", "AccelerationStructure", "Shadow2D", "Shadow2DArray",
}

func (v SamplerType) Valid() bool    { return samplerTypeNames.valid(v) }
func (v SamplerType) String() string { return samplerTypeNames.name("SamplerType", v) }

type PropertyType uint16

const (
	PropertyVec4     PropertyType = 2
	PropertyMat3     PropertyType = 3
	PropertyMat4     PropertyType = 4
	PropertyExternal PropertyType = 5
)

var propertyTypeNames = enum[PropertyType]{2: "Vec4", 3: "Mat3", 4: "Mat4", 5: "External"}

func (v PropertyType) Valid() bool    { return propertyTypeNames.valid(v) }
func (v PropertyType) String() string { return propertyTypeNames.name("PropertyType", v) }

// Components returns how many float32 values a property of this type carries.
// External properties never carry data.
func (v PropertyType) Components() int {
	switch v {
	case PropertyVec4:
		return 4
	case PropertyMat3:
		return 9
	case PropertyMat4:
		return 16
	default:
		return 0
	}
}

type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
	StageUnknown
)

var shaderStageNames = enum[ShaderStage]{"Vertex", "Fragment", "Compute", "Unknown"}

func (v ShaderStage) Valid() bool    { return shaderStageNames.valid(v) }
func (v ShaderStage) String() string { return shaderStageNames.name("ShaderStage", v) }

type ShaderPlatform uint8

const (
	PlatformDirect3DSM40 ShaderPlatform = iota
	PlatformDirect3DSM50
	PlatformDirect3DSM60
	PlatformDirect3DSM65
	PlatformDirect3DXB1
	PlatformDirect3DXBX
	PlatformGLSL120
	PlatformGLSL430
	PlatformESSL100
	PlatformESSL300
	PlatformESSL310
	PlatformMetal
)

var shaderPlatformNames = enum[ShaderPlatform]{
	"Direct3D_SM40", "Direct3D_SM50", "Direct3D_SM60", "Direct3D_SM65",
	"Direct3D_XB1", "Direct3D_XBX", "GLSL_120", "GLSL_430",
	"ESSL_100", "ESSL_300", "ESSL_310", "Metal",
}

func (v ShaderPlatform) Valid() bool    { return shaderPlatformNames.valid(v) }
func (v ShaderPlatform) String() string { return shaderPlatformNames.name("ShaderPlatform", v) }

type ShaderInputType uint8

const (
	InputFloat ShaderInputType = iota
	InputVec2
	InputVec3
	InputVec4
	InputInt
	InputInt2
	InputInt3
	InputInt4
	InputUInt
	InputUInt2
	InputUInt3
	InputUInt4
	InputMat4
)

var shaderInputTypeNames = enum[ShaderInputType]{
	"Float", "Vec2", "Vec3", "Vec4", "Int", "Int2", "Int3", "Int4",
	"UInt", "UInt2", "UInt3", "UInt4", "Mat4",
}

func (v ShaderInputType) Valid() bool    { return shaderInputTypeNames.valid(v) }
func (v ShaderInputType) String() string { return shaderInputTypeNames.name("ShaderInputType", v) }

type Interpolation uint8

const (
	InterpolationFlat Interpolation = iota
	InterpolationSmooth
	InterpolationNoPerspective
	InterpolationCentroid
	InterpolationSample
)

var interpolationNames = enum[Interpolation]{"Flat", "Smooth", "NoPerspective", "Centroid", "Sample"}

func (v Interpolation) Valid() bool    { return interpolationNames.valid(v) }
func (v Interpolation) String() string { return interpolationNames.name("Interpolation", v) }
