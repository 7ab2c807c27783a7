package materialbin

import (
	"fmt"
	"strings"
)

// Version identifies one supported compiled material layout.
// Versions compare by identity only; the registry order is the sniffing priority.
// The zero Version is not registered.
type Version uint8

const (
	V1_21_20 Version = iota + 1
	V1_20_80
	V1_19_60
	V1_18_30
)

// Layout describes which optional constructs a version's byte layout carries.
type Layout struct {
	// FormatNumber is the u64 written right after the definition header string.
	FormatNumber uint64
	// SamplerState adds an optional u8 sampler state after the texture format.
	SamplerState bool
	// SamplerCustomType adds optional custom type info at the end of each sampler.
	SamplerCustomType bool
	// InputConstraints adds optional precision and interpolation constraints to shader inputs.
	InputConstraints bool
	// UniformOverrides adds a u16-counted key/value table between properties and passes.
	UniformOverrides bool
}

type versionEntry struct {
	version Version
	name    string
	layout  Layout
}

// registry lists every supported version, newest first. The order decides which
// version wins when a buffer is structurally valid under more than one layout.
var registry = [...]versionEntry{
	{
		version: V1_21_20,
		name:    "1.21.20",
		layout: Layout{
			FormatNumber:      25,
			SamplerState:      true,
			SamplerCustomType: true,
			InputConstraints:  true,
			UniformOverrides:  true,
		},
	},
	{
		version: V1_20_80,
		name:    "1.20.80",
		layout: Layout{
			FormatNumber:      22,
			SamplerState:      true,
			SamplerCustomType: true,
			InputConstraints:  true,
		},
	},
	{
		version: V1_19_60,
		name:    "1.19.60",
		layout: Layout{
			FormatNumber: 22,
			SamplerState: true,
		},
	},
	{
		version: V1_18_30,
		name:    "1.18.30",
		layout: Layout{
			FormatNumber: 22,
		},
	},
}

// AllVersions returns every supported version in sniffing priority order.
func AllVersions() []Version {
	out := make([]Version, len(registry))
	for i, e := range registry {
		out[i] = e.version
	}
	return out
}

func (v Version) entry() (*versionEntry, bool) {
	for i := range registry {
		if registry[i].version == v {
			return &registry[i], true
		}
	}
	return nil, false
}

// Valid reports whether v is a registered version.
func (v Version) Valid() bool {
	_, ok := v.entry()
	return ok
}

// Layout returns the layout descriptor of v, or ErrUnknownVersion.
func (v Version) Layout() (Layout, error) {
	e, ok := v.entry()
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d", ErrUnknownVersion, uint8(v))
	}
	return e.layout, nil
}

func (v Version) String() string {
	if e, ok := v.entry(); ok {
		return e.name
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// ParseVersion accepts "1.21.20", "v1.21.20" and the identifier spellings
// "V1_21_20"/"v1_21_20".
func ParseVersion(s string) (Version, error) {
	name := strings.TrimSpace(s)
	name = strings.TrimPrefix(strings.TrimPrefix(name, "v"), "V")
	name = strings.ReplaceAll(name, "_", ".")
	for _, e := range registry {
		if e.name == name {
			return e.version, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
}

// MarshalText implements encoding.TextMarshaler so versions render by name in
// YAML, JSON and CBOR output.
func (v Version) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
