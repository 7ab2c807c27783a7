package report

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/oy3o/materialbin"
	"github.com/oy3o/materialbin/internal/archive"
)

func TestProfile(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, termenv.Ascii, Profile(&buf, "never"))
	assert.Equal(t, termenv.ANSI256, Profile(&buf, "always"))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, Profile(&buf, "auto"))
}

func TestPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, termenv.Ascii)

	p.Processing("a.material.bin", materialbin.V1_19_60)
	p.Summary(&archive.Result{
		Target:    materialbin.V1_21_20,
		Materials: 3,
		Copied:    2,
		Sources:   map[materialbin.Version]int64{materialbin.V1_18_30: 1, materialbin.V1_21_20: 2},
		Written:   42,
		Digest:    "abc",
	}, "zip", true)

	assert.Equal(t, "Processing file a.material.bin [1.19.60]\n"+
		"Ported 3 materials in zip to version 1.21.20\n"+
		"Copied 2 other entries unchanged\n"+
		"Sources: 1.21.20×2, 1.18.30×1\n"+
		"Output: 42 bytes, blake3 abc\n"+
		"Dry run: nothing was written\n", buf.String())
}

func TestColoredOutput(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, termenv.ANSI256).Processing("a.material.bin", materialbin.V1_21_20)
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestVersions(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, termenv.Ascii).Versions()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, len(materialbin.AllVersions()))
	assert.Contains(t, string(lines[0]), "1.21.20")
	assert.Contains(t, string(lines[0]), "uniform overrides")
	assert.Contains(t, string(lines[3]), "1.18.30")
}
