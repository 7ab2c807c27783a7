package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	assert.Equal(t, Version+" ("+GitCommit+", "+BuildTime+")", Info())
	assert.Contains(t, Full(), runtime.Version())
}
