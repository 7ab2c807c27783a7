package materialbin

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for reading whole materials from streams.
// Compiled materials commonly run to a few hundred kilobytes.
var bytesBufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 64*1024))
	},
}
