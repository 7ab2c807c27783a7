package archive

import "sync"

const chunkSize = 32 * 1024

// chunkPool holds the copy buffers used while inflating entries.
// 32KB matches io.Copy.
var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, chunkSize)
		return &b
	},
}
