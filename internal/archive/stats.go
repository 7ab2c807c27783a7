package archive

import (
	"encoding/hex"
	"io"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/blake3"

	"github.com/oy3o/materialbin"
)

// stats collects per-run counters from concurrent workers.
type stats struct {
	sources  *xsync.Map[materialbin.Version, *xsync.Counter]
	bytesIn  *xsync.Counter
	bytesOut *xsync.Counter
}

func newStats() *stats {
	return &stats{
		sources:  xsync.NewMap[materialbin.Version, *xsync.Counter](),
		bytesIn:  xsync.NewCounter(),
		bytesOut: xsync.NewCounter(),
	}
}

func (s *stats) record(source materialbin.Version, in, out int) {
	c, _ := s.sources.LoadOrStore(source, xsync.NewCounter())
	c.Inc()
	s.bytesIn.Add(int64(in))
	s.bytesOut.Add(int64(out))
}

func (s *stats) fill(res *Result) {
	res.Sources = make(map[materialbin.Version]int64)
	s.sources.Range(func(v materialbin.Version, c *xsync.Counter) bool {
		res.Sources[v] = c.Value()
		return true
	})
	res.BytesIn = s.bytesIn.Value()
	res.BytesOut = s.bytesOut.Value()
}

// digestWriter hashes and counts everything written through it.
type digestWriter struct {
	w io.Writer
	h *blake3.Hasher
	n int64
}

func newDigestWriter(w io.Writer) *digestWriter {
	return &digestWriter{w: w, h: blake3.New()}
}

func (d *digestWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	d.h.Write(p[:n])
	d.n += int64(n)
	return n, err
}

// Sum returns the hex BLAKE3 digest of the bytes written so far.
func (d *digestWriter) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
