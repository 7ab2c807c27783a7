// Package archive converts zip containers and bare files of compiled
// materials to a single target version.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oy3o/materialbin"
)

// ErrCompressionLevel is returned for levels outside -1..9.
var ErrCompressionLevel = errors.New("archive: compression level out of range")

// Reporter is told about every material as it is committed, in entry order.
type Reporter interface {
	Processing(name string, source materialbin.Version)
}

// EntryError identifies the archive entry that aborted a conversion.
type EntryError struct {
	Index int
	Name  string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("archive: entry %d %q: %v", e.Index, e.Name, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Result summarises one conversion.
type Result struct {
	Target    materialbin.Version
	Materials int                           // materials re-encoded
	Copied    int                           // entries copied unchanged
	Sources   map[materialbin.Version]int64 // materials per detected source version
	BytesIn   int64                         // decompressed material bytes read
	BytesOut  int64                         // material bytes produced
	Written   int64                         // bytes written to the destination
	Digest    string                        // BLAKE3 of the destination bytes, hex
}

// Converter re-encodes materials to Target. The zero value is not usable;
// Target must be set, the zero Version is rejected.
type Converter struct {
	Target materialbin.Version
	// CompressionLevel is the deflate level of re-encoded entries, -1 for the default.
	CompressionLevel int
	// Workers bounds concurrent transcoding; 0 means GOMAXPROCS.
	Workers  int
	Logger   *zap.Logger
	Reporter Reporter
}

func (c *Converter) validate() error {
	if !c.Target.Valid() {
		return fmt.Errorf("%w: %d", materialbin.ErrUnknownVersion, uint8(c.Target))
	}
	if c.CompressionLevel < flate.DefaultCompression || c.CompressionLevel > flate.BestCompression {
		return fmt.Errorf("%w: %d", ErrCompressionLevel, c.CompressionLevel)
	}
	return nil
}

func (c *Converter) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Converter) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

type job struct {
	source materialbin.Version
	out    []byte
	err    error
}

// ConvertArchive writes a copy of src to dst in which every material entry is
// re-encoded to the target version and every other entry is copied byte for
// byte.
//
// Materials are transcoded concurrently and written sequentially in entry
// order. If any entry fails, the one with the lowest index is returned as an
// *EntryError and nothing is written to dst.
func (c *Converter) ConvertArchive(ctx context.Context, src *zip.Reader, dst io.Writer) (*Result, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	logger := c.logger().With(zap.Stringer("target", c.Target))
	st := newStats()

	jobs := make([]*job, len(src.File))
	var g errgroup.Group
	g.SetLimit(c.workers())
	for i, f := range src.File {
		if !IsMaterial(f.Name) {
			continue
		}
		j := &job{}
		jobs[i] = j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			j.source, j.out, j.err = c.transcodeEntry(f, st)
			if j.err == nil {
				logger.Debug("transcoded entry",
					zap.String("entry", f.Name),
					zap.Stringer("source", j.source),
					zap.Int("size", len(j.out)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, j := range jobs {
		if j != nil && j.err != nil {
			return nil, &EntryError{Index: i, Name: src.File[i].Name, Err: j.err}
		}
	}

	dw := newDigestWriter(dst)
	zw := zip.NewWriter(dw)
	level := c.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	res := &Result{Target: c.Target}
	for i, f := range src.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		j := jobs[i]
		if j == nil {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("archive: copy %s: %w", f.Name, err)
			}
			res.Copied++
			logger.Debug("copied entry", zap.String("entry", f.Name))
			continue
		}
		if c.Reporter != nil {
			c.Reporter.Processing(f.Name, j.source)
		}
		if err := writeEntry(zw, f, j.out); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", f.Name, err)
		}
		res.Materials++
	}
	if src.Comment != "" {
		if err := zw.SetComment(src.Comment); err != nil {
			return nil, fmt.Errorf("archive: comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finish: %w", err)
	}

	res.Written, res.Digest = dw.n, dw.Sum()
	st.fill(res)
	logger.Info("converted archive",
		zap.Int("materials", res.Materials),
		zap.Int("copied", res.Copied),
		zap.Int64("written", res.Written))
	return res, nil
}

func (c *Converter) transcodeEntry(f *zip.File, st *stats) (materialbin.Version, []byte, error) {
	rr, err := f.OpenRaw()
	if err != nil {
		return 0, nil, err
	}
	raw, err := io.ReadAll(rr)
	if err != nil {
		return 0, nil, err
	}
	data, err := Decompress(raw, f.Method, f.UncompressedSize64)
	if err != nil {
		return 0, nil, err
	}
	if err := VerifyCRC(data, f.CRC32); err != nil {
		return 0, nil, err
	}
	m, source, err := materialbin.Sniff(data)
	if err != nil {
		return 0, nil, err
	}
	out, err := materialbin.Marshal(m, c.Target)
	if err != nil {
		return source, nil, err
	}
	st.record(source, len(data), len(out))
	return source, out, nil
}

// writeEntry adds a deflated entry carrying the metadata of the source entry.
func writeEntry(zw *zip.Writer, src *zip.File, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:           src.Name,
		Comment:        src.Comment,
		Method:         zip.Deflate,
		Modified:       src.Modified,
		CreatorVersion: src.CreatorVersion,
		ExternalAttrs:  src.ExternalAttrs,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ConvertMaterial re-encodes one bare material file to the target version.
func (c *Converter) ConvertMaterial(name string, data []byte, dst io.Writer) (*Result, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	m, source, err := materialbin.Sniff(data)
	if err != nil {
		return nil, &EntryError{Name: name, Err: err}
	}
	out, err := materialbin.Marshal(m, c.Target)
	if err != nil {
		return nil, &EntryError{Name: name, Err: err}
	}
	if c.Reporter != nil {
		c.Reporter.Processing(name, source)
	}

	dw := newDigestWriter(dst)
	if _, err := dw.Write(out); err != nil {
		return nil, err
	}
	res := &Result{
		Target:    c.Target,
		Materials: 1,
		Sources:   map[materialbin.Version]int64{source: 1},
		BytesIn:   int64(len(data)),
		BytesOut:  int64(len(out)),
		Written:   dw.n,
		Digest:    dw.Sum(),
	}
	c.logger().Info("converted material",
		zap.String("file", name),
		zap.Stringer("source", source),
		zap.Stringer("target", c.Target))
	return res, nil
}
