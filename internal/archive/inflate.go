package archive

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrUnsupportedMethod is returned for entries stored with a compression
	// method other than Store, Deflate or Zstandard.
	ErrUnsupportedMethod = errors.New("archive: unsupported compression method")

	// ErrSizeMismatch is returned when an entry does not decompress to the size
	// recorded in its header.
	ErrSizeMismatch = errors.New("archive: uncompressed size mismatch")

	// ErrChecksum is returned when an entry's CRC-32 does not match its header.
	ErrChecksum = errors.New("archive: checksum mismatch")
)

// MaxEntrySize bounds the uncompressed size an entry header may declare.
const MaxEntrySize = 1 << 30

// maxPrealloc caps the buffer reserved up front from a header size. Larger
// entries grow the buffer as they inflate.
const maxPrealloc = 1 << 20

// zstdDecoder is shared by all workers; DecodeAll is safe for concurrent use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(MaxEntrySize))
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// Decompress expands the raw bytes of one zip entry. The result must be
// exactly size bytes long. Stored entries are returned as a copy.
// size is taken from an untrusted header and is checked against
// MaxEntrySize before anything is allocated.
func Decompress(raw []byte, method uint16, size uint64) ([]byte, error) {
	if size > MaxEntrySize {
		return nil, fmt.Errorf("%w: header declares %d bytes, limit is %d", ErrSizeMismatch, size, MaxEntrySize)
	}
	switch method {
	case zip.Store:
		if uint64(len(raw)) != size {
			return nil, fmt.Errorf("%w: stored %d bytes, header says %d", ErrSizeMismatch, len(raw), size)
		}
		return bytes.Clone(raw), nil

	case zip.Deflate:
		return inflate(raw, size)

	case zstd.ZipMethodWinZip:
		out, err := zstdDecoder.DecodeAll(raw, make([]byte, 0, prealloc(size)))
		if err != nil {
			return nil, fmt.Errorf("archive: zstd: %w", err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("%w: got %d bytes, header says %d", ErrSizeMismatch, len(out), size)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, method)
	}
}

func inflate(raw []byte, size uint64) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()

	chunk := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(chunk)

	// One byte past the expected size is enough to detect oversized streams.
	out := bytes.NewBuffer(make([]byte, 0, prealloc(size)))
	// Hide ReadFrom so CopyBuffer uses the pooled chunk.
	n, err := io.CopyBuffer(struct{ io.Writer }{out}, io.LimitReader(fr, int64(size)+1), *chunk)
	if err != nil {
		return nil, fmt.Errorf("archive: inflate: %w", err)
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("%w: inflated %d bytes, header says %d", ErrSizeMismatch, n, size)
	}
	return out.Bytes(), nil
}

func prealloc(size uint64) int {
	return int(min(size, maxPrealloc))
}

// VerifyCRC checks data against the CRC-32 recorded in an entry header.
func VerifyCRC(data []byte, want uint32) error {
	if got := crc32.ChecksumIEEE(data); got != want {
		return fmt.Errorf("%w: crc32 0x%08x, header says 0x%08x", ErrChecksum, got, want)
	}
	return nil
}
