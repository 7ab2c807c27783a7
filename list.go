package materialbin

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// readCount reads an unsigned count prefix of the width of N.
func readCount[N constraints.Unsigned](r *Reader) int {
	var n N
	switch p := any(&n).(type) {
	case *uint8:
		r.ReadUint8(p)
	case *uint16:
		r.ReadUint16(p)
	case *uint32:
		r.ReadUint32(p)
	case *uint64:
		r.ReadUint64(p)
	default:
		panic(fmt.Sprintf("materialbin: unsupported count prefix %T", n))
	}
	return int(n)
}

// writeCount writes n as a count prefix of the width of N.
func writeCount[N constraints.Unsigned](w *Writer, n int) {
	if !fits[N](n) {
		w.Fail(fmt.Errorf("%w: %d items do not fit a %d-byte count", ErrLengthOutOfRange, n, sizeOf[N]()))
		return
	}
	switch any(N(0)).(type) {
	case uint8:
		w.WriteUint8(uint8(n))
	case uint16:
		w.WriteUint16(uint16(n))
	case uint32:
		w.WriteUint32(uint32(n))
	case uint64:
		w.WriteUint64(uint64(n))
	default:
		panic(fmt.Sprintf("materialbin: unsupported count prefix %T", N(0)))
	}
}

func sizeOf[N constraints.Unsigned]() int {
	switch any(N(0)).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// readList reads a count prefix of type N followed by that many items.
// Every item occupies at least one byte, so a count larger than the remaining
// buffer is rejected before anything is allocated. A zero count yields nil.
func readList[N constraints.Unsigned, T any](r *Reader, item func(*Reader) T) []T {
	at := r.Offset()
	count := readCount[N](r)
	if r.Err() != nil || count == 0 {
		return nil
	}
	if count > r.Remaining() {
		r.n = int(at)
		r.Failf(ErrLengthOutOfRange, "count %d exceeds remaining %d bytes", count, r.Remaining()-sizeOf[N]())
		return nil
	}
	items := make([]T, 0, count)
	for i := 0; i < count; i++ {
		v := item(r)
		if r.Err() != nil {
			return nil
		}
		items = append(items, v)
	}
	return items
}

// writeList writes a count prefix of type N followed by every item.
func writeList[N constraints.Unsigned, T any](w *Writer, items []T, item func(*Writer, T)) {
	writeCount[N](w, len(items))
	for _, v := range items {
		if w.Err() != nil {
			return
		}
		item(w, v)
	}
}

// KeyValue is one entry of an ordered string map.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func readKeyValue(r *Reader) KeyValue {
	var kv KeyValue
	r.ReadString(&kv.Key)
	r.ReadString(&kv.Value)
	return kv
}

func writeKeyValue(w *Writer, kv KeyValue) {
	w.WriteString(kv.Key)
	w.WriteString(kv.Value)
}
