// Package materialbin reads and writes compiled RenderDragon material
// definitions (.material.bin) in every supported game version layout.
//
// Decode parses a buffer in one known layout, Sniff tries every registered
// layout newest first and reports which one matched, and Encode writes a
// Material in any layout able to carry all of its constructs. A Material holds
// no trace of the layout it came from, so
//
//	m, _, err := materialbin.Sniff(data)
//	...
//	out, err := materialbin.Marshal(m, materialbin.V1_20_80)
//
// converts between versions. Encoding never drops data silently: a construct
// the target layout lacks fails with ErrUnrepresentable.
package materialbin
