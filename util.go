package materialbin

import "golang.org/x/exp/constraints"

func Ptr[T any](v T) *T { return &v } // Ptr builds optional fields inline, mostly in tests.

// maxOf returns the largest value an unsigned count prefix of type N can carry.
func maxOf[N constraints.Unsigned]() uint64 { return uint64(^N(0)) }

// fits reports whether n items can be described by a count prefix of type N.
func fits[N constraints.Unsigned](n int) bool { return n >= 0 && uint64(n) <= maxOf[N]() }
