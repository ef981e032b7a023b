// Package pool provides sync.Pool-backed scratch buffers for the hot paths
// of the DEX decoder: the MUTF-8 code-unit buffer used once per string, and
// the string slice used to assemble a fixed table's worth of decoded names.
package pool

import "sync"

var (
	uint16SlicePool = sync.Pool{
		New: func() any { return &[]uint16{} },
	}
	stringSlicePool = sync.Pool{
		New: func() any { return &[]string{} },
	}
)

// GetUint16Slice retrieves and resizes a uint16 scratch slice from the pool.
//
// The returned slice has length equal to size. If the pooled slice has
// insufficient capacity, a new one is allocated. The caller must invoke the
// returned cleanup function, typically via defer, to return the slice.
//
// mutf8.Decode uses this to accumulate UTF-16 code units while scanning a
// string's modified-UTF-8 bytes, avoiding a fresh allocation per string in
// the string_ids table.
func GetUint16Slice(size int) ([]uint16, func()) {
	ptr, _ := uint16SlicePool.Get().(*[]uint16)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint16, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { uint16SlicePool.Put(ptr) }
}

// GetStringSlice retrieves and resizes a string scratch slice from the pool.
//
// image.DexImage.ClassNames uses this when assembling the resolved class
// names of the class_defs table before copying the result into a
// caller-owned slice.
func GetStringSlice(size int) ([]string, func()) {
	ptr, _ := stringSlicePool.Get().(*[]string)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]string, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { stringSlicePool.Put(ptr) }
}
