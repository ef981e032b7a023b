// Package archive provides an optional compressed cache layer for a parsed
// DEX byte image (spec.md §6 "file opening out of scope" is preserved: this
// package never touches the filesystem, only byte slices in and out).
//
// A caller that parses the same APK repeatedly — a build pipeline re-running
// static analysis on every commit, say — can stash the original DEX bytes
// here between runs instead of re-reading them from disk each time. This is
// the C11 component SPEC_FULL.md §4.10 adds; it has no equivalent in
// spec.md, which has no persistence story at all.
package archive

import (
	"fmt"
)

// Algorithm selects the codec NewCodec constructs. Compressed output carries
// no marker of the algorithm used, so decompressing it takes a Codec of the
// same Algorithm that compressed it.
type Algorithm uint8

const (
	// AlgorithmZstd favors compression ratio over speed, suited to
	// long-lived caches where write cost is amortized over many reads.
	AlgorithmZstd Algorithm = iota
	// AlgorithmLZ4 favors speed over ratio, suited to a short-lived
	// in-process cache where compress/decompress happens on a hot path.
	AlgorithmLZ4
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Codec compresses and decompresses a complete DEX byte image.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NewCodec constructs the Codec for the given algorithm.
func NewCodec(alg Algorithm) (Codec, error) {
	switch alg {
	case AlgorithmZstd:
		return NewZstdCodec(), nil
	case AlgorithmLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("archive: unsupported algorithm: %s", alg)
	}
}
