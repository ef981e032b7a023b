package archive

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/jaqxues/dex-tool/internal/pool"
)

// LZ4Codec compresses a DEX byte image with LZ4, adapted from the teacher's
// pooled block compressor (compress/lz4.go).
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

// NewLZ4Codec constructs an LZ4Codec.
func NewLZ4Codec() LZ4Codec { return LZ4Codec{} }

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// Compress compresses a DEX byte image with a pooled lz4 block compressor.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress restores a DEX byte image previously compressed by Compress,
// growing a pooled scratch buffer on ErrInvalidSourceShortBuffer up to a
// 128MB safety limit (a DEX image larger than that is already past what a
// single classes.dex is permitted to be).
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bb := pool.GetImageBuffer()
	defer pool.PutImageBuffer(bb)

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for {
		if cap(bb.B) < bufSize {
			bb.B = make([]byte, bufSize)
		}

		n, err := lz4.UncompressBlock(data, bb.B[:cap(bb.B)])
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2

				continue
			}

			return nil, err
		}

		out := make([]byte, n)
		copy(out, bb.B[:n])

		return out, nil
	}
}
