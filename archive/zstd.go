package archive

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/jaqxues/dex-tool/internal/pool"
)

// ZstdCodec compresses a DEX byte image with Zstandard, adapted from the
// teacher's pooled zstd encoder/decoder (compress/zstd_pure.go).
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec constructs a ZstdCodec.
func NewZstdCodec() ZstdCodec { return ZstdCodec{} }

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("archive: failed to create zstd decoder: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("archive: failed to create zstd encoder: %v", err))
		}

		return encoder
	},
}

// Compress compresses a DEX byte image with a pooled zstd encoder.
func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress restores a DEX byte image previously compressed by Compress.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	bb := pool.GetImageBuffer()
	defer pool.PutImageBuffer(bb)

	out, err := decoder.DecodeAll(data, bb.Bytes())
	if err != nil {
		return nil, fmt.Errorf("archive: zstd decompress: %w", err)
	}

	result := make([]byte, len(out))
	copy(result, out)

	return result, nil
}
