// Package dex is the top-level entry point for decoding a DEX (Dalvik
// Executable) byte image: a single Parse call returns an immutable,
// fully-resolved image.DexImage, mirroring the teacher's top-level mebo
// package of thin wrappers over its blob package (here, over the image
// package).
package dex

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/image"
	"github.com/jaqxues/dex-tool/internal/options"
)

// errMaxValueDepth is returned by WithMaxValueDepth for a non-positive depth.
var errMaxValueDepth = errors.New("dex: max value depth must be positive")

// DexImage re-exports image.DexImage so callers only need to import this
// package for the common case.
type DexImage = image.DexImage

// Option configures a parse via Options.
type Option = options.Option[*Options]

// Options carries every configurable knob for a parse.
type Options struct {
	align         cursor.AlignMode
	maxValueDepth int
	allowV040     bool
	logger        *slog.Logger
}

func defaultOptions() *Options {
	return &Options{
		align:         cursor.Lenient,
		maxValueDepth: 32,
		allowV040:     false,
		logger:        nil,
	}
}

// WithStrictAlignment fails the parse on non-zero padding skipped by the
// 4-byte alignment step before each code_item, instead of skipping it
// silently. The two padding bytes inside an odd-sized type_list or after an
// odd-length insns array are skipped without inspection in both modes.
func WithStrictAlignment() Option {
	return options.NoError(func(o *Options) { o.align = cursor.Strict })
}

// WithMaxValueDepth bounds encoded_value/encoded_array/encoded_annotation
// recursion. The default is 32.
func WithMaxValueDepth(depth int) Option {
	return options.New(func(o *Options) error {
		if depth <= 0 {
			return errMaxValueDepth
		}

		o.maxValueDepth = depth

		return nil
	})
}

// WithV040Support opts into accepting the legacy 040 format version.
func WithV040Support() Option {
	return options.NoError(func(o *Options) { o.allowV040 = true })
}

// WithLogger attaches a structured logger that receives one record per
// fixed index table parsed, one per non-fatal warning raised, and a summary
// record at the end of a successful parse. Variable sections are not logged
// individually.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(o *Options) { o.logger = logger })
}

// Parse decodes data into a DexImage using the given options. It is
// equivalent to ParseContext(context.Background(), data, opts...).
func Parse(data []byte, opts ...Option) (DexImage, error) {
	return ParseContext(context.Background(), data, opts...)
}

// ParseContext decodes data into a DexImage, checking ctx for cancellation
// once per map entry after the fixed index tables are read and before any
// variable section is decoded.
func ParseContext(ctx context.Context, data []byte, opts ...Option) (DexImage, error) {
	o := defaultOptions()
	if err := options.Apply(o, opts...); err != nil {
		return DexImage{}, err
	}

	cfg := image.Config{
		Align:         o.align,
		MaxValueDepth: o.maxValueDepth,
		AllowV040:     o.allowV040,
		Logger:        o.logger,
	}

	return image.Parse(ctx, data, cfg)
}
