package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/leb128"
)

// HiddenapiClassData is the parsed hiddenapi_class_data section (spec.md
// §4.6.11): one flag sequence per class_def, indexed the same way as
// class_defs, nil where the class has no hidden-API flags recorded.
type HiddenapiClassData struct {
	Flags [][]uint64
}

// ParseHiddenapiClassData reads the hiddenapi_class_data section starting
// at the cursor's current position.
//
// fieldMethodCounts gives, per class_def (same order and length as
// class_defs), the number of fields plus methods that class declares — the
// length each non-absent flag sequence must have, per spec.md §4.6.11. The
// image package computes this from each class's resolved ClassData before
// calling in.
func ParseHiddenapiClassData(cur *cursor.Cursor, fieldMethodCounts []int) (HiddenapiClassData, error) {
	start := cur.Position()

	if _, err := cur.ReadU32(); err != nil { // overall section size, unused: class_defs count governs iteration
		return HiddenapiClassData{}, errs.At("hiddenapi_class_data", int64(start), err)
	}

	offsets := make([]uint32, len(fieldMethodCounts))

	for i := range offsets {
		off, err := cur.ReadU32()
		if err != nil {
			return HiddenapiClassData{}, errs.At("hiddenapi_class_data", int64(start), err)
		}

		offsets[i] = off
	}

	hc := HiddenapiClassData{Flags: make([][]uint64, len(offsets))}

	for i, off := range offsets {
		if off == 0 {
			continue
		}

		if err := cur.Seek(int(off)); err != nil {
			return HiddenapiClassData{}, errs.At("hiddenapi_class_data", int64(off), err)
		}

		flags := make([]uint64, fieldMethodCounts[i])

		for j := range flags {
			v, err := leb128.ReadUleb128(cur)
			if err != nil {
				return HiddenapiClassData{}, errs.At("hiddenapi_class_data", int64(off), err)
			}

			flags[j] = v
		}

		hc.Flags[i] = flags
	}

	return hc, nil
}
