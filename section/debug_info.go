package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/leb128"
)

// debugEndSequence is opcode 0x00 (DBG_END_SEQUENCE), which terminates a
// debug_info_item's state-machine program (spec.md §4.6.4).
const debugEndSequence = 0x00

// opcodeOperandCount gives the number of leb128 operands each of opcodes
// 0x01-0x09 takes, per the DBG_* opcode table spec.md §4.6.4 references.
// Opcodes 0x0A-0xFF ("special") take none; this table only needs entries
// for the ones that do.
var opcodeOperandCount = map[byte]int{
	0x01: 1, // DBG_ADVANCE_PC: addr_diff
	0x02: 1, // DBG_ADVANCE_LINE: line_diff
	0x03: 3, // DBG_START_LOCAL: register_num, name_idx+1, type_idx+1
	0x04: 4, // DBG_START_LOCAL_EXTENDED: register_num, name_idx+1, type_idx+1, sig_idx+1
	0x05: 1, // DBG_END_LOCAL: register_num
	0x06: 1, // DBG_RESTART_LOCAL: register_num
	0x07: 0, // DBG_SET_PROLOGUE_END
	0x08: 0, // DBG_SET_EPILOGUE_END
	0x09: 1, // DBG_SET_FILE: name_idx+1
}

// DebugInfo is a parsed debug_info_item. The state-machine program itself
// is captured verbatim as Program; decoding it into a line/address table is
// a consumer concern (spec.md §4.6.4).
type DebugInfo struct {
	LineStart      uint64
	ParameterNames []int64 // uleb128p1-decoded; -1 means absent
	Program        []byte
}

// ParseDebugInfo reads a debug_info_item at the cursor's current position.
func ParseDebugInfo(cur *cursor.Cursor) (DebugInfo, error) {
	start := cur.Position()

	lineStart, err := leb128.ReadUleb128(cur)
	if err != nil {
		return DebugInfo{}, errs.At("debug_info_item", int64(start), err)
	}

	paramCount, err := leb128.ReadUleb128(cur)
	if err != nil {
		return DebugInfo{}, errs.At("debug_info_item", int64(start), err)
	}

	di := DebugInfo{LineStart: lineStart, ParameterNames: make([]int64, paramCount)}

	for i := range di.ParameterNames {
		v, err := leb128.ReadUleb128P1(cur)
		if err != nil {
			return DebugInfo{}, errs.At("debug_info_item", int64(start), err)
		}

		di.ParameterNames[i] = v
	}

	progStart := cur.Position()

	for {
		opStart := cur.Position()

		op, err := cur.ReadU8()
		if err != nil {
			return DebugInfo{}, errs.At("debug_info_item", int64(opStart), err)
		}

		if op == debugEndSequence {
			break
		}

		if operands, ok := opcodeOperandCount[op]; ok {
			for i := 0; i < operands; i++ {
				if _, err := leb128.ReadUleb128(cur); err != nil {
					return DebugInfo{}, errs.At("debug_info_item", int64(opStart), err)
				}
			}
		}
		// Opcodes 0x0A-0xFF ("special") take no LEB128 operands.
	}

	di.Program = append([]byte(nil), cur.Bytes()[progStart:cur.Position()]...)

	return di, nil
}
