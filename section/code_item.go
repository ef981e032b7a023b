package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/leb128"
)

// TryItem is one entry of a code_item's try table (spec.md §4.6.3).
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerOff uint16
}

// CatchHandlerAddr is one {type_idx, addr} pair inside an
// encoded_catch_handler.
type CatchHandlerAddr struct {
	TypeIdx uint64
	Addr    uint64
}

// CatchHandler is one encoded_catch_handler: a list of typed catch
// addresses plus an optional catch-all address.
type CatchHandler struct {
	Handlers     []CatchHandlerAddr
	CatchAllAddr uint64 // valid iff HasCatchAll
	HasCatchAll  bool
}

// CodeItem is one parsed code_item method body (spec.md §4.6.3). Insns is
// captured as the raw u16 instruction stream; decoding opcodes is a
// consumer concern (spec.md §1 non-goals).
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	TriesSize     uint16
	DebugInfoOff  uint32
	Insns         []uint16
	Tries         []TryItem
	Handlers      []CatchHandler
}

// ParseCodeItem reads a code_item at the cursor's current position. The
// caller is responsible for 4-byte-aligning the cursor before the call and
// again before the next code_item, since there is no fixed stride between
// successive items (spec.md §9 "Alignment").
func ParseCodeItem(cur *cursor.Cursor) (CodeItem, error) {
	start := cur.Position()

	var ci CodeItem

	for _, f := range []*uint16{&ci.RegistersSize, &ci.InsSize, &ci.OutsSize, &ci.TriesSize} {
		v, err := cur.ReadU16()
		if err != nil {
			return CodeItem{}, errs.At("code_item", int64(start), err)
		}

		*f = v
	}

	debugOff, err := cur.ReadU32()
	if err != nil {
		return CodeItem{}, errs.At("code_item", int64(start), err)
	}

	ci.DebugInfoOff = debugOff

	insnsSize, err := cur.ReadU32()
	if err != nil {
		return CodeItem{}, errs.At("code_item", int64(start), err)
	}

	ci.Insns = make([]uint16, insnsSize)

	for i := range ci.Insns {
		v, err := cur.ReadU16()
		if err != nil {
			return CodeItem{}, errs.At("code_item", int64(start), err)
		}

		ci.Insns[i] = v
	}

	if ci.TriesSize > 0 && insnsSize%2 == 1 {
		if _, err := cur.ReadBytes(2); err != nil {
			return CodeItem{}, errs.At("code_item", int64(start), err)
		}
	}

	if ci.TriesSize == 0 {
		return ci, nil
	}

	ci.Tries = make([]TryItem, ci.TriesSize)

	for i := range ci.Tries {
		tryStart := cur.Position()

		startAddr, err := cur.ReadU32()
		if err != nil {
			return CodeItem{}, errs.At("code_item.try", int64(tryStart), err)
		}

		insnCount, err := cur.ReadU16()
		if err != nil {
			return CodeItem{}, errs.At("code_item.try", int64(tryStart), err)
		}

		handlerOff, err := cur.ReadU16()
		if err != nil {
			return CodeItem{}, errs.At("code_item.try", int64(tryStart), err)
		}

		ci.Tries[i] = TryItem{StartAddr: startAddr, InsnCount: insnCount, HandlerOff: handlerOff}
	}

	listSize, err := leb128.ReadUleb128(cur)
	if err != nil {
		return CodeItem{}, errs.At("encoded_catch_handler_list", int64(cur.Position()), err)
	}

	ci.Handlers = make([]CatchHandler, listSize)

	for i := range ci.Handlers {
		h, err := parseCatchHandler(cur)
		if err != nil {
			return CodeItem{}, err
		}

		ci.Handlers[i] = h
	}

	return ci, nil
}

// parseCatchHandler reads one encoded_catch_handler: an sleb128 size N,
// |N| typed addresses, and — iff N <= 0 — a trailing catch-all address
// (spec.md §4.6.3).
func parseCatchHandler(cur *cursor.Cursor) (CatchHandler, error) {
	start := cur.Position()

	size, err := leb128.ReadSleb128(cur)
	if err != nil {
		return CatchHandler{}, errs.At("encoded_catch_handler", int64(start), err)
	}

	count := size
	if count < 0 {
		count = -count
	}

	h := CatchHandler{Handlers: make([]CatchHandlerAddr, count)}

	for i := range h.Handlers {
		typeIdx, err := leb128.ReadUleb128(cur)
		if err != nil {
			return CatchHandler{}, errs.At("encoded_catch_handler", int64(start), err)
		}

		addr, err := leb128.ReadUleb128(cur)
		if err != nil {
			return CatchHandler{}, errs.At("encoded_catch_handler", int64(start), err)
		}

		h.Handlers[i] = CatchHandlerAddr{TypeIdx: typeIdx, Addr: addr}
	}

	if size <= 0 {
		catchAll, err := leb128.ReadUleb128(cur)
		if err != nil {
			return CatchHandler{}, errs.At("encoded_catch_handler", int64(start), err)
		}

		h.CatchAllAddr = catchAll
		h.HasCatchAll = true
	}

	return h, nil
}
