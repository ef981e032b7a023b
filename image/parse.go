package image

import (
	"context"
	"log/slog"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/endian"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
	"github.com/jaqxues/dex-tool/internal/intern"
	"github.com/jaqxues/dex-tool/internal/xlog"
	"github.com/jaqxues/dex-tool/leb128"
	"github.com/jaqxues/dex-tool/mutf8"
	"github.com/jaqxues/dex-tool/section"
	"github.com/jaqxues/dex-tool/value"
)

// Config carries every knob the parse needs, threaded through as an
// immutable value instead of global state (spec.md §9 "Shared context").
type Config struct {
	Align         cursor.AlignMode
	MaxValueDepth int
	AllowV040     bool
	Logger        *slog.Logger
}

// Parse decodes a complete DEX byte image per spec.md §4.8, honoring ctx
// for cooperative cancellation: ctx is checked once per map entry after the
// header, map list and fixed index tables are read and before any variable
// section is decoded; it is not checked again after that point.
//
// The only recover() in the module lives here: an unexpected internal
// panic (a bug, not bad input) is converted to errs.ErrInternal so the
// caller always gets a clean error (SPEC_FULL.md §4.9).
func Parse(ctx context.Context, data []byte, cfg Config) (img DexImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.At("parse", -1, errs.ErrInternal)
		}
	}()

	p := &parser{
		data:    data,
		cfg:     cfg,
		strInts: intern.New[mutf8.Result](64),
		tlInts:  intern.New[[]uint16](16),
		img: DexImage{
			Strings:                make(map[uint32]mutf8.Result),
			TypeLists:              make(map[uint32][]uint16),
			ClassData:              make(map[uint32]section.ClassData),
			CodeItems:              make(map[uint32]section.CodeItem),
			DebugInfo:              make(map[uint32]section.DebugInfo),
			AnnotationsDirectories: make(map[uint32]section.AnnotationsDirectory),
			AnnotationSets:         make(map[uint32][]uint32),
			AnnotationSetRefLists:  make(map[uint32][]uint32),
			Annotations:            make(map[uint32]Annotation),
			CallSites:              make(map[uint32][]value.Value),
			Stats:                  ParseStats{ItemCounts: make(map[format.MapType]int)},
		},
	}

	if perr := p.run(ctx); perr != nil {
		return DexImage{}, perr
	}

	p.img.Stats.BytesConsumed = p.maxOffset

	xlog.Summary(cfg.Logger, len(p.img.Map), p.maxOffset)

	return p.img, nil
}

// parser holds the mutable working state of one Parse call. It is never
// shared across goroutines.
type parser struct {
	data      []byte
	cfg       Config
	img       DexImage
	strInts   *intern.Cache[mutf8.Result]
	tlInts    *intern.Cache[[]uint16]
	maxOffset int64
}

func (p *parser) track(offset int64) {
	if offset > p.maxOffset {
		p.maxOffset = offset
	}
}

func (p *parser) warn(kind, message string, offset int64) {
	p.img.Warnings = append(p.img.Warnings, Warning{Kind: kind, Message: message, Offset: offset})
	xlog.Warn(p.cfg.Logger, kind, message, offset)
}

func (p *parser) run(ctx context.Context) error {
	headerCur := cursor.New(p.data, endian.GetLittleEndianEngine(), p.cfg.Align)

	header, engine, err := section.ParseHeader(headerCur, p.cfg.AllowV040)
	if err != nil {
		return err
	}

	p.img.Header = header

	cur := cursor.New(p.data, engine, p.cfg.Align)

	items, err := section.ParseMapList(cur, header.MapOff)
	if err != nil {
		return err
	}

	if err := section.ValidateMapOrder(items); err != nil {
		return err
	}

	p.img.Map = items

	checks := []struct {
		typ  format.MapType
		size uint32
		off  uint32
	}{
		{format.TypeStringIDItem, header.StringIDsSize, header.StringIDsOff},
		{format.TypeTypeIDItem, header.TypeIDsSize, header.TypeIDsOff},
		{format.TypeProtoIDItem, header.ProtoIDsSize, header.ProtoIDsOff},
		{format.TypeFieldIDItem, header.FieldIDsSize, header.FieldIDsOff},
		{format.TypeMethodIDItem, header.MethodIDsSize, header.MethodIDsOff},
		{format.TypeClassDefItem, header.ClassDefsSize, header.ClassDefsOff},
	}

	for _, c := range checks {
		if err := section.CheckAgainstHeader(items, c.typ, c.size, c.off); err != nil {
			return err
		}
	}

	if err := p.parseFixedTables(cur, header); err != nil {
		return err
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return errs.At("parse", int64(it.Offset), err)
		}

		p.img.Stats.ItemCounts[it.Type] += int(it.Size)
	}

	if err := p.resolveStrings(cur); err != nil {
		return err
	}

	if err := p.resolveTypeLists(cur); err != nil {
		return err
	}

	if err := p.resolveClassData(cur); err != nil {
		return err
	}

	if err := p.resolveCodeAndDebug(cur); err != nil {
		return err
	}

	if err := p.resolveAnnotations(cur); err != nil {
		return err
	}

	if err := p.resolveMethodHandles(cur, items); err != nil {
		return err
	}

	if err := p.resolveCallSites(cur, items); err != nil {
		return err
	}

	if err := p.resolveHiddenapi(cur, items); err != nil {
		return err
	}

	return nil
}

func (p *parser) parseFixedTables(cur *cursor.Cursor, h section.Header) error {
	var err error

	xlog.Section(p.cfg.Logger, "string_ids", int64(h.StringIDsOff))

	p.img.StringIDs, err = section.ParseStringIDs(cur, h.StringIDsOff, h.StringIDsSize)
	if err != nil {
		return err
	}

	xlog.Section(p.cfg.Logger, "type_ids", int64(h.TypeIDsOff))

	p.img.TypeIDs, err = section.ParseTypeIDs(cur, h.TypeIDsOff, h.TypeIDsSize)
	if err != nil {
		return err
	}

	xlog.Section(p.cfg.Logger, "proto_ids", int64(h.ProtoIDsOff))

	p.img.ProtoIDs, err = section.ParseProtoIDs(cur, h.ProtoIDsOff, h.ProtoIDsSize)
	if err != nil {
		return err
	}

	xlog.Section(p.cfg.Logger, "field_ids", int64(h.FieldIDsOff))

	p.img.FieldIDs, err = section.ParseFieldIDs(cur, h.FieldIDsOff, h.FieldIDsSize)
	if err != nil {
		return err
	}

	xlog.Section(p.cfg.Logger, "method_ids", int64(h.MethodIDsOff))

	p.img.MethodIDs, err = section.ParseMethodIDs(cur, h.MethodIDsOff, h.MethodIDsSize)
	if err != nil {
		return err
	}

	xlog.Section(p.cfg.Logger, "class_defs", int64(h.ClassDefsOff))

	p.img.ClassDefs, err = section.ParseClassDefs(cur, h.ClassDefsOff, h.ClassDefsSize)
	if err != nil {
		return err
	}

	return nil
}

// mutf8Span returns the byte range [start, end) of the zero-terminated
// MUTF-8 payload beginning at start within data: a raw scan for the 0x00
// terminator, cheap enough to run before deciding whether intern.Cache
// already has this payload's decoded Result, so a cache hit never pays for
// the full mutf8.Decode. A literal 0x00 byte only ever occurs as the
// terminator itself — U+0000 is encoded as the two bytes C0 80 — so the
// scan cannot mistake an embedded code point for the end of the string.
func mutf8Span(data []byte, start int) (end int) {
	end = start
	for end < len(data) && data[end] != 0 {
		end++
	}

	if end < len(data) {
		end++ // include the terminator
	}

	return end
}

// resolveStrings decodes the string_data_item at every offset named by
// StringIDs. Each string_id's own offset field already pins its data's
// location, so this walks StringIDs directly rather than relying on map
// iteration order (spec.md §3).
func (p *parser) resolveStrings(cur *cursor.Cursor) error {
	for _, off := range p.img.StringIDs {
		if _, ok := p.img.Strings[off]; ok {
			continue
		}

		if err := cur.Seek(int(off)); err != nil {
			return errs.At("string_data_item", int64(off), err)
		}

		declared, err := leb128.ReadUleb128(cur)
		if err != nil {
			return errs.At("string_data_item", int64(off), err)
		}

		start := cur.Position()
		end := mutf8Span(cur.Bytes(), start)
		raw := cur.Bytes()[start:end]

		res, err := p.strInts.Intern(raw, func() (mutf8.Result, error) {
			if err := cur.Seek(start); err != nil {
				return mutf8.Result{}, errs.At("string_data_item", int64(off), err)
			}

			return mutf8.Decode(cur, int(declared))
		})
		if err != nil {
			return err
		}

		if res.LengthMismatch {
			p.warn("mutf8_length_mismatch", "declared code-unit count did not match decoded count", int64(start))
		}

		p.img.Strings[off] = res
		p.track(int64(end))
	}

	return nil
}

// resolveTypeLists decodes a type_list at every distinct non-zero offset
// referenced from ProtoIDs.ParametersOff and ClassDefs.InterfacesOff.
func (p *parser) resolveTypeLists(cur *cursor.Cursor) error {
	offsets := make([]uint32, 0, len(p.img.ProtoIDs)+len(p.img.ClassDefs))

	for _, proto := range p.img.ProtoIDs {
		if proto.ParametersOff != 0 {
			offsets = append(offsets, proto.ParametersOff)
		}
	}

	for _, cd := range p.img.ClassDefs {
		if cd.InterfacesOff != 0 {
			offsets = append(offsets, cd.InterfacesOff)
		}
	}

	for _, off := range offsets {
		if _, ok := p.img.TypeLists[off]; ok {
			continue
		}

		if err := cur.Seek(int(off)); err != nil {
			return errs.At("type_list", int64(off), err)
		}

		start := cur.Position()

		size, err := cur.ReadU32()
		if err != nil {
			return errs.At("type_list", int64(off), err)
		}

		end := start + 4 + int(size)*2
		if size%2 == 1 {
			end += 2
		}

		if end > len(cur.Bytes()) {
			end = len(cur.Bytes())
		}

		raw := cur.Bytes()[start:end]

		list, err := p.tlInts.Intern(raw, func() ([]uint16, error) {
			if err := cur.Seek(start); err != nil {
				return nil, errs.At("type_list", int64(off), err)
			}

			return section.ParseTypeList(cur)
		})
		if err != nil {
			return err
		}

		p.img.TypeLists[off] = list
		p.track(int64(end))
	}

	return nil
}

// resolveClassData decodes a class_data_item at every class_def's non-zero
// ClassDataOff.
func (p *parser) resolveClassData(cur *cursor.Cursor) error {
	for _, cd := range p.img.ClassDefs {
		if cd.ClassDataOff == 0 {
			continue
		}

		if _, ok := p.img.ClassData[cd.ClassDataOff]; ok {
			continue
		}

		if err := cur.Seek(int(cd.ClassDataOff)); err != nil {
			return errs.At("class_data_item", int64(cd.ClassDataOff), err)
		}

		data, err := section.ParseClassData(cur)
		if err != nil {
			return err
		}

		p.img.ClassData[cd.ClassDataOff] = data
		p.track(int64(cur.Position()))
	}

	return nil
}

// resolveCodeAndDebug decodes a code_item at every encoded_method's
// non-zero CodeOff across both class_data_item method lists (direct and
// virtual), and the debug_info_item each code_item references.
func (p *parser) resolveCodeAndDebug(cur *cursor.Cursor) error {
	for _, cd := range p.img.ClassData {
		for _, methods := range [][]section.EncodedMethod{cd.DirectMethods, cd.VirtualMethods} {
			for _, m := range methods {
				if m.CodeOff == 0 {
					continue
				}

				if err := p.resolveOneCodeItem(cur, uint32(m.CodeOff)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (p *parser) resolveOneCodeItem(cur *cursor.Cursor, off uint32) error {
	if _, ok := p.img.CodeItems[off]; ok {
		return nil
	}

	if err := cur.Seek(int(off)); err != nil {
		return errs.At("code_item", int64(off), err)
	}

	if err := cur.Align(4); err != nil {
		return errs.At("code_item", int64(off), err)
	}

	ci, err := section.ParseCodeItem(cur)
	if err != nil {
		return err
	}

	p.img.CodeItems[off] = ci
	p.track(int64(cur.Position()))

	if ci.DebugInfoOff == 0 {
		return nil
	}

	if _, ok := p.img.DebugInfo[ci.DebugInfoOff]; ok {
		return nil
	}

	if err := cur.Seek(int(ci.DebugInfoOff)); err != nil {
		return errs.At("debug_info_item", int64(ci.DebugInfoOff), err)
	}

	di, err := section.ParseDebugInfo(cur)
	if err != nil {
		return err
	}

	p.img.DebugInfo[ci.DebugInfoOff] = di
	p.track(int64(cur.Position()))

	return nil
}

// resolveAnnotations decodes the annotations_directory_item each class_def
// names, the annotation_set/annotation_set_ref_list entries it references,
// and every annotation_item those sets point to.
func (p *parser) resolveAnnotations(cur *cursor.Cursor) error {
	decoder := value.NewDecoder(p.cfg.MaxValueDepth)

	for _, cd := range p.img.ClassDefs {
		if cd.AnnotationsOff == 0 {
			continue
		}

		if _, ok := p.img.AnnotationsDirectories[cd.AnnotationsOff]; ok {
			continue
		}

		if err := cur.Seek(int(cd.AnnotationsOff)); err != nil {
			return errs.At("annotations_directory_item", int64(cd.AnnotationsOff), err)
		}

		ad, err := section.ParseAnnotationsDirectory(cur)
		if err != nil {
			return err
		}

		p.img.AnnotationsDirectories[cd.AnnotationsOff] = ad
		p.track(int64(cur.Position()))

		if ad.ClassAnnotationsOff != 0 {
			if err := p.resolveAnnotationSet(cur, decoder, ad.ClassAnnotationsOff); err != nil {
				return err
			}
		}

		for _, fa := range ad.Fields {
			if fa.AnnotationsOff != 0 {
				if err := p.resolveAnnotationSet(cur, decoder, fa.AnnotationsOff); err != nil {
					return err
				}
			}
		}

		for _, ma := range ad.Methods {
			if ma.AnnotationsOff != 0 {
				if err := p.resolveAnnotationSet(cur, decoder, ma.AnnotationsOff); err != nil {
					return err
				}
			}
		}

		for _, pa := range ad.Parameters {
			if pa.AnnotationsOff == 0 {
				continue
			}

			if err := p.resolveAnnotationSetRefList(cur, decoder, pa.AnnotationsOff); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *parser) resolveAnnotationSetRefList(cur *cursor.Cursor, decoder value.Decoder, off uint32) error {
	if _, ok := p.img.AnnotationSetRefLists[off]; ok {
		return nil
	}

	if err := cur.Seek(int(off)); err != nil {
		return errs.At("annotation_set_ref_list", int64(off), err)
	}

	refs, err := section.ParseAnnotationSetRefList(cur)
	if err != nil {
		return err
	}

	p.img.AnnotationSetRefLists[off] = refs
	p.track(int64(cur.Position()))

	for _, ref := range refs {
		if ref == 0 {
			continue
		}

		if err := p.resolveAnnotationSet(cur, decoder, ref); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) resolveAnnotationSet(cur *cursor.Cursor, decoder value.Decoder, off uint32) error {
	if _, ok := p.img.AnnotationSets[off]; ok {
		return nil
	}

	if err := cur.Seek(int(off)); err != nil {
		return errs.At("annotation_set_item", int64(off), err)
	}

	items, err := section.ParseAnnotationSet(cur)
	if err != nil {
		return err
	}

	p.img.AnnotationSets[off] = items
	p.track(int64(cur.Position()))

	for _, itemOff := range items {
		if _, ok := p.img.Annotations[itemOff]; ok {
			continue
		}

		if err := cur.Seek(int(itemOff)); err != nil {
			return errs.At("annotation_item", int64(itemOff), err)
		}

		hdr, err := section.ParseAnnotationVisibility(cur)
		if err != nil {
			return err
		}

		ann, err := decoder.DecodeAnnotation(cur)
		if err != nil {
			return err
		}

		p.img.Annotations[itemOff] = Annotation{Visibility: hdr.Visibility, Value: ann}
		p.track(int64(cur.Position()))
	}

	return nil
}

// resolveMethodHandles decodes method_handle_item from its map entry, a
// section whose count exists only in the map, not in the header (spec.md §3).
func (p *parser) resolveMethodHandles(cur *cursor.Cursor, items []section.MapItem) error {
	mi, ok := section.FindMapItem(items, format.TypeMethodHandleItem)
	if !ok {
		return nil
	}

	if err := cur.Seek(int(mi.Offset)); err != nil {
		return errs.At("method_handle_item", int64(mi.Offset), err)
	}

	p.img.MethodHandles = make([]section.MethodHandleItem, mi.Size)

	for i := range p.img.MethodHandles {
		mh, err := section.ParseMethodHandle(cur)
		if err != nil {
			return err
		}

		p.img.MethodHandles[i] = mh
	}

	p.track(int64(cur.Position()))

	return nil
}

// resolveCallSites decodes call_site_ids from its map entry, then the
// call_site_item (an encoded_array) at each offset, validating the
// MethodHandle/String/MethodType prefix spec.md §9 requires.
func (p *parser) resolveCallSites(cur *cursor.Cursor, items []section.MapItem) error {
	mi, ok := section.FindMapItem(items, format.TypeCallSiteIDItem)
	if !ok {
		return nil
	}

	if err := cur.Seek(int(mi.Offset)); err != nil {
		return errs.At("call_site_id_item", int64(mi.Offset), err)
	}

	p.img.CallSiteIDs = make([]uint32, mi.Size)

	for i := range p.img.CallSiteIDs {
		start := cur.Position()

		off, err := cur.ReadU32()
		if err != nil {
			return errs.At("call_site_id_item", int64(start), err)
		}

		p.img.CallSiteIDs[i] = off
	}

	decoder := value.NewDecoder(p.cfg.MaxValueDepth)

	for _, off := range p.img.CallSiteIDs {
		if _, ok := p.img.CallSites[off]; ok {
			continue
		}

		if err := cur.Seek(int(off)); err != nil {
			return errs.At("call_site_item", int64(off), err)
		}

		arr, err := decoder.DecodeArray(cur)
		if err != nil {
			return err
		}

		if err := value.ValidateCallSitePrefix(arr); err != nil {
			return errs.At("call_site_item", int64(off), err)
		}

		p.img.CallSites[off] = arr
		p.track(int64(cur.Position()))
	}

	return nil
}

// resolveHiddenapi decodes hiddenapi_class_data if its map entry is
// present, computing each class's field+method count from its resolved
// ClassData (spec.md §4.6.11).
func (p *parser) resolveHiddenapi(cur *cursor.Cursor, items []section.MapItem) error {
	mi, ok := section.FindMapItem(items, format.TypeHiddenapiClassDataItem)
	if !ok {
		return nil
	}

	counts := make([]int, len(p.img.ClassDefs))

	for i, cd := range p.img.ClassDefs {
		if cd.ClassDataOff == 0 {
			continue
		}

		data := p.img.ClassData[cd.ClassDataOff]
		counts[i] = len(data.StaticFields) + len(data.InstanceFields) + len(data.DirectMethods) + len(data.VirtualMethods)
	}

	if err := cur.Seek(int(mi.Offset)); err != nil {
		return errs.At("hiddenapi_class_data", int64(mi.Offset), err)
	}

	hc, err := section.ParseHiddenapiClassData(cur, counts)
	if err != nil {
		return err
	}

	p.img.HiddenapiClassData = hc
	p.track(int64(cur.Position()))

	return nil
}
