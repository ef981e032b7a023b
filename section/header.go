// Package section implements the fixed and variable-length item readers
// built on top of cursor/leb128/mutf8: the header and map list (C4), the
// fixed index tables (C5), and the variable-section item bodies (C6).
//
// Every reader in this package follows the same shape as the teacher
// corpus's section readers (section.ParseNumericHeader et al.): a plain
// function taking a *cursor.Cursor and returning a value type plus an
// error, with no reader retaining a pointer into the cursor's buffer
// longer than the slice it borrows for the duration of decoding a single
// item.
package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/endian"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
)

// Header is the fixed 112-byte (format.HeaderSize) prologue of a DEX image
// (spec.md §6).
type Header struct {
	Version         string
	Checksum        uint32
	Signature       [20]byte
	FileSize        uint32
	HeaderSize      uint32
	EndianTag       uint32
	LinkSize        uint32
	LinkOff         uint32
	MapOff          uint32
	StringIDsSize   uint32
	StringIDsOff    uint32
	TypeIDsSize     uint32
	TypeIDsOff      uint32
	ProtoIDsSize    uint32
	ProtoIDsOff     uint32
	FieldIDsSize    uint32
	FieldIDsOff     uint32
	MethodIDsSize   uint32
	MethodIDsOff    uint32
	ClassDefsSize   uint32
	ClassDefsOff    uint32
	DataSize        uint32
	DataOff         uint32
}

var magicPrefix = [4]byte{0x64, 0x65, 0x78, 0x0a} // "dex\n"

// ParseHeader reads and validates the fixed header at the start of data,
// returning the decoded Header and the endian engine resolved from its
// endian_tag (spec.md §4.4).
//
// allowV040 opts into accepting the "040" version string alongside the
// always-supported {035, 037, 038, 039} (spec.md §9 open question (a)).
func ParseHeader(cur *cursor.Cursor, allowV040 bool) (Header, endian.EndianEngine, error) {
	start := cur.Position()

	magic, err := cur.ReadBytes(8)
	if err != nil {
		return Header{}, nil, errs.At("header", int64(start), err)
	}

	if [4]byte(magic[:4]) != magicPrefix || magic[7] != 0x00 {
		return Header{}, nil, errs.At("header", int64(start), errs.ErrBadMagic)
	}

	version := string(magic[4:7])
	if !format.SupportedVersions[version] && !(allowV040 && version == format.VersionV040) {
		return Header{}, nil, errs.At("header", int64(start), errs.ErrUnsupportedVersion)
	}

	h := Header{Version: version}

	checksum, err := cur.ReadU32()
	if err != nil {
		return Header{}, nil, errs.At("header", int64(start), err)
	}

	h.Checksum = checksum

	sig, err := cur.ReadBytes(20)
	if err != nil {
		return Header{}, nil, errs.At("header", int64(start), err)
	}

	copy(h.Signature[:], sig)

	fields := []*uint32{
		&h.FileSize, &h.HeaderSize, &h.EndianTag, &h.LinkSize, &h.LinkOff,
		&h.MapOff, &h.StringIDsSize, &h.StringIDsOff, &h.TypeIDsSize, &h.TypeIDsOff,
		&h.ProtoIDsSize, &h.ProtoIDsOff, &h.FieldIDsSize, &h.FieldIDsOff,
		&h.MethodIDsSize, &h.MethodIDsOff, &h.ClassDefsSize, &h.ClassDefsOff,
		&h.DataSize, &h.DataOff,
	}

	for _, f := range fields {
		v, err := cur.ReadU32()
		if err != nil {
			return Header{}, nil, errs.At("header", int64(start), err)
		}

		*f = v
	}

	if h.HeaderSize != format.HeaderSize {
		return Header{}, nil, errs.At("header", int64(start), errs.ErrHeaderSizeMismatch)
	}

	engine, err := endian.ResolveTag(h.EndianTag)
	if err != nil {
		return Header{}, nil, errs.At("header", int64(start), err)
	}

	return h, engine, nil
}
