// Package codec serializes term values for inter-node frames.
//
// The format is a compact tag-byte encoding: one tag per value kind, followed
// by big-endian lengths/fields and then the payload. Compound values recurse.
//
//	'N'                              nil
//	'i' int64                        integer
//	'f' float64 bits                 float
//	'a' u16 len, bytes               atom
//	's' u32 len, bytes               string
//	'b' u32 len, bytes               binary
//	't' u32 count, elements          tuple
//	'l' u32 count, elements          list
//	'p' atom node, u32 id, u32 serial, u8 creation   pid
//	'r' atom node, u8 creation, 3×u32 id             ref
//
// Booleans are encoded as the atoms 'true' and 'false', matching how peers
// represent them. A bare []any sequence encodes with the list tag, so it
// arrives on the other side as a term.List — consumers read elements through
// the accessor and never notice.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"erlnode/term"
)

const (
	tagNil    byte = 'N'
	tagInt    byte = 'i'
	tagFloat  byte = 'f'
	tagAtom   byte = 'a'
	tagString byte = 's'
	tagBinary byte = 'b'
	tagTuple  byte = 't'
	tagList   byte = 'l'
	tagPid    byte = 'p'
	tagRef    byte = 'r'
)

// Encode serializes a term value to bytes. Unsupported Go types are reported
// by name rather than encoded lossily.
func Encode(v any) ([]byte, error) {
	return appendTerm(nil, v)
}

func appendTerm(buf []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(buf, tagNil), nil
	case bool:
		if x {
			return appendAtom(buf, term.Atom("true")), nil
		}
		return appendAtom(buf, term.Atom("false")), nil
	case int:
		return appendInt(buf, int64(x)), nil
	case int32:
		return appendInt(buf, int64(x)), nil
	case int64:
		return appendInt(buf, x), nil
	case uint32:
		return appendInt(buf, int64(x)), nil
	case float64:
		buf = append(buf, tagFloat)
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(x)), nil
	case term.Atom:
		return appendAtom(buf, x), nil
	case string:
		buf = append(buf, tagString)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		return append(buf, x...), nil
	case []byte:
		buf = append(buf, tagBinary)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		return append(buf, x...), nil
	case term.Tuple:
		buf = append(buf, tagTuple)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		return appendAll(buf, x)
	case term.List:
		buf = append(buf, tagList)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x.Items)))
		return appendAll(buf, x.Items)
	case []any:
		buf = append(buf, tagList)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		return appendAll(buf, x)
	case term.Pid:
		buf = append(buf, tagPid)
		buf = appendAtomBody(buf, x.Node)
		buf = binary.BigEndian.AppendUint32(buf, x.ID)
		buf = binary.BigEndian.AppendUint32(buf, x.Serial)
		return append(buf, x.Creation), nil
	case term.Ref:
		buf = append(buf, tagRef)
		buf = appendAtomBody(buf, x.Node)
		buf = append(buf, x.Creation)
		for _, id := range x.ID {
			buf = binary.BigEndian.AppendUint32(buf, id)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("codec: unsupported type %T", v)
	}
}

func appendAll(buf []byte, items []any) ([]byte, error) {
	var err error
	for _, item := range items {
		buf, err = appendTerm(buf, item)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendInt(buf []byte, v int64) []byte {
	buf = append(buf, tagInt)
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func appendAtom(buf []byte, a term.Atom) []byte {
	buf = append(buf, tagAtom)
	return appendAtomBody(buf, a)
}

func appendAtomBody(buf []byte, a term.Atom) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(a)))
	return append(buf, a...)
}

// Decode deserializes exactly one term value from data. Trailing bytes after
// the value are an error — a frame body carries one term.
func Decode(data []byte) (any, error) {
	v, off, err := decodeTerm(data, 0)
	if err != nil {
		return nil, err
	}
	if off != len(data) {
		return nil, fmt.Errorf("codec: %d trailing bytes after term", len(data)-off)
	}
	return v, nil
}

func decodeTerm(data []byte, off int) (any, int, error) {
	if off >= len(data) {
		return nil, 0, fmt.Errorf("codec: truncated term at offset %d", off)
	}
	tag := data[off]
	off++

	switch tag {
	case tagNil:
		return nil, off, nil
	case tagInt:
		if off+8 > len(data) {
			return nil, 0, fmt.Errorf("codec: truncated integer at offset %d", off)
		}
		v := int64(binary.BigEndian.Uint64(data[off : off+8]))
		return v, off + 8, nil
	case tagFloat:
		if off+8 > len(data) {
			return nil, 0, fmt.Errorf("codec: truncated float at offset %d", off)
		}
		v := math.Float64frombits(binary.BigEndian.Uint64(data[off : off+8]))
		return v, off + 8, nil
	case tagAtom:
		a, next, err := decodeAtomBody(data, off)
		if err != nil {
			return nil, 0, err
		}
		return a, next, nil
	case tagString:
		b, next, err := decodeBytes(data, off)
		if err != nil {
			return nil, 0, err
		}
		return string(b), next, nil
	case tagBinary:
		b, next, err := decodeBytes(data, off)
		if err != nil {
			return nil, 0, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, next, nil
	case tagTuple:
		items, next, err := decodeSeq(data, off)
		if err != nil {
			return nil, 0, err
		}
		return term.Tuple(items), next, nil
	case tagList:
		items, next, err := decodeSeq(data, off)
		if err != nil {
			return nil, 0, err
		}
		return term.List{Items: items}, next, nil
	case tagPid:
		node, off, err := decodeAtomBody(data, off)
		if err != nil {
			return nil, 0, err
		}
		if off+9 > len(data) {
			return nil, 0, fmt.Errorf("codec: truncated pid at offset %d", off)
		}
		p := term.Pid{
			Node:     node,
			ID:       binary.BigEndian.Uint32(data[off : off+4]),
			Serial:   binary.BigEndian.Uint32(data[off+4 : off+8]),
			Creation: data[off+8],
		}
		return p, off + 9, nil
	case tagRef:
		node, off, err := decodeAtomBody(data, off)
		if err != nil {
			return nil, 0, err
		}
		if off+13 > len(data) {
			return nil, 0, fmt.Errorf("codec: truncated ref at offset %d", off)
		}
		r := term.Ref{Node: node, Creation: data[off]}
		off++
		for i := range r.ID {
			r.ID[i] = binary.BigEndian.Uint32(data[off : off+4])
			off += 4
		}
		return r, off, nil
	default:
		return nil, 0, fmt.Errorf("codec: unknown tag 0x%02x at offset %d", tag, off-1)
	}
}

func decodeAtomBody(data []byte, off int) (term.Atom, int, error) {
	if off+2 > len(data) {
		return "", 0, fmt.Errorf("codec: truncated atom at offset %d", off)
	}
	n := int(binary.BigEndian.Uint16(data[off : off+2]))
	off += 2
	if off+n > len(data) {
		return "", 0, fmt.Errorf("codec: truncated atom at offset %d", off)
	}
	return term.Atom(data[off : off+n]), off + n, nil
}

func decodeBytes(data []byte, off int) ([]byte, int, error) {
	if off+4 > len(data) {
		return nil, 0, fmt.Errorf("codec: truncated length at offset %d", off)
	}
	n := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+n > len(data) {
		return nil, 0, fmt.Errorf("codec: truncated payload at offset %d", off)
	}
	return data[off : off+n], off + n, nil
}

func decodeSeq(data []byte, off int) ([]any, int, error) {
	if off+4 > len(data) {
		return nil, 0, fmt.Errorf("codec: truncated length at offset %d", off)
	}
	n := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, next, err := decodeTerm(data, off)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
		off = next
	}
	return items, off, nil
}
