package memnative

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tingold/orb-meos/native"
)

// Binary layout of a tgeompoint:
//
//	byte    byte order (0 XDR, 1 NDR)
//	uint16  temporal type
//	byte    flags: subtype | interp<<2 | wkbSRIDFlag
//	int32   SRID, when wkbSRIDFlag is set
//	instant:  x y t
//	sequence: int32 count, byte bounds, count * (x y t)
//	set:      int32 nseqs, nseqs * sequence
const (
	wkbTGeomPoint uint16 = 34
	wkbSRIDFlag   byte   = 0x40
	wkbLowerInc   byte   = 0x01
	wkbUpperInc   byte   = 0x02
)

var errShortWKB = errors.New("unexpected end of WKB buffer")

func encodeWKB(t *temporal, variant uint8) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	var buf bytes.Buffer
	if variant&native.WKBXDR != 0 {
		order = binary.BigEndian
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
	}

	withSRID := variant&native.WKBExtended != 0 && t.srid != 0
	flags := t.subtype | byte(t.interp)<<2
	if withSRID {
		flags |= wkbSRIDFlag
	}
	_ = binary.Write(&buf, order, wkbTGeomPoint)
	buf.WriteByte(flags)
	if withSRID {
		_ = binary.Write(&buf, order, t.srid)
	}

	switch t.subtype {
	case native.SubtypeInstant:
		writeSample(&buf, order, t.instants[0])
	case native.SubtypeSequence:
		writeSequence(&buf, order, t)
	case native.SubtypeSequenceSet:
		_ = binary.Write(&buf, order, int32(len(t.seqs)))
		for _, s := range t.seqs {
			writeSequence(&buf, order, s)
		}
	}
	return buf.Bytes()
}

func writeSequence(buf *bytes.Buffer, order binary.ByteOrder, t *temporal) {
	_ = binary.Write(buf, order, int32(len(t.instants)))
	var bounds byte
	if t.lowerInc {
		bounds |= wkbLowerInc
	}
	if t.upperInc {
		bounds |= wkbUpperInc
	}
	buf.WriteByte(bounds)
	for _, in := range t.instants {
		writeSample(buf, order, in)
	}
}

func writeSample(buf *bytes.Buffer, order binary.ByteOrder, in instant) {
	_ = binary.Write(buf, order, in.pt[0])
	_ = binary.Write(buf, order, in.pt[1])
	_ = binary.Write(buf, order, in.t)
}

func encodeHexWKB(t *temporal, variant uint8) string {
	return strings.ToUpper(hex.EncodeToString(encodeWKB(t, variant)))
}

type wkbReader struct {
	data  []byte
	order binary.ByteOrder
	err   error
}

func (r *wkbReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data) < n {
		r.err = errShortWKB
		return nil
	}
	b := r.data[:n]
	r.data = r.data[n:]
	return b
}

func (r *wkbReader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *wkbReader) readUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return r.order.Uint16(b)
}

func (r *wkbReader) readUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

func (r *wkbReader) readUint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

func (r *wkbReader) sample() instant {
	x := math.Float64frombits(r.readUint64())
	y := math.Float64frombits(r.readUint64())
	t := int64(r.readUint64())
	return instant{pt: [2]float64{x, y}, t: t}
}

func (r *wkbReader) count() int {
	n := int32(r.readUint32())
	if r.err != nil {
		return 0
	}
	// Each element needs at least one sample worth of bytes.
	if n < 1 || int(n) > len(r.data)/24+1 {
		r.err = fmt.Errorf("invalid element count %d in WKB", n)
		return 0
	}
	return int(n)
}

func (r *wkbReader) sequence(interp native.Interp, srid int32) (*temporal, error) {
	n := r.count()
	bounds := r.readByte()
	instants := make([]instant, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		instants = append(instants, r.sample())
	}
	if r.err != nil {
		return nil, r.err
	}
	return newSequence(instants, srid, n, bounds&wkbLowerInc != 0, bounds&wkbUpperInc != 0, interp, false)
}

func decodeWKB(data []byte) (*temporal, error) {
	if len(data) == 0 {
		return nil, errShortWKB
	}
	r := &wkbReader{data: data}
	switch data[0] {
	case 0:
		r.order = binary.BigEndian
	case 1:
		r.order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("invalid byte order %d in WKB", data[0])
	}
	r.take(1)

	if typ := r.readUint16(); r.err == nil && typ != wkbTGeomPoint {
		return nil, fmt.Errorf("unsupported temporal type %d in WKB", typ)
	}
	flags := r.readByte()
	var srid int32
	if flags&wkbSRIDFlag != 0 {
		srid = int32(r.readUint32())
	}
	if r.err != nil {
		return nil, r.err
	}
	subtype := flags & 0x03
	interp := native.Interp(flags >> 2 & 0x03)

	var t *temporal
	var err error
	switch subtype {
	case native.SubtypeInstant:
		in := r.sample()
		if r.err != nil {
			return nil, r.err
		}
		t = newInstant(srid, in)
	case native.SubtypeSequence:
		t, err = r.sequence(interp, srid)
	case native.SubtypeSequenceSet:
		n := r.count()
		seqs := make([]*temporal, 0, n)
		for i := 0; i < n && err == nil; i++ {
			var s *temporal
			if s, err = r.sequence(interp, srid); err == nil {
				seqs = append(seqs, s)
			}
		}
		if err == nil && r.err != nil {
			err = r.err
		}
		if err == nil {
			t, err = newSequenceSet(seqs)
		}
	default:
		return nil, fmt.Errorf("invalid temporal subtype %d in WKB", subtype)
	}
	if err != nil {
		return nil, err
	}
	if len(r.data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after WKB value", len(r.data))
	}
	return t, nil
}

func decodeHexWKB(s string) (*temporal, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex WKB: %w", err)
	}
	return decodeWKB(data)
}
