package fgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
)

// tripColumnsFor builds the fixed trip schema.
func tripColumnsFor(builder *flatbuffers.Builder) []*writer.Column {
	columns := make([]*writer.Column, 0, len(tripColumns))
	for _, c := range tripColumns {
		col := writer.NewColumn(builder)
		col.SetName(c.name)
		col.SetTitle(c.title)
		col.SetType(c.typ)
		col.SetNullable(false)
		columns = append(columns, col)
	}
	return columns
}

// checkSchema verifies that header carries the trip columns in order.
func checkSchema(header *flattypes.Header) error {
	if header.ColumnsLength() != len(tripColumns) {
		return fmt.Errorf("%w: %d columns", ErrSchema, header.ColumnsLength())
	}
	var col flattypes.Column
	for i, want := range tripColumns {
		if !header.Columns(&col, i) {
			return fmt.Errorf("%w: column %d unreadable", ErrSchema, i)
		}
		if string(col.Name()) != want.name || col.Type() != want.typ {
			return fmt.Errorf("%w: column %d is %s %s", ErrSchema, i,
				col.Name(), flattypes.EnumNamesColumnType[col.Type()])
		}
	}
	return nil
}

// encodeTrip encodes the trip properties in FlatGeobuf binary format:
// [uint16 column index][value bytes] for each column.
func encodeTrip(t *Trip) []byte {
	var buf bytes.Buffer

	writeIndex(&buf, 0)
	writeUint64(&buf, uint64(t.MMSI))

	writeIndex(&buf, 1)
	writeString(&buf, t.Start.UTC().Format(time.RFC3339Nano))

	writeIndex(&buf, 2)
	writeString(&buf, t.End.UTC().Format(time.RFC3339Nano))

	writeIndex(&buf, 3)
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(int32(t.Instants)))
	buf.Write(b)

	writeIndex(&buf, 4)
	writeString(&buf, t.HexWKB)

	return buf.Bytes()
}

func writeIndex(buf *bytes.Buffer, i uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, i)
	buf.Write(b)
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0) // Null terminator
}

// decodeTrip decodes the properties written by encodeTrip into t. Unknown
// column indexes and truncated values are errors.
func decodeTrip(data []byte, t *Trip) error {
	offset := 0
	for offset < len(data) {
		if offset+2 > len(data) {
			return fmt.Errorf("%w: truncated column index", ErrInvalidData)
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2
		if colIndex >= len(tripColumns) {
			return fmt.Errorf("%w: column index %d", ErrInvalidData, colIndex)
		}

		n, err := readTripValue(data[offset:], colIndex, t)
		if err != nil {
			return err
		}
		offset += n
	}
	return nil
}

// readTripValue reads one column value and returns the bytes consumed.
func readTripValue(data []byte, colIndex int, t *Trip) (int, error) {
	switch tripColumns[colIndex].typ {
	case flattypes.ColumnTypeLong:
		if len(data) < 8 {
			return 0, fmt.Errorf("%w: truncated %s", ErrInvalidData, tripColumns[colIndex].name)
		}
		t.MMSI = int64(binary.LittleEndian.Uint64(data[:8]))
		return 8, nil

	case flattypes.ColumnTypeInt:
		if len(data) < 4 {
			return 0, fmt.Errorf("%w: truncated %s", ErrInvalidData, tripColumns[colIndex].name)
		}
		t.Instants = int(int32(binary.LittleEndian.Uint32(data[:4])))
		return 4, nil
	}

	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return 0, fmt.Errorf("%w: unterminated %s", ErrInvalidData, tripColumns[colIndex].name)
	}
	s := string(data[:nullIdx])

	switch tripColumns[colIndex].name {
	case ColumnStart, ColumnEnd:
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidData, tripColumns[colIndex].name, err)
		}
		if colIndex == 1 {
			t.Start = ts
		} else {
			t.End = ts
		}
	case ColumnTemporal:
		t.HexWKB = s
	}
	return nullIdx + 1, nil
}
