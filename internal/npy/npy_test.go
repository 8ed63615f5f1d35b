package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pairdb/internal/domain"

	"github.com/klauspost/compress/gzip"
)

// buildNPY assembles a version 1.0 npy stream with the given header dict
// body and raw array data.
func buildNPY(t *testing.T, descr, shape string, data []byte) []byte {
	t.Helper()

	dict := "{'descr': " + descr + ", 'fortran_order': False, 'shape': " + shape + ", }"
	// Pad so that preamble + header is a multiple of 64, ending in newline.
	pad := 64 - (10+len(dict))%64
	dict += string(bytes.Repeat([]byte{' '}, pad-1)) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(dict))); err != nil {
		t.Fatalf("write header length: %v", err)
	}
	buf.WriteString(dict)
	buf.Write(data)
	return buf.Bytes()
}

// bytesCell pads s with NULs to width n.
func bytesCell(t *testing.T, s string, n int) []byte {
	t.Helper()
	if len(s) > n {
		t.Fatalf("cell %q longer than width %d", s, n)
	}
	cell := make([]byte, n)
	copy(cell, s)
	return cell
}

// utf32Cell encodes s as little-endian UTF-32 padded to n code points.
func utf32Cell(t *testing.T, s string, n int) []byte {
	t.Helper()
	runes := []rune(s)
	if len(runes) > n {
		t.Fatalf("cell %q longer than width %d", s, n)
	}
	cell := make([]byte, n*4)
	for i, r := range runes {
		binary.LittleEndian.PutUint32(cell[i*4:], uint32(r))
	}
	return cell
}

func structuredTriples(t *testing.T, rows [][2]string, scores []int64) []byte {
	t.Helper()
	var data bytes.Buffer
	for i, pair := range rows {
		data.Write(bytesCell(t, pair[0], 8))
		data.Write(bytesCell(t, pair[1], 8))
		if err := binary.Write(&data, binary.LittleEndian, scores[i]); err != nil {
			t.Fatalf("write score: %v", err)
		}
	}
	return data.Bytes()
}

const structuredDescr = "[('protein1', '|S8'), ('protein2', '|S8'), ('score', '<i8')]"

func TestReadStructuredArray(t *testing.T) {
	data := structuredTriples(t,
		[][2]string{{"P12345", "Q67890"}, {"Q67890", "O55555"}},
		[]int64{87, -13})
	raw := buildNPY(t, structuredDescr, "(2,)", data)

	records, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.PairRecord{
		{Protein1: "P12345", Protein2: "Q67890", Score: 87},
		{Protein1: "Q67890", Protein2: "O55555", Score: -13},
	}
	if !reflect.DeepEqual(want, records) {
		t.Fatalf("expected %v, got %v", want, records)
	}
}

func TestReadStructuredFloatScore(t *testing.T) {
	// int(score) semantics: floats truncate toward zero.
	var data bytes.Buffer
	data.Write(bytesCell(t, "A", 4))
	data.Write(bytesCell(t, "B", 4))
	if err := binary.Write(&data, binary.LittleEndian, float64(42.9)); err != nil {
		t.Fatalf("write score: %v", err)
	}

	descr := "[('protein1', '|S4'), ('protein2', '|S4'), ('score', '<f8')]"
	records, err := Read(bytes.NewReader(buildNPY(t, descr, "(1,)", data.Bytes())))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Score != 42 {
		t.Fatalf("expected truncated score 42, got %d", records[0].Score)
	}
}

func TestReadUnicodeColumns(t *testing.T) {
	var data bytes.Buffer
	for _, row := range [][3]string{
		{"P100", "P200", "55"},
		{"P300", "P100", "-7"},
	} {
		for _, cell := range row {
			data.Write(utf32Cell(t, cell, 4))
		}
	}

	records, err := Read(bytes.NewReader(buildNPY(t, "'<U4'", "(2, 3)", data.Bytes())))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.PairRecord{
		{Protein1: "P100", Protein2: "P200", Score: 55},
		{Protein1: "P300", Protein2: "P100", Score: -7},
	}
	if !reflect.DeepEqual(want, records) {
		t.Fatalf("expected %v, got %v", want, records)
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{
			name: "bad magic",
			raw:  []byte("NOTNUMPY at all"),
		},
		{
			name: "wrong field count",
			raw: buildNPY(t, "[('protein1', '|S8'), ('score', '<i8')]", "(0,)",
				nil),
		},
		{
			name: "numeric first field",
			raw: buildNPY(t, "[('protein1', '<i8'), ('protein2', '|S8'), ('score', '<i8')]", "(0,)",
				nil),
		},
		{
			name: "string score field",
			raw: buildNPY(t, "[('protein1', '|S8'), ('protein2', '|S8'), ('score', '|S8')]", "(0,)",
				nil),
		},
		{
			name: "2-D with wrong column count",
			raw:  buildNPY(t, "'<U4'", "(2, 4)", make([]byte, 128)),
		},
		{
			name: "2-D numeric dtype",
			raw:  buildNPY(t, "'<i8'", "(2, 3)", make([]byte, 48)),
		},
		{
			name: "truncated data",
			raw: buildNPY(t, structuredDescr, "(5,)",
				structuredTriples(t, [][2]string{{"A", "B"}}, []int64{1})),
		},
		{
			name: "oversized string dtype",
			raw: buildNPY(t, "[('protein1', '|S4700000000000000000'), ('protein2', '|S8'), ('score', '<i8')]", "(2,)",
				nil),
		},
		{
			name: "oversized unicode dtype",
			raw:  buildNPY(t, "'<U4700000000000000000'", "(2, 3)", make([]byte, 48)),
		},
		{
			name: "huge row count",
			raw: buildNPY(t, structuredDescr, "(4611686018427387904,)",
				structuredTriples(t, [][2]string{{"A", "B"}}, []int64{1})),
		},
		{
			name: "non-integer score column",
			raw: buildNPY(t, "'<U4'", "(1, 3)", bytes.Join([][]byte{
				utf32Cell(t, "A", 4), utf32Cell(t, "B", 4), utf32Cell(t, "high", 4),
			}, nil)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.raw))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestReadRejectsFortranOrder(t *testing.T) {
	raw := buildNPY(t, "'<U4'", "(1, 3)", bytes.Join([][]byte{
		utf32Cell(t, "A", 4), utf32Cell(t, "B", 4), utf32Cell(t, "1", 4),
	}, nil))
	raw = bytes.Replace(raw, []byte("'fortran_order': False"), []byte("'fortran_order': True "), 1)

	_, err := Read(bytes.NewReader(raw))
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	data := structuredTriples(t, [][2]string{{"P1", "P2"}}, []int64{10})
	raw := buildNPY(t, structuredDescr, "(1,)", data)

	t.Run("plain file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairs.npy")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}

		records, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].Protein1 != "P1" {
			t.Fatalf("unexpected records: %v", records)
		}
	})

	t.Run("gzip file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pairs.npy.gz")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		gz := gzip.NewWriter(f)
		if _, err := gz.Write(raw); err != nil {
			t.Fatalf("write gzip: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("close gzip: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close file: %v", err)
		}

		records, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].Score != 10 {
			t.Fatalf("unexpected records: %v", records)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.npy"))
		if !errors.Is(err, domain.ErrIO) {
			t.Fatalf("expected ErrIO, got %v", err)
		}
	})
}
