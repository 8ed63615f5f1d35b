// Package npy reads NumPy .npy array files containing protein-pair
// interaction predictions.
//
// Two layouts are accepted:
//
//   - a structured 1-D array with exactly three fields: two string
//     fields (bytes '|S' or unicode '<U') and one numeric field;
//   - a 2-D array with three columns of a string dtype, where the third
//     column parses as an integer.
//
// Sources ending in .gz are decompressed transparently. Malformed
// headers, unsupported dtypes and wrong shapes wrap domain.ErrFormat;
// file access failures wrap domain.ErrIO.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"pairdb/internal/domain"

	"github.com/klauspost/compress/gzip"
)

var magic = []byte("\x93NUMPY")

// Load reads pair records from a .npy (or gzip-compressed .npy.gz) file.
func Load(path string) ([]domain.PairRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open source: %v", domain.ErrIO, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: open gzip source: %v", domain.ErrIO, err)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r)
}

// Read parses pair records from an NPY stream.
func Read(r io.Reader) ([]domain.PairRecord, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read array data: %v", domain.ErrIO, err)
	}

	switch {
	case len(hdr.fields) == 3 && len(hdr.shape) == 1:
		return readStructured(hdr, data)
	case len(hdr.fields) == 0 && len(hdr.shape) == 2 && hdr.shape[1] == 3:
		if hdr.fortran {
			return nil, fmt.Errorf("%w: fortran-ordered 2-D arrays are not supported", domain.ErrFormat)
		}
		return readColumns(hdr, data)
	default:
		return nil, fmt.Errorf("%w: array must be 2-D with three columns or structured with three fields, got shape %v with %d fields",
			domain.ErrFormat, hdr.shape, len(hdr.fields))
	}
}

// header is the parsed NPY preamble.
type header struct {
	dtype   dtype   // scalar arrays
	fields  []field // structured arrays
	fortran bool
	shape   []int
}

type field struct {
	name string
	typ  dtype
}

// dtype describes a NumPy scalar type.
type dtype struct {
	kind      byte // 'S' bytes, 'U' unicode, 'i' int, 'u' uint, 'f' float
	size      int  // bytes per element ('U' counts 4 bytes per code point)
	bigEndian bool
}

func (d dtype) isString() bool { return d.kind == 'S' || d.kind == 'U' }

func (d dtype) order() binary.ByteOrder {
	if d.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func readHeader(r io.Reader) (*header, error) {
	pre := make([]byte, 8)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("%w: short npy preamble: %v", domain.ErrFormat, err)
	}
	if !bytes.Equal(pre[:6], magic) {
		return nil, fmt.Errorf("%w: not an npy file", domain.ErrFormat)
	}

	major := pre[6]
	var hlen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: short header length: %v", domain.ErrFormat, err)
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: short header length: %v", domain.ErrFormat, err)
		}
		hlen = int(n)
	default:
		return nil, fmt.Errorf("%w: unsupported npy version %d.%d", domain.ErrFormat, major, pre[7])
	}

	raw := make([]byte, hlen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", domain.ErrFormat, err)
	}

	return parseHeaderDict(string(raw))
}

var (
	descrScalarRe = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	descrFieldRe  = regexp.MustCompile(`\(\s*'([^']*)'\s*,\s*'([^']+)'\s*\)`)
	fortranRe     = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe       = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

func parseHeaderDict(s string) (*header, error) {
	hdr := &header{}

	m := fortranRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: header missing fortran_order", domain.ErrFormat)
	}
	hdr.fortran = m[1] == "True"

	m = shapeRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: header missing shape", domain.ErrFormat)
	}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad shape dimension %q", domain.ErrFormat, part)
		}
		hdr.shape = append(hdr.shape, n)
	}
	if len(hdr.shape) == 0 {
		return nil, fmt.Errorf("%w: scalar arrays are not supported", domain.ErrFormat)
	}

	if m = descrScalarRe.FindStringSubmatch(s); m != nil {
		dt, err := parseDtype(m[1])
		if err != nil {
			return nil, err
		}
		hdr.dtype = dt
		return hdr, nil
	}

	// Structured descr: a list of ('name', 'dtype') tuples.
	fields := descrFieldRe.FindAllStringSubmatch(s, -1)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: header missing descr", domain.ErrFormat)
	}
	for _, fm := range fields {
		dt, err := parseDtype(fm[2])
		if err != nil {
			return nil, err
		}
		hdr.fields = append(hdr.fields, field{name: fm[1], typ: dt})
	}
	return hdr, nil
}

// maxStringSize caps the accepted width of string dtype cells. Header
// sizes beyond this are treated as malformed rather than allocated.
const maxStringSize = 1 << 20

func parseDtype(s string) (dtype, error) {
	if len(s) < 2 {
		return dtype{}, fmt.Errorf("%w: bad dtype %q", domain.ErrFormat, s)
	}

	var dt dtype
	switch s[0] {
	case '<', '|', '=':
	case '>':
		dt.bigEndian = true
	default:
		return dtype{}, fmt.Errorf("%w: bad dtype byte order in %q", domain.ErrFormat, s)
	}

	dt.kind = s[1]
	n, err := strconv.Atoi(s[2:])
	if err != nil || n <= 0 {
		return dtype{}, fmt.Errorf("%w: bad dtype size in %q", domain.ErrFormat, s)
	}

	switch dt.kind {
	case 'S':
		if n > maxStringSize {
			return dtype{}, fmt.Errorf("%w: string dtype %q too wide", domain.ErrFormat, s)
		}
		dt.size = n
	case 'U':
		if n > maxStringSize/4 {
			return dtype{}, fmt.Errorf("%w: string dtype %q too wide", domain.ErrFormat, s)
		}
		dt.size = n * 4 // UTF-32 code points
	case 'i', 'u':
		if n != 1 && n != 2 && n != 4 && n != 8 {
			return dtype{}, fmt.Errorf("%w: unsupported integer width in %q", domain.ErrFormat, s)
		}
		dt.size = n
	case 'f':
		if n != 4 && n != 8 {
			return dtype{}, fmt.Errorf("%w: unsupported float width in %q", domain.ErrFormat, s)
		}
		dt.size = n
	default:
		return dtype{}, fmt.Errorf("%w: unsupported dtype %q", domain.ErrFormat, s)
	}
	return dt, nil
}

// readStructured decodes a 1-D structured array with fields
// (protein1, protein2, score) in declaration order.
func readStructured(hdr *header, data []byte) ([]domain.PairRecord, error) {
	p1, p2, sc := hdr.fields[0], hdr.fields[1], hdr.fields[2]
	if !p1.typ.isString() || !p2.typ.isString() {
		return nil, fmt.Errorf("%w: first two fields must be string dtypes", domain.ErrFormat)
	}
	if sc.typ.isString() {
		return nil, fmt.Errorf("%w: score field %q must be numeric", domain.ErrFormat, sc.name)
	}

	rowSize := p1.typ.size + p2.typ.size + sc.typ.size
	rows := hdr.shape[0]
	// Division-based bound: rows*rowSize must not be computed directly,
	// a crafted header can overflow it.
	if rows > len(data)/rowSize {
		return nil, fmt.Errorf("%w: array data truncated: need %d rows of %d bytes, have %d bytes", domain.ErrFormat, rows, rowSize, len(data))
	}

	records := make([]domain.PairRecord, 0, rows)
	for i := 0; i < rows; i++ {
		row := data[i*rowSize : (i+1)*rowSize]
		protein1 := decodeString(p1.typ, row[:p1.typ.size])
		protein2 := decodeString(p2.typ, row[p1.typ.size:p1.typ.size+p2.typ.size])
		score, err := decodeScore(sc.typ, row[p1.typ.size+p2.typ.size:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, domain.PairRecord{Protein1: protein1, Protein2: protein2, Score: score})
	}
	return records, nil
}

// readColumns decodes a C-ordered 2-D string array with columns
// (protein1, protein2, score).
func readColumns(hdr *header, data []byte) ([]domain.PairRecord, error) {
	if !hdr.dtype.isString() {
		return nil, fmt.Errorf("%w: 2-D arrays must use a string dtype", domain.ErrFormat)
	}

	rows := hdr.shape[0]
	rowSize := 3 * hdr.dtype.size
	if rows > len(data)/rowSize {
		return nil, fmt.Errorf("%w: array data truncated: need %d rows of %d bytes, have %d bytes", domain.ErrFormat, rows, rowSize, len(data))
	}

	records := make([]domain.PairRecord, 0, rows)
	for i := 0; i < rows; i++ {
		row := data[i*rowSize : (i+1)*rowSize]
		protein1 := decodeString(hdr.dtype, row[:hdr.dtype.size])
		protein2 := decodeString(hdr.dtype, row[hdr.dtype.size:2*hdr.dtype.size])
		raw := decodeString(hdr.dtype, row[2*hdr.dtype.size:])
		score, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: score column %q is not an integer", domain.ErrFormat, i, raw)
		}
		records = append(records, domain.PairRecord{Protein1: protein1, Protein2: protein2, Score: score})
	}
	return records, nil
}

// decodeString trims trailing NULs from fixed-width string cells.
func decodeString(dt dtype, cell []byte) string {
	if dt.kind == 'S' {
		return string(bytes.TrimRight(cell, "\x00"))
	}

	// 'U': UTF-32 code points in the dtype's byte order.
	order := dt.order()
	runes := make([]rune, 0, len(cell)/4)
	for i := 0; i+4 <= len(cell); i += 4 {
		cp := order.Uint32(cell[i : i+4])
		if cp == 0 {
			continue
		}
		runes = append(runes, rune(cp))
	}
	return string(runes)
}

// decodeScore converts a numeric cell to int. Floats are truncated
// toward zero, matching the original converter's int(score).
func decodeScore(dt dtype, cell []byte) (int, error) {
	order := dt.order()
	switch dt.kind {
	case 'i':
		switch dt.size {
		case 1:
			return int(int8(cell[0])), nil
		case 2:
			return int(int16(order.Uint16(cell))), nil
		case 4:
			return int(int32(order.Uint32(cell))), nil
		case 8:
			return int(int64(order.Uint64(cell))), nil
		}
	case 'u':
		switch dt.size {
		case 1:
			return int(cell[0]), nil
		case 2:
			return int(order.Uint16(cell)), nil
		case 4:
			return int(order.Uint32(cell)), nil
		case 8:
			v := order.Uint64(cell)
			if v > math.MaxInt64 {
				return 0, fmt.Errorf("%w: score %d overflows", domain.ErrFormat, v)
			}
			return int(v), nil
		}
	case 'f':
		var f float64
		if dt.size == 4 {
			f = float64(math.Float32frombits(order.Uint32(cell)))
		} else {
			f = math.Float64frombits(order.Uint64(cell))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: score is not finite", domain.ErrFormat)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: unsupported score dtype", domain.ErrFormat)
}
