package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"pairdb/internal/domain"
)

// csvHeader matches the pair table column names.
var csvHeader = []string{"protein1", "protein2", "score"}

// CSVCodec handles CSV import/export of pair records. The export layout
// is a header row followed by one record per line, so query results can
// round-trip through a delimited file.
type CSVCodec struct{}

// NewCSVCodec creates a new CSV codec
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Format returns the codec format identifier
func (c *CSVCodec) Format() string {
	return "csv"
}

// Export writes records as CSV with a header row
func (c *CSVCodec) Export(records []domain.PairRecord, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: write csv header: %v", domain.ErrIO, err)
	}
	for _, rec := range records {
		row := []string{rec.Protein1, rec.Protein2, strconv.Itoa(rec.Score)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: write csv row: %v", domain.ErrIO, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush csv: %v", domain.ErrIO, err)
	}
	return nil
}

// Parse reads records from CSV produced by Export. Each record is
// validated against the pair table invariants.
func (c *CSVCodec) Parse(r io.Reader) ([]domain.PairRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv input", domain.ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", domain.ErrFormat, err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("%w: unexpected csv header %v", domain.ErrFormat, header)
		}
	}

	var records []domain.PairRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv line %d: %v", domain.ErrFormat, line, err)
		}

		score, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: score %q is not an integer", domain.ErrFormat, line, row[2])
		}
		rec, err := domain.NewPairRecord(row[0], row[1], score)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
