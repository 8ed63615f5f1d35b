package codec

import (
	"io"

	"pairdb/internal/domain"
)

// Importer interface for importing pair records from various formats
type Importer interface {
	Parse(r io.Reader) ([]domain.PairRecord, error)
	Format() string
}

// Exporter interface for exporting pair records to various formats
type Exporter interface {
	Export(records []domain.PairRecord, w io.Writer) error
	Format() string
}
