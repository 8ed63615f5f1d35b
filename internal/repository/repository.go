package repository

import (
	"context"

	"pairdb/internal/domain"
)

// Repository defines the interface for pair table access.
//
// The table is created in bulk at conversion time and read-only
// thereafter; there are no update or delete operations.
type Repository interface {
	// ReplacePairs overwrites the pair table with the given records.
	ReplacePairs(ctx context.Context, records []domain.PairRecord) error

	// QueryPairs returns all records where the protein appears in either
	// column, optionally narrowed by a score filter, in table order.
	QueryPairs(ctx context.Context, protein string, filter domain.ScoreFilter) ([]domain.PairRecord, error)

	// Stats returns aggregate statistics over the whole table.
	Stats(ctx context.Context) (domain.Stats, error)

	// SearchProteins returns the distinct protein identifiers from either
	// column matching a SQL LIKE pattern, sorted.
	SearchProteins(ctx context.Context, pattern string) ([]string, error)

	// SampleProtein returns an arbitrary protein identifier from the
	// table, or empty string if the table is empty.
	SampleProtein(ctx context.Context) (string, error)

	// Close releases resources
	Close() error
}
