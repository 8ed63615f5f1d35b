package service

import (
	"context"
	"fmt"
	"io"

	"pairdb/internal/codec"
	"pairdb/internal/domain"
	"pairdb/internal/repository"
)

// QueryService provides read operations over a converted pair table.
type QueryService struct {
	repo            repository.Repository
	defaultMinScore *int
}

// NewQueryService creates a new query service. defaultMinScore, when
// non-nil, applies to queries that pass no explicit minimum (the
// operator-configured interaction threshold).
func NewQueryService(repo repository.Repository, defaultMinScore *int) *QueryService {
	return &QueryService{repo: repo, defaultMinScore: defaultMinScore}
}

// QueryPairs returns all records involving the protein, in table order.
func (s *QueryService) QueryPairs(ctx context.Context, protein string, filter domain.ScoreFilter) ([]domain.PairRecord, error) {
	if protein == "" {
		return nil, fmt.Errorf("%w: empty protein identifier", domain.ErrQuery)
	}
	if filter.Min == nil {
		filter.Min = s.defaultMinScore
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.repo.QueryPairs(ctx, protein, filter)
}

// Stats returns aggregate statistics over the pair table.
func (s *QueryService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx)
}

// SampleProtein returns an arbitrary protein identifier from the table
// to seed example queries, or empty string if the table is empty.
func (s *QueryService) SampleProtein(ctx context.Context) (string, error) {
	return s.repo.SampleProtein(ctx)
}

// SearchProteins returns distinct protein identifiers matching a SQL
// LIKE pattern.
func (s *QueryService) SearchProteins(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty search pattern", domain.ErrQuery)
	}
	return s.repo.SearchProteins(ctx, pattern)
}

// ExportCSV runs QueryPairs and writes the result as CSV.
func (s *QueryService) ExportCSV(ctx context.Context, protein string, filter domain.ScoreFilter, w io.Writer) (int, error) {
	records, err := s.QueryPairs(ctx, protein, filter)
	if err != nil {
		return 0, err
	}
	if err := codec.NewCSVCodec().Export(records, w); err != nil {
		return 0, err
	}
	return len(records), nil
}
