package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"pairdb/internal/npy"
	"pairdb/internal/repository"
)

// ConvertService loads source arrays and persists them as a pair table.
type ConvertService struct {
	repo repository.Repository
}

// NewConvertService creates a new convert service
func NewConvertService(repo repository.Repository) *ConvertService {
	return &ConvertService{repo: repo}
}

// Convert reads pair records from the source array file, validates every
// record, and overwrites the pair table. Returns the number of rows
// inserted.
func (s *ConvertService) Convert(ctx context.Context, sourcePath string) (int, error) {
	start := time.Now()

	records, err := npy.Load(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", sourcePath, err)
	}
	log.Printf("Loaded %d pairs from %s", len(records), sourcePath)

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := s.repo.ReplacePairs(ctx, records); err != nil {
		return 0, err
	}

	log.Printf("Inserted %d pairs in %s", len(records), time.Since(start).Round(time.Millisecond))
	return len(records), nil
}
