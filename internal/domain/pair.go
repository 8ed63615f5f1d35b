package domain

import "fmt"

// Score bounds for interaction predictions. Records outside this range
// are rejected at conversion time.
const (
	MinScore = -100
	MaxScore = 100
)

// PairRecord represents one protein-pair interaction prediction.
// Records are immutable once created; the pair table is read-only after
// conversion.
type PairRecord struct {
	Protein1 string `json:"protein1"`
	Protein2 string `json:"protein2"`
	Score    int    `json:"score"`
}

// NewPairRecord creates a validated pair record.
func NewPairRecord(protein1, protein2 string, score int) (PairRecord, error) {
	rec := PairRecord{Protein1: protein1, Protein2: protein2, Score: score}
	if err := rec.Validate(); err != nil {
		return PairRecord{}, err
	}
	return rec, nil
}

// Validate checks the pair table invariants: non-empty protein
// identifiers and a score within [MinScore, MaxScore].
func (r PairRecord) Validate() error {
	if r.Protein1 == "" || r.Protein2 == "" {
		return fmt.Errorf("%w: empty protein identifier", ErrFormat)
	}
	if r.Score < MinScore || r.Score > MaxScore {
		return fmt.Errorf("%w: score %d outside [%d, %d]", ErrFormat, r.Score, MinScore, MaxScore)
	}
	return nil
}

// Involves reports whether the given protein appears in either column.
func (r PairRecord) Involves(protein string) bool {
	return r.Protein1 == protein || r.Protein2 == protein
}

// ScoreFilter narrows a pair query to a score range. Nil bounds are
// unset; Min and Max are inclusive.
type ScoreFilter struct {
	Min *int
	Max *int
}

// Validate rejects an inverted range.
func (f ScoreFilter) Validate() error {
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("%w: min score %d greater than max score %d", ErrQuery, *f.Min, *f.Max)
	}
	return nil
}

// Matches reports whether a score passes the filter.
func (f ScoreFilter) Matches(score int) bool {
	if f.Min != nil && score < *f.Min {
		return false
	}
	if f.Max != nil && score > *f.Max {
		return false
	}
	return true
}
