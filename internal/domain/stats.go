package domain

// Stats summarizes a pair table.
type Stats struct {
	TotalPairs     int     `json:"total_pairs"`
	UniqueProteins int     `json:"unique_proteins"`
	MinScore       int     `json:"min_score"`
	MaxScore       int     `json:"max_score"`
	MeanScore      float64 `json:"mean_score"`
}

// ComputeStats recomputes statistics from an in-memory record slice.
// The repository computes the same values in SQL; this is the reference
// used by callers that already hold the records (and by tests).
func ComputeStats(records []PairRecord) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	proteins := make(map[string]struct{}, len(records)*2)
	min, max, sum := records[0].Score, records[0].Score, 0
	for _, r := range records {
		proteins[r.Protein1] = struct{}{}
		proteins[r.Protein2] = struct{}{}
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
		sum += r.Score
	}

	return Stats{
		TotalPairs:     len(records),
		UniqueProteins: len(proteins),
		MinScore:       min,
		MaxScore:       max,
		MeanScore:      float64(sum) / float64(len(records)),
	}
}
