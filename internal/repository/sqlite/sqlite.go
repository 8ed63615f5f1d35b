package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"pairdb/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository. The schema is created if missing;
// existing rows are preserved until ReplacePairs runs.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrIO, err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate database: %v", domain.ErrIO, err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS protein_pairs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	protein1 TEXT NOT NULL,
	protein2 TEXT NOT NULL,
	score INTEGER NOT NULL CHECK (score BETWEEN -100 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_protein1 ON protein_pairs(protein1);
CREATE INDEX IF NOT EXISTS idx_protein2 ON protein_pairs(protein2);
CREATE INDEX IF NOT EXISTS idx_both_proteins ON protein_pairs(protein1, protein2);
`

// ReplacePairs overwrites the pair table with the given records inside a
// single transaction. Re-running a conversion is idempotent: the previous
// contents are dropped before insertion.
func (r *Repository) ReplacePairs(ctx context.Context, records []domain.PairRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrIO, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM protein_pairs`); err != nil {
		return fmt.Errorf("%w: clear protein_pairs: %v", domain.ErrIO, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO protein_pairs (protein1, protein2, score) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", domain.ErrIO, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Protein1, rec.Protein2, rec.Score); err != nil {
			return fmt.Errorf("%w: insert pair %d: %v", domain.ErrIO, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrIO, err)
	}
	return nil
}

// QueryPairs returns all records involving the protein, in table order.
func (r *Repository) QueryPairs(ctx context.Context, protein string, filter domain.ScoreFilter) ([]domain.PairRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT protein1, protein2, score
		FROM protein_pairs
		WHERE (protein1 = ? OR protein2 = ?)
	`
	args := []any{protein, protein}

	if filter.Min != nil {
		query += ` AND score >= ?`
		args = append(args, *filter.Min)
	}
	if filter.Max != nil {
		query += ` AND score <= ?`
		args = append(args, *filter.Max)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query pairs: %v", domain.ErrIO, err)
	}
	defer rows.Close()

	var records []domain.PairRecord
	for rows.Next() {
		var rec domain.PairRecord
		if err := rows.Scan(&rec.Protein1, &rec.Protein2, &rec.Score); err != nil {
			return nil, fmt.Errorf("%w: scan pair: %v", domain.ErrIO, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pairs: %v", domain.ErrIO, err)
	}
	return records, nil
}

// Stats returns aggregate statistics over the whole table.
func (r *Repository) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM protein_pairs`).Scan(&stats.TotalPairs)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%w: count pairs: %v", domain.ErrIO, err)
	}
	if stats.TotalPairs == 0 {
		return stats, nil
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT protein) FROM (
			SELECT protein1 AS protein FROM protein_pairs
			UNION
			SELECT protein2 AS protein FROM protein_pairs
		)
	`).Scan(&stats.UniqueProteins)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%w: count proteins: %v", domain.ErrIO, err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT MIN(score), MAX(score), AVG(score) FROM protein_pairs
	`).Scan(&stats.MinScore, &stats.MaxScore, &stats.MeanScore)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%w: score stats: %v", domain.ErrIO, err)
	}

	return stats, nil
}

// SearchProteins returns distinct protein identifiers matching a SQL
// LIKE pattern, from either column, sorted.
func (r *Repository) SearchProteins(ctx context.Context, pattern string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT protein FROM (
			SELECT protein1 AS protein FROM protein_pairs WHERE protein1 LIKE ?
			UNION
			SELECT protein2 AS protein FROM protein_pairs WHERE protein2 LIKE ?
		) ORDER BY protein
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: search proteins: %v", domain.ErrIO, err)
	}
	defer rows.Close()

	var proteins []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%w: scan protein: %v", domain.ErrIO, err)
		}
		proteins = append(proteins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate proteins: %v", domain.ErrIO, err)
	}
	return proteins, nil
}

// SampleProtein returns the first protein identifier in table order, or
// empty string for an empty table.
func (r *Repository) SampleProtein(ctx context.Context) (string, error) {
	var p string
	err := r.db.QueryRowContext(ctx, `
		SELECT protein1 FROM protein_pairs ORDER BY id LIMIT 1
	`).Scan(&p)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: sample protein: %v", domain.ErrIO, err)
	}
	return p, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
