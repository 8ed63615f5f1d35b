// Command pairdb converts NumPy arrays of protein-pair interaction
// predictions into a queryable SQLite table and runs queries over it.
//
// Usage:
//
//	pairdb convert --source-path pairs.npy --table-path pairs.db
//	pairdb query   --table-path pairs.db --protein P12345 [--min-score 50] [--max-score 90] [--csv out.csv]
//	pairdb stats   --table-path pairs.db
//	pairdb search  --table-path pairs.db --pattern 'P12%'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"pairdb/internal/config"
	"pairdb/internal/domain"
	"pairdb/internal/repository/sqlite"
	"pairdb/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, cfgPath, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgPath != "" {
		log.Printf("Config loaded: %s", cfgPath)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "convert":
		err = runConvert(ctx, cfg, os.Args[2:])
	case "query":
		err = runQuery(ctx, cfg, os.Args[2:])
	case "stats":
		err = runStats(ctx, cfg, os.Args[2:])
	case "search":
		err = runSearch(ctx, cfg, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: pairdb <command> [flags]

Commands:
  convert   convert a .npy source array into a SQLite pair table
  query     list all pairs involving a protein
  stats     print aggregate statistics for a pair table
  search    list proteins matching a SQL LIKE pattern

Run 'pairdb <command> -h' for command flags.`)
}

// openRepo opens the pair table for the scope of one command. The caller
// must Close it; every command acquires and releases its own handle.
func openRepo(tablePath string) (*sqlite.Repository, error) {
	if tablePath == "" {
		return nil, fmt.Errorf("%w: table path is required", domain.ErrIO)
	}
	return sqlite.New(tablePath)
}

func runConvert(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	sourcePath := fs.String("source-path", "", "Path to the .npy source array (required)")
	tablePath := fs.String("table-path", cfg.Database.Path, "SQLite pair table path")
	fs.Parse(args)

	if *sourcePath == "" {
		return fmt.Errorf("%w: --source-path is required", domain.ErrIO)
	}

	repo, err := openRepo(*tablePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := service.NewConvertService(repo).Convert(ctx, *sourcePath)
	if err != nil {
		return err
	}

	log.Printf("Table created: %s (%d pairs)", *tablePath, n)
	return nil
}

func runQuery(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	tablePath := fs.String("table-path", cfg.Database.Path, "SQLite pair table path")
	protein := fs.String("protein", "", "Protein identifier to look up (required)")
	minScore := fs.String("min-score", "", "Minimum score threshold (inclusive)")
	maxScore := fs.String("max-score", "", "Maximum score threshold (inclusive)")
	csvPath := fs.String("csv", "", "Write results to a CSV file instead of stdout")
	fs.Parse(args)

	filter, err := parseFilter(*minScore, *maxScore)
	if err != nil {
		return err
	}

	repo, err := openRepo(*tablePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := service.NewQueryService(repo, cfg.Query.DefaultMinScore)

	out := os.Stdout
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return fmt.Errorf("%w: create %s: %v", domain.ErrIO, *csvPath, err)
		}
		defer f.Close()
		out = f
	}

	n, err := svc.ExportCSV(ctx, *protein, filter, out)
	if err != nil {
		return err
	}

	log.Printf("Found %d pairs involving %s", n, *protein)
	return nil
}

func runStats(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	tablePath := fs.String("table-path", cfg.Database.Path, "SQLite pair table path")
	fs.Parse(args)

	repo, err := openRepo(*tablePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := service.NewQueryService(repo, cfg.Query.DefaultMinScore)
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("total_pairs:     %d\n", stats.TotalPairs)
	fmt.Printf("unique_proteins: %d\n", stats.UniqueProteins)
	fmt.Printf("min_score:       %d\n", stats.MinScore)
	fmt.Printf("max_score:       %d\n", stats.MaxScore)
	fmt.Printf("mean_score:      %.2f\n", stats.MeanScore)

	if stats.TotalPairs > 0 {
		sample, err := svc.SampleProtein(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("sample_protein:  %s\n", sample)
	}
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	tablePath := fs.String("table-path", cfg.Database.Path, "SQLite pair table path")
	pattern := fs.String("pattern", "", "SQL LIKE pattern, %% as wildcard (required)")
	fs.Parse(args)

	repo, err := openRepo(*tablePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	proteins, err := service.NewQueryService(repo, cfg.Query.DefaultMinScore).SearchProteins(ctx, *pattern)
	if err != nil {
		return err
	}

	for _, p := range proteins {
		fmt.Println(p)
	}
	log.Printf("Found %d proteins matching %q", len(proteins), *pattern)
	return nil
}

// parseFilter converts CLI threshold strings into a score filter.
// Non-numeric thresholds are query errors per the error taxonomy.
func parseFilter(minScore, maxScore string) (domain.ScoreFilter, error) {
	var filter domain.ScoreFilter
	if minScore != "" {
		v, err := strconv.Atoi(minScore)
		if err != nil {
			return filter, fmt.Errorf("%w: min score %q is not an integer", domain.ErrQuery, minScore)
		}
		filter.Min = &v
	}
	if maxScore != "" {
		v, err := strconv.Atoi(maxScore)
		if err != nil {
			return filter, fmt.Errorf("%w: max score %q is not an integer", domain.ErrQuery, maxScore)
		}
		filter.Max = &v
	}
	return filter, nil
}
