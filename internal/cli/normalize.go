package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"go-datalake-etl/internal/config"
	"go-datalake-etl/internal/model"
	"go-datalake-etl/internal/normalize"
)

func newNormalizeCmd() *cobra.Command {
	var inputFile string
	var outputFile string
	var batchSize int

	normalizeCmd := &cobra.Command{
		Use:   "normalize",
		Short: "Bulk-normalize externally sourced records in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(inputFile, outputFile, batchSize)
		},
	}

	normalizeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "JSON file with raw records (fetched from the records API when omitted)")
	normalizeCmd.Flags().StringVarP(&outputFile, "output", "o", "normalized.json", "Where to write the normalized records")
	normalizeCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Records per worker chunk")

	return normalizeCmd
}

func runNormalize(inputFile, outputFile string, batchSize int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = cfg.ChunkSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var records []model.Record
	if inputFile != "" {
		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			return fmt.Errorf("failed to decode input records: %w", err)
		}
	} else {
		if cfg.RecordsAPIURL == "" {
			return fmt.Errorf("no --input file and ETL_RECORDS_API_URL not set")
		}
		client := normalize.NewClient(cfg.RecordsAPIURL, cfg.RecordsAPISecret)
		records, err = client.FetchRecords(ctx, "/candidates")
		if err != nil {
			return err
		}
	}

	normalizer := normalize.New(cfg.Workers)
	fmt.Printf("🔄 Normalizing %d records (%d workers, chunks of %d)\n", len(records), normalizer.Workers, batchSize)

	start := time.Now()
	results, err := normalizer.Normalize(ctx, records, batchSize)
	if err != nil {
		return err
	}

	failures := 0
	for _, r := range results {
		if r.Failed() {
			failures++
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	fmt.Printf("✅ Normalized %d records (%d failures) in %v -> %s\n",
		len(results)-failures, failures, time.Since(start), outputFile)
	return nil
}
