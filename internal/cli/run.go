package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-datalake-etl/internal/config"
	"go-datalake-etl/internal/extract"
	"go-datalake-etl/internal/lake"
	"go-datalake-etl/internal/model"
	"go-datalake-etl/internal/store"
	"go-datalake-etl/internal/transform"
)

func newRunCmd() *cobra.Command {
	var jobFile string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an ETL job defined in a YAML job file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(jobFile)
		},
	}

	runCmd.Flags().StringVarP(&jobFile, "job", "j", "", "Path to the YAML job file")
	runCmd.MarkFlagRequired("job")

	return runCmd
}

func runJob(jobFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	job, err := config.LoadJob(jobFile)
	if err != nil {
		return fmt.Errorf("failed to load job file: %w", err)
	}

	formatName := job.Sink.Format
	if formatName == "" {
		formatName = cfg.OutputFormat
	}
	format, err := lake.ParseFormat(formatName)
	if err != nil {
		return err
	}

	extractorCfg := extract.Config{
		Timeout:     15 * time.Second,
		ESAddresses: cfg.ESAddresses,
		ESUsername:  cfg.ESUsername,
		ESPassword:  cfg.ESPassword,
		AuthToken:   cfg.APIToken,
	}
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("sqlite3", cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		extractorCfg.Database = db
	}

	extractor, err := extract.New(extractorCfg)
	if err != nil {
		return err
	}
	defer extractor.Close()

	if err := store.Init(cfg.RegistryPath); err != nil {
		return fmt.Errorf("failed to open provenance registry: %w", err)
	}
	defer store.Close()

	transformer := transform.New(extractor, transform.BuildStages(job.Stages)...)
	sink := lake.NewSink(cfg.StorageRoot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	fmt.Printf("🚀 Starting ETL job: %s (%d sources)\n", jobFile, len(job.Sources))

	for _, src := range job.Sources {
		if err := runSource(ctx, src, extractor, transformer, sink, format, job.Sink.PartitionColumns); err != nil {
			return err
		}
	}

	fmt.Printf("🏁 Job completed in %v\n", time.Since(start))
	return nil
}

// findExisting consults the provenance registry for a payload with the
// same content hash. A registry error is logged and treated as a miss
// so a broken registry degrades dedup instead of silently disabling it.
func findExisting(contentHash string) (string, bool) {
	existing, found, err := store.FindByHash(contentHash)
	if err != nil {
		log.Printf("provenance registry lookup failed: %v", err)
		return "", false
	}
	return existing, found
}

func runSource(ctx context.Context, src model.SourceSpec, extractor *extract.Extractor, transformer *transform.Transformer, sink *lake.Sink, format lake.Format, partitions []string) error {
	fmt.Printf("➡️ Extracting source: %s\n", src.Type)

	var batch *model.TransformedBatch
	var err error

	switch src.Type {
	case "api":
		query := url.Values{}
		for k, v := range src.Params {
			query.Set(k, v)
		}
		batch, err = transformer.TransformAPIData(ctx, src.BaseURL, src.Endpoint, query, src.Headers, nil)
	case "database":
		batch, err = transformer.TransformDatabaseData(ctx, src.Label, src.Query)
	case "file":
		batch, err = transformer.TransformFileData(ctx, src.Path, src.Kind)
	case "search":
		batch, err = transformer.TransformSearchData(ctx, src.Index, src.Body, src.MaxResults)
	case "fhir":
		medical := &extract.MedicalExtractor{Extractor: extractor, BaseURL: src.BaseURL}
		params := url.Values{}
		for k, v := range src.Params {
			params.Set(k, v)
		}
		var raw model.RawPayload
		raw, err = medical.FetchFHIR(ctx, src.Resource, params)
		if err == nil {
			batch, err = transformer.TransformPayload(raw)
		}
	default:
		return fmt.Errorf("unknown source type: %s", src.Type)
	}
	if err != nil {
		return err
	}

	// identical payloads were already persisted; skip them
	if existing, found := findExisting(batch.Metadata.DataHash); found {
		fmt.Printf("⏭️ Skipping %s: identical payload already saved at %s\n", batch.Metadata.SourceSystem, existing)
		return nil
	}

	artifact, err := sink.Save(batch, format, partitions)
	if err != nil {
		return err
	}

	if err := store.RecordArtifact(uuid.NewString(), batch.Metadata.SourceSystem, batch.Metadata.DataHash, artifact, len(batch.Records)); err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	fmt.Printf("✅ Saved %d records: %s\n", len(batch.Records), artifact.DataPath)
	return nil
}
