package lake

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go-datalake-etl/internal/model"
)

// ErrPartitionColumn is returned when a requested partition column is
// absent from the batch
var ErrPartitionColumn = errors.New("partition column not present in batch")

const metadataFileName = "metadata.json"

// Sink persists transformed batches into a data-lake layout under Root:
// <root>/<sanitized source>/<partitions or timestamp>/data.<ext>, with
// the metadata sidecar always next to the data file.
type Sink struct {
	Root string
}

// NewSink creates a sink rooted at the given storage path
func NewSink(root string) *Sink {
	return &Sink{Root: root}
}

// Save writes the batch in the given format. When partitionColumns are
// supplied the path embeds col=value segments taken from the first row
// carrying each column, and those columns are dropped from the
// persisted payload. A batch whose partition values vary across rows
// still lands in a single path; callers must pre-partition batches that
// span values.
func (s *Sink) Save(batch *model.TransformedBatch, format Format, partitionColumns []string) (model.SavedArtifact, error) {
	switch format {
	case FormatParquet, FormatJSONLines, FormatCSV:
	default:
		return model.SavedArtifact{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	records := batch.Records
	dir := filepath.Join(s.Root, sanitizeName(batch.Metadata.SourceSystem))

	if len(partitionColumns) > 0 {
		for _, col := range partitionColumns {
			value, ok := partitionValue(records, col)
			if !ok {
				return model.SavedArtifact{}, fmt.Errorf("%w: %s", ErrPartitionColumn, col)
			}
			dir = filepath.Join(dir, fmt.Sprintf("%s=%v", col, value))
		}
		records = dropColumns(records, partitionColumns)
	} else {
		dir = filepath.Join(dir, time.Now().UTC().Format("20060102_150405"))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return model.SavedArtifact{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	dataPath := filepath.Join(dir, "data."+format.Ext())
	var err error
	switch format {
	case FormatParquet:
		err = writeParquet(dataPath, records)
	case FormatJSONLines:
		err = writeJSONLines(dataPath, records)
	case FormatCSV:
		err = writeCSV(dataPath, records)
	}
	if err != nil {
		return model.SavedArtifact{}, fmt.Errorf("failed to write data file: %w", err)
	}

	// the sidecar goes in only after the data file succeeded; a data
	// file without its sidecar is the recoverable-inconsistent state
	// callers retry on
	metadataPath := filepath.Join(dir, metadataFileName)
	if err := writeMetadata(metadataPath, batch.Metadata); err != nil {
		return model.SavedArtifact{}, fmt.Errorf("failed to write metadata sidecar: %w", err)
	}

	log.Printf("💾 saved %d records to %s", len(records), dataPath)
	return model.SavedArtifact{DataPath: dataPath, MetadataPath: metadataPath}, nil
}

// sanitizeName derives a filesystem-safe name from a source descriptor
func sanitizeName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// partitionValue returns the column's value from the first row that
// carries it, so a leading row missing the column never produces a
// nil path segment
func partitionValue(records []model.Record, col string) (interface{}, bool) {
	for _, rec := range records {
		if v, ok := rec[col]; ok {
			return v, true
		}
	}
	return nil, false
}

func dropColumns(records []model.Record, columns []string) []model.Record {
	out := make([]model.Record, len(records))
	for i, rec := range records {
		clone := rec.Clone()
		for _, col := range columns {
			delete(clone, col)
		}
		out[i] = clone
	}
	return out
}

func writeJSONLines(path string, records []model.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, records []model.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := unionColumns(records)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := make([]string, len(header))
		for i, col := range header {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeMetadata(path string, metadata *model.Metadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(metadata)
}

// unionColumns returns all field names across records, sorted for a
// stable column order
func unionColumns(records []model.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
