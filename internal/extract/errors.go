package extract

import (
	"errors"
	"fmt"

	"go-datalake-etl/internal/model"
)

var (
	// ErrNotConfigured is returned when a fetch targets a source the
	// extractor was not constructed with
	ErrNotConfigured = errors.New("source not configured")

	// ErrUnsupportedFormat is returned for unknown file kinds
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ExtractionError wraps a transport or driver failure and tags it with
// the source it came from
type ExtractionError struct {
	Source model.SourceDescriptor
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction from %s failed: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionErr(source model.SourceDescriptor, err error) *ExtractionError {
	return &ExtractionError{Source: source, Err: err}
}
