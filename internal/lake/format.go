package lake

import (
	"errors"
	"fmt"
)

// Format is the closed set of supported output formats. Every switch
// over it is exhaustive, so adding or removing a format is a
// compile-time-checked change.
type Format string

const (
	FormatParquet   Format = "parquet"
	FormatJSONLines Format = "jsonl"
	FormatCSV       Format = "csv"
)

// ErrUnsupportedFormat is returned for formats outside the closed set;
// nothing is written in that case
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat validates a format name from configuration
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatParquet, FormatJSONLines, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension for the format
func (f Format) Ext() string {
	return string(f)
}
