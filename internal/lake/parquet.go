package lake

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

type columnKind int

const (
	kindString columnKind = iota
	kindNumber
	kindBool
	kindTimestamp
)

// writeParquet persists records as a parquet file with a schema
// inferred from the batch's columns. Every field is optional since
// records from heterogeneous sources rarely share all keys.
func writeParquet(path string, records []model.Record) error {
	columns := unionColumns(records)
	kinds := make(map[string]columnKind, len(columns))
	group := parquet.Group{}

	for _, col := range columns {
		kind := inferColumnKind(records, col)
		kinds[col] = kind
		group[col] = parquet.Optional(nodeForKind(kind))
	}

	schema := parquet.NewSchema("records", group)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[map[string]any](file, schema)
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = parquetRow(rec, kinds)
	}

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// inferColumnKind picks the narrowest kind every non-nil value in the
// column fits; mixed columns degrade to string
func inferColumnKind(records []model.Record, col string) columnKind {
	kind := columnKind(-1)
	for _, rec := range records {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}

		var current columnKind
		switch v.(type) {
		case time.Time:
			current = kindTimestamp
		case bool:
			current = kindBool
		case int, int32, int64, float32, float64:
			current = kindNumber
		default:
			current = kindString
		}

		if kind == columnKind(-1) {
			kind = current
		} else if kind != current {
			return kindString
		}
	}
	if kind == columnKind(-1) {
		return kindString
	}
	return kind
}

func nodeForKind(kind columnKind) parquet.Node {
	switch kind {
	case kindNumber:
		return parquet.Leaf(parquet.DoubleType)
	case kindBool:
		return parquet.Leaf(parquet.BooleanType)
	case kindTimestamp:
		return parquet.Timestamp(parquet.Millisecond)
	default:
		return parquet.String()
	}
}

// parquetRow coerces values to their column's declared kind
func parquetRow(rec model.Record, kinds map[string]columnKind) map[string]any {
	row := make(map[string]any, len(rec))
	for col, v := range rec {
		if v == nil {
			continue
		}
		switch kinds[col] {
		case kindNumber:
			if n, ok := utils.AsNumber(v); ok {
				row[col] = n
			}
		case kindBool, kindTimestamp:
			row[col] = v
		default:
			row[col] = fmt.Sprintf("%v", v)
		}
	}
	return row
}
