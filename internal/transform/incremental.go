package transform

import (
	"errors"
	"fmt"
	"time"

	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

// ErrMissingTrackingField is returned when a configured tracking field
// is absent from the batch
var ErrMissingTrackingField = errors.New("missing tracking field")

// IncrementalLoad records the max watermark timestamp and the distinct
// id list over the batch, for change tracking between loads
type IncrementalLoad struct {
	IDField        string
	TimestampField string
}

func (IncrementalLoad) Name() string { return "incremental_load" }

func (s IncrementalLoad) Apply(batch *model.TransformedBatch) error {
	if !batch.HasColumn(s.IDField) {
		return fmt.Errorf("%w: %s", ErrMissingTrackingField, s.IDField)
	}
	if !batch.HasColumn(s.TimestampField) {
		return fmt.Errorf("%w: %s", ErrMissingTrackingField, s.TimestampField)
	}

	var maxTS time.Time
	var maxRaw interface{}
	seen := make(map[string]bool)
	var ids []interface{}

	for _, rec := range batch.Records {
		if id, ok := rec[s.IDField]; ok && id != nil {
			key := fmt.Sprintf("%v", id)
			if !seen[key] {
				seen[key] = true
				ids = append(ids, id)
			}
		}

		v, ok := rec[s.TimestampField]
		if !ok || v == nil {
			continue
		}
		if ts, ok := utils.TryTimestamp(v); ok {
			if ts.After(maxTS) {
				maxTS = ts
				maxRaw = v
			}
		} else if maxRaw == nil {
			// unparseable watermark values fall back to their raw form
			maxRaw = v
		}
	}

	tracking := &model.IncrementalTracking{RecordIDs: ids}
	if !maxTS.IsZero() {
		tracking.MaxTimestamp = maxTS.UTC().Format(time.RFC3339)
	} else if maxRaw != nil {
		tracking.MaxTimestamp = fmt.Sprintf("%v", maxRaw)
	}

	batch.Metadata.IncrementalTracking = tracking
	return nil
}
