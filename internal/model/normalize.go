package model

// NormalizedRecord is one element of the batch normalizer's output:
// either a cleaned record, or a failure marker carrying the error and
// the untouched input so a bad record never discards its batch.
type NormalizedRecord struct {
	Record       Record      `json:"record,omitempty"`
	ID           interface{} `json:"id,omitempty"`
	Error        string      `json:"error,omitempty"`
	OriginalData Record      `json:"originalData,omitempty"`
}

// Failed reports whether this entry is a failure marker
func (r NormalizedRecord) Failed() bool {
	return r.Error != ""
}
