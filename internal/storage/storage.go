package storage

import (
	"context"
	"encoding/json"
	"time"
)

// RunRecord is the archived outcome of a single pipeline run.
type RunRecord struct {
	ID             string
	Niche          string
	Platform       string
	Audience       string
	Goal           string
	Failed         bool
	Error          string // non-empty when the run stopped on a fatal error
	ElapsedSeconds float64
	ResearchCount  int
	GapsFound      int
	Result         json.RawMessage // the serialized pipeline result, partial on failure
	CreatedAt      time.Time
}

// Payload returns the serialized result, or a JSON null when none was recorded.
func (r *RunRecord) Payload() []byte {
	if len(r.Result) == 0 {
		return []byte("null")
	}
	return r.Result
}

// Filter allows querying for specific RunRecords.
type Filter struct {
	Niche    string
	Platform string
	Failed   *bool
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the interface for storing and querying run records.
type Backend interface {
	Save(ctx context.Context, record *RunRecord) error
	Query(ctx context.Context, filter Filter) ([]*RunRecord, error)
	Close() error
}
