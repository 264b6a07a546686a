// Package records defines the flat candidate records harvested from remote
// configuration and the per-kind batches a run accumulates before reconciliation.
package records

import (
	"time"
)

// Kind identifies the entity kind of a record and therefore its target table.
type Kind string

const (
	// KindServiceLayer is one dataset backing a published map service
	KindServiceLayer Kind = "service_layer"
	// KindMap is one map.apps application
	KindMap Kind = "map"
	// KindSearchStore is one search store configured in an application
	KindSearchStore Kind = "search_store"
	// KindBasemap is one basemap configured in an application
	KindBasemap Kind = "basemap"
	// KindMapServiceReference is one operational layer referencing a map service
	KindMapServiceReference Kind = "map_service_reference"
)

// ApplicationKinds lists the kinds produced by the application report, in reconciliation order.
var ApplicationKinds = []Kind{KindMap, KindSearchStore, KindBasemap, KindMapServiceReference}

// Fields present on every record.
const (
	FieldEnvironment   = "env"
	FieldReferenceDate = "reference_date"
)

// Record maps normalized column names to scalar or slice values. A nil value is stored as NULL.
type Record map[string]any

// New returns a record stamped with environment and reference date.
func New(env string, referenceDate time.Time) Record {
	return Record{
		FieldEnvironment:   env,
		FieldReferenceDate: referenceDate,
	}
}

// String returns the value of key when it holds a non-empty string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// ReferenceDate truncates t to its calendar day. Dates are compared by their
// year, month and day only, so the result is expressed in UTC.
func ReferenceDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Batch holds the records of one kind gathered by one run for one environment.
type Batch struct {
	Kind          Kind
	Env           string
	ReferenceDate time.Time
	Records       []Record
}

// NewBatch returns an empty batch for kind.
func NewBatch(kind Kind, env string, referenceDate time.Time) *Batch {
	return &Batch{
		Kind:          kind,
		Env:           env,
		ReferenceDate: referenceDate,
	}
}

// Add appends records to the batch.
func (b *Batch) Add(recs ...Record) {
	b.Records = append(b.Records, recs...)
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	return len(b.Records)
}

// Empty reports whether the batch holds no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}
