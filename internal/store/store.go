package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/triallog/triallog/internal/extract"
)

// Entry is one persisted check-in. Fields are immutable after insert except
// the documented timestamp override used by bulk historical import.
type Entry struct {
	ID               int64
	Timestamp        time.Time
	PatientID        string
	Transcript       string
	MedicationsTaken []extract.Medication
	Symptoms         []extract.Symptom
	SideEffects      []extract.SideEffect
	QualityOfLife    extract.QualityOfLife
	AdherenceStatus  string
	ClinicalSummary  string
	RawPayload       json.RawMessage
}

// NewEntry carries the fields the caller supplies; id and timestamp are
// assigned by the store.
type NewEntry struct {
	PatientID  string
	Transcript string
	Extraction extract.Extraction
	RawPayload json.RawMessage
}

// Store persists clinical entries. Each operation is an independent unit of
// work: Insert is durable before it returns, and concurrent operations never
// observe a half-written row.
type Store interface {
	Insert(ctx context.Context, e NewEntry) (*Entry, error)
	// ListAll returns every entry ordered by timestamp descending.
	ListAll(ctx context.Context) ([]Entry, error)
	ListByPatient(ctx context.Context, patientID string) ([]Entry, error)
	// OverrideTimestamp rewrites a single entry's timestamp. Bulk historical
	// import only; no other field is mutable.
	OverrideTimestamp(ctx context.Context, id int64, ts time.Time) error
	Close() error
}

// normalizeNew fills empty defaults so no row is ever written with nulls.
func normalizeNew(e *NewEntry) {
	e.Extraction.Normalize()
	if len(e.RawPayload) == 0 {
		e.RawPayload = json.RawMessage(`{}`)
	}
}
