package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/triallog/triallog/internal/extract"
)

// SQLiteStore is the default embedded store. Timestamps are stored as UTC
// unix nanoseconds so descending order is exact regardless of precision.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clinical_entries (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		ts_unix_ns        INTEGER NOT NULL,
		patient_id        TEXT NOT NULL,
		transcript        TEXT NOT NULL,
		medications_taken TEXT NOT NULL DEFAULT '[]',
		symptoms          TEXT NOT NULL DEFAULT '[]',
		side_effects      TEXT NOT NULL DEFAULT '[]',
		quality_of_life   TEXT NOT NULL DEFAULT '{}',
		adherence_status  TEXT NOT NULL DEFAULT 'unknown',
		clinical_summary  TEXT NOT NULL DEFAULT '',
		raw_payload       TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_entries_ts ON clinical_entries(ts_unix_ns DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_patient ON clinical_entries(patient_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, e NewEntry) (*Entry, error) {
	normalizeNew(&e)
	now := time.Now().UTC()

	meds, _ := json.Marshal(e.Extraction.MedicationsTaken)
	symptoms, _ := json.Marshal(e.Extraction.Symptoms)
	sideEffects, _ := json.Marshal(e.Extraction.SideEffects)
	qol, _ := json.Marshal(e.Extraction.QualityOfLife)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clinical_entries
			(ts_unix_ns, patient_id, transcript, medications_taken, symptoms,
			 side_effects, quality_of_life, adherence_status, clinical_summary, raw_payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now.UnixNano(), e.PatientID, e.Transcript, string(meds), string(symptoms),
		string(sideEffects), string(qol), e.Extraction.AdherenceStatus,
		e.Extraction.ClinicalSummary, string(e.RawPayload),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("entry id: %w", err)
	}

	return &Entry{
		ID:               id,
		Timestamp:        now,
		PatientID:        e.PatientID,
		Transcript:       e.Transcript,
		MedicationsTaken: e.Extraction.MedicationsTaken,
		Symptoms:         e.Extraction.Symptoms,
		SideEffects:      e.Extraction.SideEffects,
		QualityOfLife:    e.Extraction.QualityOfLife,
		AdherenceStatus:  e.Extraction.AdherenceStatus,
		ClinicalSummary:  e.Extraction.ClinicalSummary,
		RawPayload:       e.RawPayload,
	}, nil
}

const sqliteSelectCols = `
	id, ts_unix_ns, patient_id, transcript, medications_taken, symptoms,
	side_effects, quality_of_life, adherence_status, clinical_summary, raw_payload`

func (s *SQLiteStore) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteSelectCols+`
		FROM clinical_entries
		ORDER BY ts_unix_ns DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteSelectCols+`
		FROM clinical_entries
		WHERE patient_id = ?
		ORDER BY ts_unix_ns DESC, id DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", patientID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) OverrideTimestamp(ctx context.Context, id int64, ts time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clinical_entries SET ts_unix_ns = ? WHERE id = ?`,
		ts.UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("override timestamp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d not found", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var tsNS int64
		var meds, symptoms, sideEffects, qol, raw string
		if err := rows.Scan(
			&e.ID, &tsNS, &e.PatientID, &e.Transcript, &meds, &symptoms,
			&sideEffects, &qol, &e.AdherenceStatus, &e.ClinicalSummary, &raw,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = time.Unix(0, tsNS).UTC()
		decodeEntryJSON(&e, meds, symptoms, sideEffects, qol)
		e.RawPayload = json.RawMessage(raw)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// decodeEntryJSON unpacks the JSON columns, falling back to empty values so
// readers never see nil lists.
func decodeEntryJSON(e *Entry, meds, symptoms, sideEffects, qol string) {
	e.MedicationsTaken = []extract.Medication{}
	e.Symptoms = []extract.Symptom{}
	e.SideEffects = []extract.SideEffect{}
	_ = json.Unmarshal([]byte(meds), &e.MedicationsTaken)
	_ = json.Unmarshal([]byte(symptoms), &e.Symptoms)
	_ = json.Unmarshal([]byte(sideEffects), &e.SideEffects)
	_ = json.Unmarshal([]byte(qol), &e.QualityOfLife)
	if e.MedicationsTaken == nil {
		e.MedicationsTaken = []extract.Medication{}
	}
	if e.Symptoms == nil {
		e.Symptoms = []extract.Symptom{}
	}
	if e.SideEffects == nil {
		e.SideEffects = []extract.SideEffect{}
	}
	if e.AdherenceStatus == "" {
		e.AdherenceStatus = extract.AdherenceUnknown
	}
}
