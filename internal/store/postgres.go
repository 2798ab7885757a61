package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the service when DATABASE_URL is set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clinical_entries (
			id                BIGSERIAL PRIMARY KEY,
			ts                TIMESTAMPTZ NOT NULL DEFAULT now(),
			patient_id        TEXT NOT NULL,
			transcript        TEXT NOT NULL,
			medications_taken JSONB NOT NULL DEFAULT '[]',
			symptoms          JSONB NOT NULL DEFAULT '[]',
			side_effects      JSONB NOT NULL DEFAULT '[]',
			quality_of_life   JSONB NOT NULL DEFAULT '{}',
			adherence_status  TEXT NOT NULL DEFAULT 'unknown',
			clinical_summary  TEXT NOT NULL DEFAULT '',
			raw_payload       TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_entries_ts ON clinical_entries(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_entries_patient ON clinical_entries(patient_id);
	`)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, e NewEntry) (*Entry, error) {
	normalizeNew(&e)

	meds, _ := json.Marshal(e.Extraction.MedicationsTaken)
	symptoms, _ := json.Marshal(e.Extraction.Symptoms)
	sideEffects, _ := json.Marshal(e.Extraction.SideEffects)
	qol, _ := json.Marshal(e.Extraction.QualityOfLife)

	var id int64
	var ts time.Time
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clinical_entries
			(patient_id, transcript, medications_taken, symptoms, side_effects,
			 quality_of_life, adherence_status, clinical_summary, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, ts`,
		e.PatientID, e.Transcript, string(meds), string(symptoms), string(sideEffects),
		string(qol), e.Extraction.AdherenceStatus, e.Extraction.ClinicalSummary,
		string(e.RawPayload),
	).Scan(&id, &ts)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return &Entry{
		ID:               id,
		Timestamp:        ts.UTC(),
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

const pgSelectCols = `
	id, ts, patient_id, transcript, medications_taken::text, symptoms::text,
	side_effects::text, quality_of_life::text, adherence_status, clinical_summary, raw_payload`

func (s *PostgresStore) ListAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgSelectCols+`
		FROM clinical_entries
		ORDER BY ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanPGEntries(rows)
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgSelectCols+`
		FROM clinical_entries
		WHERE patient_id = $1
		ORDER BY ts DESC, id DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", patientID, err)
	}
	defer rows.Close()
	return scanPGEntries(rows)
}

func (s *PostgresStore) OverrideTimestamp(ctx context.Context, id int64, ts time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clinical_entries SET ts = $1 WHERE id = $2`, ts.UTC(), id)
	if err != nil {
		return fmt.Errorf("override timestamp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d not found", id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPGEntries(rows pgx.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var ts time.Time
		var meds, symptoms, sideEffects, qol, raw string
		if err := rows.Scan(
			&e.ID, &ts, &e.PatientID, &e.Transcript, &meds, &symptoms,
			&sideEffects, &qol, &e.AdherenceStatus, &e.ClinicalSummary, &raw,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = ts.UTC()
		decodeEntryJSON(&e, meds, symptoms, sideEffects, qol)
		e.RawPayload = json.RawMessage(raw)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*PostgresStore)(nil)
