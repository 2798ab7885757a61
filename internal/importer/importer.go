// Package importer loads a bulk check-in dataset into the store. Datasets
// carry trial metadata plus pre-extracted entries with their own timestamps,
// so each insert is followed by a timestamp override.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

// TrialInfo describes the trial a dataset belongs to.
type TrialInfo struct {
	TrialID        string `json:"trial_id"`
	TrialName      string `json:"trial_name"`
	PatientID      string `json:"patient_id"`
	PatientName    string `json:"patient_name"`
	Site           string `json:"site"`
	EnrollmentDate string `json:"enrollment_date"`
}

type dataset struct {
	TrialInfo TrialInfo         `json:"trial_info"`
	Entries   []json.RawMessage `json:"entries"`
}

type datasetEntry struct {
	Timestamp        string                `json:"timestamp"`
	Transcript       string                `json:"transcript"`
	MedicationsTaken []extract.Medication  `json:"medications_taken"`
	Symptoms         []extract.Symptom     `json:"symptoms"`
	SideEffects      []extract.SideEffect  `json:"side_effects"`
	QualityOfLife    extract.QualityOfLife `json:"quality_of_life"`
	AdherenceStatus  string                `json:"adherence_status"`
	ClinicalSummary  string                `json:"clinical_summary"`
}

// Result summarizes a completed import.
type Result struct {
	Trial    TrialInfo
	Imported int
}

// Load reads a dataset and inserts every entry under the dataset's patient.
// Each raw entry object is persisted verbatim as the entry's payload.
func Load(ctx context.Context, st store.Store, r io.Reader, logger *slog.Logger) (*Result, error) {
	var ds dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	if ds.TrialInfo.PatientID == "" {
		return nil, fmt.Errorf("dataset has no trial_info.patient_id")
	}

	logger.Info("importing dataset",
		"trial", ds.TrialInfo.TrialName,
		"patient_id", ds.TrialInfo.PatientID,
		"entries", len(ds.Entries),
	)

	for i, raw := range ds.Entries {
		var de datasetEntry
		if err := json.Unmarshal(raw, &de); err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", i+1, err)
		}

		ts, err := parseTimestamp(de.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		ex := extract.Extraction{
			MedicationsTaken: de.MedicationsTaken,
			Symptoms:         de.Symptoms,
			SideEffects:      de.SideEffects,
			QualityOfLife:    de.QualityOfLife,
			AdherenceStatus:  de.AdherenceStatus,
			ClinicalSummary:  de.ClinicalSummary,
		}
		ex.Normalize()

		entry, err := st.Insert(ctx, store.NewEntry{
			PatientID:  ds.TrialInfo.PatientID,
			Transcript: de.Transcript,
			Extraction: ex,
			RawPayload: raw,
		})
		if err != nil {
			return nil, fmt.Errorf("inserting entry %d: %w", i+1, err)
		}
		if err := st.OverrideTimestamp(ctx, entry.ID, ts); err != nil {
			return nil, fmt.Errorf("setting timestamp on entry %d: %w", i+1, err)
		}

		logger.Debug("imported entry", "n", i+1, "entry_id", entry.ID, "timestamp", ts)
	}

	return &Result{Trial: ds.TrialInfo, Imported: len(ds.Entries)}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("entry has no timestamp")
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	// Datasets exported without a zone offset are treated as UTC.
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
