package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

// EntryDTO is the wire form of a stored entry. List and mapping fields are
// always present, never null.
type EntryDTO struct {
	ID               int64                 `json:"id"`
	Timestamp        string                `json:"timestamp"`
	PatientID        string                `json:"patient_id"`
	Transcript       string                `json:"transcript"`
	MedicationsTaken []extract.Medication  `json:"medications_taken"`
	Symptoms         []extract.Symptom     `json:"symptoms"`
	SideEffects      []extract.SideEffect  `json:"side_effects"`
	QualityOfLife    extract.QualityOfLife `json:"quality_of_life"`
	AdherenceStatus  string                `json:"adherence_status"`
	ClinicalSummary  string                `json:"clinical_summary"`
	RawPayload       json.RawMessage       `json:"raw_payload,omitempty"`
}

func toDTO(e store.Entry) EntryDTO {
	return EntryDTO{
		ID:               e.ID,
		Timestamp:        e.Timestamp.UTC().Format(time.RFC3339),
		PatientID:        e.PatientID,
		Transcript:       e.Transcript,
		MedicationsTaken: e.MedicationsTaken,
		Symptoms:         e.Symptoms,
		SideEffects:      e.SideEffects,
		QualityOfLife:    e.QualityOfLife,
		AdherenceStatus:  e.AdherenceStatus,
		ClinicalSummary:  e.ClinicalSummary,
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListAll(r.Context())
	if err != nil {
		s.logger.Error("list entries failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error", "message": "failed to list entries",
		})
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toDTO(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(dtos),
		"entries": dtos,
	})
}
