package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/triallog/triallog/internal/events"
	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

const maxPayloadBytes = 1 << 20

type webhookResponse struct {
	Status    string              `json:"status"`
	Message   string              `json:"message,omitempty"`
	Extracted *extract.Extraction `json:"extracted,omitempty"`
	EntryID   int64               `json:"entry_id,omitempty"`
}

// handleWebhook ingests one device delivery: resolve the transcript, run the
// configured extraction strategy, persist, acknowledge. Deliveries without
// speech (heartbeats, non-speech events) are acknowledged without a write.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if source == "" {
		source = "test"
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, webhookResponse{
			Status: "error", Message: "failed to read request body",
		})
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{
			Status: "error", Message: "invalid JSON payload",
		})
		return
	}

	transcript, rule := resolveTranscript(payload)
	if transcript == "" {
		s.logger.Info("no transcript in payload", "source", source)
		writeJSON(w, http.StatusOK, webhookResponse{
			Status: "ok", Message: "No transcript found",
		})
		return
	}

	traceID := uuid.New().String()
	s.logger.Info("processing check-in",
		"source", source,
		"rule", rule,
		"trace_id", traceID,
		"transcript_len", len(transcript),
	)

	extracted := s.strategy.Extract(r.Context(), transcript)

	entry, err := s.store.Insert(r.Context(), store.NewEntry{
		PatientID:  s.patientID,
		Transcript: transcript,
		Extraction: extracted,
		RawPayload: body,
	})
	if err != nil {
		s.logger.Error("failed to store entry", "trace_id", traceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{
			Status: "error", Message: "failed to store entry",
		})
		return
	}

	if err := s.publisher.EntryStored(events.EntryStoredEvent{
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
		Source:    source,
		TraceID:   traceID,
		Timestamp: entry.Timestamp.Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("failed to publish entry event", "trace_id", traceID, "error", err)
	}

	s.logger.Info("check-in stored",
		"trace_id", traceID,
		"entry_id", entry.ID,
		"symptoms", len(extracted.Symptoms),
		"medications", len(extracted.MedicationsTaken),
	)

	writeJSON(w, http.StatusOK, webhookResponse{
		Status:    "success",
		Message:   "Clinical data processed",
		Extracted: &extracted,
		EntryID:   entry.ID,
	})
}
