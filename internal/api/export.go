package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/triallog/triallog/internal/report"
)

// exportReport serves the per-patient trial report: aggregate stats as JSON,
// or the rendered PDF when ?format=pdf.
func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	entries, err := s.store.ListByPatient(r.Context(), patientID)
	if err != nil {
		s.logger.Error("export list failed", "patient_id", patientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error", "message": "failed to load entries",
		})
		return
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status": "error", "message": "no entries for patient " + patientID,
		})
		return
	}

	stats := report.Compute(patientID, entries)

	if r.URL.Query().Get("format") == "pdf" {
		pdf, err := report.RenderPDF(stats, entries)
		if err != nil {
			s.logger.Error("report render failed", "patient_id", patientID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "error", "message": "failed to render report",
			})
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="trial-report-%s.pdf"`, patientID))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
