package report

import (
	"time"

	"github.com/triallog/triallog/internal/store"
)

// Stats are the aggregate figures for one patient's stored entries.
type Stats struct {
	PatientID             string    `json:"patient_id"`
	TotalEntries          int       `json:"total_entries"`
	EntriesWithMedication int       `json:"entries_with_medication"`
	TotalSymptoms         int       `json:"total_symptoms"`
	EnrollmentDays        int       `json:"enrollment_days"`
	FirstEntry            time.Time `json:"first_entry"`
	LastEntry             time.Time `json:"last_entry"`
}

// Compute derives stats from a patient's entries. Entries are expected
// newest-first, as the store returns them; an empty slice yields zero stats.
func Compute(patientID string, entries []store.Entry) Stats {
	st := Stats{PatientID: patientID, TotalEntries: len(entries)}
	if len(entries) == 0 {
		return st
	}

	for _, e := range entries {
		if len(e.MedicationsTaken) > 0 {
			st.EntriesWithMedication++
		}
		st.TotalSymptoms += len(e.Symptoms)
	}

	st.LastEntry = entries[0].Timestamp
	st.FirstEntry = entries[len(entries)-1].Timestamp
	st.EnrollmentDays = int(st.LastEntry.Sub(st.FirstEntry).Hours() / 24)
	return st
}
