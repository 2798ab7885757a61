package extract

import "context"

// Strategy converts a raw check-in transcript into a structured extraction.
// Extract is a total function: implementations absorb every internal failure
// and report it through the extraction itself (ClinicalSummary carries the
// diagnostic, AdherenceStatus is "unknown", all lists empty).
type Strategy interface {
	Name() string
	Extract(ctx context.Context, transcript string) Extraction
}

// Medication is one medication the patient reported taking.
type Medication struct {
	Name string `json:"name"`
	Time string `json:"time,omitempty"`
	Dose string `json:"dose,omitempty"`
	Type string `json:"type,omitempty"` // trial_medication or concomitant
}

// Symptom is one reported symptom with whatever qualifiers were spoken.
type Symptom struct {
	Name      string `json:"name"`
	Severity  string `json:"severity,omitempty"` // as spoken, e.g. "mild" or "4/10"
	OnsetTime string `json:"onset_time,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Resolved  *bool  `json:"resolved,omitempty"`
}

// SideEffect is a symptom with a stated temporal link to medication.
type SideEffect struct {
	Symptom        string `json:"symptom"`
	RelationToDrug string `json:"relation_to_drug,omitempty"` // possible/probable/unlikely
	Timing         string `json:"timing,omitempty"`
}

// QualityOfLife holds self-reported functional status.
type QualityOfLife struct {
	EnergyLevel  string `json:"energy_level,omitempty"`
	WorkCapacity string `json:"work_capacity,omitempty"`
	Functioning  string `json:"functioning,omitempty"`
}

// Adherence status values.
const (
	AdherenceCompliant    = "compliant"
	AdherenceNonCompliant = "non-compliant"
	AdherencePartial      = "partial"
	AdherenceUnknown      = "unknown"
)

// Extraction is the structured result of one transcript. The six fields map
// 1:1 to the wire schema; after Normalize no slice is nil and
// AdherenceStatus is never empty, so consumers never branch on nullability.
type Extraction struct {
	MedicationsTaken []Medication  `json:"medications_taken"`
	Symptoms         []Symptom     `json:"symptoms"`
	SideEffects      []SideEffect  `json:"side_effects"`
	QualityOfLife    QualityOfLife `json:"quality_of_life"`
	AdherenceStatus  string        `json:"adherence_status"`
	ClinicalSummary  string        `json:"clinical_summary"`
}

// Normalize replaces nil lists with empty ones and defaults the adherence
// status so every extraction satisfies the empty-not-null contract.
func (e *Extraction) Normalize() {
	if e.MedicationsTaken == nil {
		e.MedicationsTaken = []Medication{}
	}
	if e.Symptoms == nil {
		e.Symptoms = []Symptom{}
	}
	if e.SideEffects == nil {
		e.SideEffects = []SideEffect{}
	}
	if e.AdherenceStatus == "" {
		e.AdherenceStatus = AdherenceUnknown
	}
}

// Failure is the degraded extraction returned when a strategy cannot do its
// job. It is still storable: ingestion is never blocked by a flaky extractor.
func Failure(err error) Extraction {
	e := Extraction{
		AdherenceStatus: AdherenceUnknown,
		ClinicalSummary: "Error extracting data: " + err.Error(),
	}
	e.Normalize()
	return e
}
