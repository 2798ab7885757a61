package extract

import (
	"context"
	"strings"
)

// Term lists for the fallback extractor. Matching is plain substring match
// over the case-folded transcript, so "ache" also fires inside "headache".
var (
	symptomTerms = []string{
		"pain", "headache", "nausea", "fatigue", "dizziness", "fever", "cough",
		"tired", "sick", "hurt", "ache", "sore", "weak", "vomit", "rash",
	}
	medicationTerms = []string{
		"aspirin", "ibuprofen", "tylenol", "medication", "pill", "tablet",
		"medicine", "drug", "dose", "prescription",
	}
	sideEffectTerms = []string{
		"side effect", "reaction", "allergy", "adverse",
	}
)

// KeywordStrategy is the deterministic fallback: no severity, timing or dose
// capture, just term presence. Used when no LLM client is configured.
type KeywordStrategy struct{}

func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Extract(_ context.Context, transcript string) Extraction {
	lower := strings.ToLower(transcript)

	var ex Extraction
	for _, term := range symptomTerms {
		if strings.Contains(lower, term) {
			ex.Symptoms = append(ex.Symptoms, Symptom{Name: term})
		}
	}
	for _, term := range medicationTerms {
		if strings.Contains(lower, term) {
			ex.MedicationsTaken = append(ex.MedicationsTaken, Medication{Name: term})
		}
	}
	for _, term := range sideEffectTerms {
		if strings.Contains(lower, term) {
			ex.SideEffects = append(ex.SideEffects, SideEffect{Symptom: term})
		}
	}

	ex.AdherenceStatus = AdherenceUnknown
	ex.Normalize()
	return ex
}
