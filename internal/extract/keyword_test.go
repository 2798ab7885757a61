package extract

import (
	"context"
	"testing"
)

func symptomNames(ex Extraction) []string {
	names := make([]string, 0, len(ex.Symptoms))
	for _, s := range ex.Symptoms {
		names = append(names, s.Name)
	}
	return names
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func TestKeywordExtract_ListedTerms(t *testing.T) {
	ex := NewKeywordStrategy().Extract(context.Background(), "I took ibuprofen at 9am, mild headache")

	if !contains(symptomNames(ex), "headache") {
		t.Errorf("expected headache in symptoms, got %v", symptomNames(ex))
	}
	if len(ex.MedicationsTaken) != 1 || ex.MedicationsTaken[0].Name != "ibuprofen" {
		t.Errorf("expected medications [ibuprofen], got %+v", ex.MedicationsTaken)
	}
	if len(ex.SideEffects) != 0 {
		t.Errorf("expected no side effects, got %+v", ex.SideEffects)
	}
	if ex.AdherenceStatus != AdherenceUnknown {
		t.Errorf("expected adherence unknown, got %q", ex.AdherenceStatus)
	}
}

func TestKeywordExtract_SubstringOverlap(t *testing.T) {
	// "headache" also contains the listed term "ache", so both fire.
	ex := NewKeywordStrategy().Extract(context.Background(), "mild headache this morning")

	names := symptomNames(ex)
	if !contains(names, "headache") || !contains(names, "ache") {
		t.Errorf("expected both headache and ache, got %v", names)
	}
}

func TestKeywordExtract_CaseAndRepetition(t *testing.T) {
	// A term repeated in the transcript appears exactly once, any casing.
	ex := NewKeywordStrategy().Extract(context.Background(), "NAUSEA in the morning, nausea again at night")

	count := 0
	for _, s := range ex.Symptoms {
		if s.Name == "nausea" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected nausea exactly once, got %d occurrences in %v", count, symptomNames(ex))
	}
}

func TestKeywordExtract_NoListedTerms(t *testing.T) {
	ex := NewKeywordStrategy().Extract(context.Background(), "no updates")

	if len(ex.Symptoms) != 0 || len(ex.MedicationsTaken) != 0 || len(ex.SideEffects) != 0 {
		t.Errorf("expected three empty lists, got %+v", ex)
	}
	if ex.Symptoms == nil || ex.MedicationsTaken == nil || ex.SideEffects == nil {
		t.Error("expected empty lists, not nil")
	}
}

func TestKeywordExtract_EmptyTranscript(t *testing.T) {
	ex := NewKeywordStrategy().Extract(context.Background(), "")

	if len(ex.Symptoms) != 0 || len(ex.MedicationsTaken) != 0 || len(ex.SideEffects) != 0 {
		t.Errorf("expected three empty lists for empty transcript, got %+v", ex)
	}
	if ex.AdherenceStatus != AdherenceUnknown {
		t.Errorf("expected adherence unknown, got %q", ex.AdherenceStatus)
	}
}

func TestKeywordExtract_SideEffectPhrase(t *testing.T) {
	ex := NewKeywordStrategy().Extract(context.Background(), "I think this is a side effect of the new pill")

	if len(ex.SideEffects) != 1 || ex.SideEffects[0].Symptom != "side effect" {
		t.Errorf("expected side effect phrase captured, got %+v", ex.SideEffects)
	}
	if len(ex.MedicationsTaken) != 1 || ex.MedicationsTaken[0].Name != "pill" {
		t.Errorf("expected pill captured, got %+v", ex.MedicationsTaken)
	}
}
