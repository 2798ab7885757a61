package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/triallog/triallog/internal/anthropic"
)

const extractMaxTokens = 2000

// requiredKeys are the six top-level keys every extraction must carry.
var requiredKeys = []string{
	"medications_taken", "symptoms", "side_effects",
	"quality_of_life", "adherence_status", "clinical_summary",
}

// ClaudeStrategy delegates semantic extraction to a Claude completion and
// defensively parses whatever comes back.
type ClaudeStrategy struct {
	llm     *anthropic.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewClaudeStrategy(llm *anthropic.Client, timeout time.Duration, logger *slog.Logger) *ClaudeStrategy {
	return &ClaudeStrategy{llm: llm, timeout: timeout, logger: logger}
}

func (s *ClaudeStrategy) Name() string { return "claude" }

func (s *ClaudeStrategy) Extract(ctx context.Context, transcript string) Extraction {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(extractionPrompt, transcript)
	messages := []anthropic.Message{{Role: "user", Content: prompt}}

	raw, err := s.llm.Complete(ctx, "", messages, extractMaxTokens)
	if err != nil {
		s.logger.Error("claude extraction failed", "error", err, "transcript_len", len(transcript))
		return Failure(err)
	}

	ex, err := decodeExtraction(raw)
	if err != nil {
		s.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return Failure(err)
	}

	s.logger.Info("extraction complete",
		"medications", len(ex.MedicationsTaken),
		"symptoms", len(ex.Symptoms),
		"side_effects", len(ex.SideEffects),
		"adherence", ex.AdherenceStatus,
	)
	return ex
}

// decodeExtraction unwraps an optional markdown fence, parses the JSON
// object, back-fills missing required keys and decodes into the typed result.
func decodeExtraction(raw string) (Extraction, error) {
	text := unwrapFences(strings.TrimSpace(raw))

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}

	completeSchema(fields)

	// Lenient per-key decode: a key whose value doesn't match the expected
	// type is left at its zero value instead of failing the whole response.
	var ex Extraction
	_ = json.Unmarshal(fields["medications_taken"], &ex.MedicationsTaken)
	_ = json.Unmarshal(fields["symptoms"], &ex.Symptoms)
	_ = json.Unmarshal(fields["side_effects"], &ex.SideEffects)
	_ = json.Unmarshal(fields["quality_of_life"], &ex.QualityOfLife)
	_ = json.Unmarshal(fields["adherence_status"], &ex.AdherenceStatus)
	_ = json.Unmarshal(fields["clinical_summary"], &ex.ClinicalSummary)

	ex.Normalize()
	return ex, nil
}

// unwrapFences strips a markdown code fence from a model response. If the
// text starts with a fence, keep what sits between the first pair of fences
// and drop a leading "json" language tag.
func unwrapFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := parts[1]
	if strings.HasPrefix(inner, "json") {
		inner = inner[4:]
	}
	return strings.TrimSpace(inner)
}

// completeSchema synthesizes a type-appropriate empty default for each
// missing required key. The defaulting is by key name: keys ending in "s"
// (plus medications_taken) default to an empty list, clinical_summary to an
// empty string, anything else to an empty object. Note a missing
// adherence_status therefore defaults to a list, which the lenient decode
// degrades to "unknown".
func completeSchema(fields map[string]json.RawMessage) {
	for _, key := range requiredKeys {
		if _, ok := fields[key]; ok {
			continue
		}
		switch {
		case strings.HasSuffix(key, "s") || key == "medications_taken":
			fields[key] = json.RawMessage(`[]`)
		case key == "clinical_summary":
			fields[key] = json.RawMessage(`""`)
		default:
			fields[key] = json.RawMessage(`{}`)
		}
	}
}
