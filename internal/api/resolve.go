package api

// Device integrations deliver transcripts in several shapes. Resolution is
// an ordered list of named rules; the first rule returning a non-empty
// string wins.
type resolveRule struct {
	name    string
	resolve func(payload any) string
}

var transcriptRules = []resolveRule{
	{"transcript_field", func(payload any) string {
		return stringField(payload, "transcript")
	}},
	{"text_field", func(payload any) string {
		return stringField(payload, "text")
	}},
	{"first_segment_text", func(payload any) string {
		m, ok := payload.(map[string]any)
		if !ok {
			return ""
		}
		segments, ok := m["segments"].([]any)
		if !ok || len(segments) == 0 {
			return ""
		}
		return stringField(segments[0], "text")
	}},
	{"bare_string", func(payload any) string {
		s, _ := payload.(string)
		return s
	}},
}

// resolveTranscript returns the transcript and the name of the rule that
// produced it, or ("", "") when the payload carries no speech.
func resolveTranscript(payload any) (string, string) {
	for _, rule := range transcriptRules {
		if t := rule.resolve(payload); t != "" {
			return t, rule.name
		}
	}
	return "", ""
}

func stringField(payload any, key string) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
