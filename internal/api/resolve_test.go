package api

import "testing"

func TestResolveTranscript(t *testing.T) {
	cases := []struct {
		name     string
		payload  any
		want     string
		wantRule string
	}{
		{
			name:     "transcript field",
			payload:  map[string]any{"transcript": "hello"},
			want:     "hello",
			wantRule: "transcript_field",
		},
		{
			name:     "text field",
			payload:  map[string]any{"text": "hello"},
			want:     "hello",
			wantRule: "text_field",
		},
		{
			name: "transcript wins over text",
			payload: map[string]any{
				"transcript": "primary",
				"text":       "secondary",
			},
			want:     "primary",
			wantRule: "transcript_field",
		},
		{
			name: "first segment text",
			payload: map[string]any{
				"segments": []any{
					map[string]any{"text": "first"},
					map[string]any{"text": "second"},
				},
			},
			want:     "first",
			wantRule: "first_segment_text",
		},
		{
			name:     "bare string",
			payload:  "just speech",
			want:     "just speech",
			wantRule: "bare_string",
		},
		{
			name:    "empty object",
			payload: map[string]any{},
		},
		{
			name:    "empty segments",
			payload: map[string]any{"segments": []any{}},
		},
		{
			name:    "segment without text",
			payload: map[string]any{"segments": []any{map[string]any{"speaker": "0"}}},
		},
		{
			name:    "non-string transcript",
			payload: map[string]any{"transcript": 42},
		},
		{
			name:    "empty string payload",
			payload: "",
		},
		{
			name:    "number payload",
			payload: float64(7),
		},
		{
			name:    "nil payload",
			payload: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, rule := resolveTranscript(tc.payload)
			if got != tc.want {
				t.Errorf("transcript = %q, want %q", got, tc.want)
			}
			if rule != tc.wantRule {
				t.Errorf("rule = %q, want %q", rule, tc.wantRule)
			}
		})
	}
}
