package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "trial.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := NewServer(8600, st, extract.NewKeywordStrategy(), nil, "7482", discardLogger())
	return srv, st
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestWebhook_TranscriptField(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi",
		`{"transcript": "I took ibuprofen at 9am, mild headache"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	body := decodeBody(t, w)
	if body["status"] != "success" {
		t.Errorf("expected success, got %v", body["status"])
	}
	if body["message"] != "Clinical data processed" {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if body["entry_id"] == nil {
		t.Error("expected entry_id in response")
	}

	extracted, ok := body["extracted"].(map[string]any)
	if !ok {
		t.Fatalf("expected extracted object, got %v", body["extracted"])
	}
	meds, _ := extracted["medications_taken"].([]any)
	if len(meds) != 1 {
		t.Errorf("expected 1 medication, got %v", extracted["medications_taken"])
	}

	entries, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(entries))
	}
	if entries[0].Transcript != "I took ibuprofen at 9am, mild headache" {
		t.Errorf("transcript mismatch: %q", entries[0].Transcript)
	}
	if entries[0].PatientID != "7482" {
		t.Errorf("expected default patient id, got %q", entries[0].PatientID)
	}
	if string(entries[0].RawPayload) != `{"transcript": "I took ibuprofen at 9am, mild headache"}` {
		t.Errorf("raw payload not stored verbatim: %s", entries[0].RawPayload)
	}
}

func TestWebhook_TextFieldNoTerms(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi", `{"text": "no updates"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "success" {
		t.Errorf("expected success, got %v", body["status"])
	}

	entries, _ := st.ListAll(context.Background())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if len(e.Symptoms) != 0 || len(e.MedicationsTaken) != 0 || len(e.SideEffects) != 0 {
		t.Errorf("expected all lists empty, got %+v", e)
	}
}

func TestWebhook_SegmentsPayload(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi",
		`{"segments": [{"text": "feeling tired today"}, {"text": "second segment"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	entries, _ := st.ListAll(context.Background())
	if len(entries) != 1 || entries[0].Transcript != "feeling tired today" {
		t.Fatalf("expected first segment text stored, got %+v", entries)
	}
}

func TestWebhook_BareStringPayload(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi", `"some nausea this morning"`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	entries, _ := st.ListAll(context.Background())
	if len(entries) != 1 || entries[0].Transcript != "some nausea this morning" {
		t.Fatalf("expected bare string stored as transcript, got %+v", entries)
	}
}

func TestWebhook_NoTranscript(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["message"] != "No transcript found" {
		t.Errorf("unexpected message: %v", body["message"])
	}

	entries, _ := st.ListAll(context.Background())
	if len(entries) != 0 {
		t.Errorf("expected no insert for heartbeat payload, got %d entries", len(entries))
	}
}

func TestWebhook_InvalidJSON(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/webhook/omi", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "error" {
		t.Errorf("expected error status, got %v", body["status"])
	}

	entries, _ := st.ListAll(context.Background())
	if len(entries) != 0 {
		t.Errorf("expected no insert for malformed payload, got %d", len(entries))
	}
}

func TestWebhook_TestAlias(t *testing.T) {
	srv, st := newTestServer(t)

	w := doRequest(t, srv, "POST", "/api/test", `{"transcript": "took my pill"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	entries, _ := st.ListAll(context.Background())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry via test alias, got %d", len(entries))
	}
}

// failingStore simulates storage unavailability.
type failingStore struct{}

func (f *failingStore) Insert(context.Context, store.NewEntry) (*store.Entry, error) {
	return nil, errors.New("database unavailable")
}
func (f *failingStore) ListAll(context.Context) ([]store.Entry, error) {
	return nil, errors.New("database unavailable")
}
func (f *failingStore) ListByPatient(context.Context, string) ([]store.Entry, error) {
	return nil, errors.New("database unavailable")
}
func (f *failingStore) OverrideTimestamp(context.Context, int64, time.Time) error {
	return errors.New("database unavailable")
}
func (f *failingStore) Close() error { return nil }

func TestWebhook_StoreFailure(t *testing.T) {
	srv := NewServer(8600, &failingStore{}, extract.NewKeywordStrategy(), nil, "7482", discardLogger())

	w := doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "mild headache"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "error" {
		t.Errorf("expected error status, got %v", body["status"])
	}
}

func TestListEntries(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "mild headache after the pill"}`)
	doRequest(t, srv, "POST", "/webhook/omi", `{"text": "no updates"}`)

	w := doRequest(t, srv, "GET", "/api/entries", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total"] != float64(2) {
		t.Errorf("expected total 2, got %v", body["total"])
	}

	entries, ok := body["entries"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", body["entries"])
	}
	first, _ := entries[0].(map[string]any)
	for _, key := range []string{"medications_taken", "symptoms", "side_effects", "quality_of_life"} {
		if first[key] == nil {
			t.Errorf("expected %s present and non-null, got %v", key, first[key])
		}
	}
	ts, _ := first["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp not ISO-8601: %q (%v)", ts, err)
	}
}

func TestExport_Stats(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "took ibuprofen, headache"}`)
	doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "no symptoms today, feeling fine"}`)

	w := doRequest(t, srv, "GET", "/export/7482", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	body := decodeBody(t, w)
	if body["patient_id"] != "7482" {
		t.Errorf("expected patient 7482, got %v", body["patient_id"])
	}
	if body["total_entries"] != float64(2) {
		t.Errorf("expected 2 entries, got %v", body["total_entries"])
	}
	if body["entries_with_medication"] != float64(1) {
		t.Errorf("expected 1 entry with medication, got %v", body["entries_with_medication"])
	}
}

func TestExport_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/export/nobody", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestExport_PDF(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "took ibuprofen, headache"}`)

	w := doRequest(t, srv, "GET", "/export/7482?format=pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF-") {
		t.Error("response body is not a PDF")
	}
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, srv, "POST", "/webhook/omi", `{"transcript": "mild headache"}`)

	w := doRequest(t, srv, "GET", "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	html := w.Body.String()
	if !strings.Contains(html, "Clinical Trial Companion") {
		t.Error("dashboard missing title")
	}
	if !strings.Contains(html, "headache") {
		t.Error("dashboard missing entry content")
	}
}

func TestNotFoundRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
