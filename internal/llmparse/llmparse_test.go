package llmparse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

var knownSymptoms = []string{"high_fever", "cough", "skin_rash"}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":          `{"a": 1}`,
		"Sure! {\"a\": {\"b\": 2}} thanks": `{"a": {"b": 2}}`,
		"no json here":                     "no json here",
		"":                                 "",
	}
	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseReplyFailureIsEmpty(t *testing.T) {
	if got := ParseReply("not json"); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if got := ParseReply("[1, 2]"); len(got) != 0 {
		t.Fatalf("a JSON array is not an object, got %v", got)
	}
}

func TestNormalizeCanonicalizesShapes(t *testing.T) {
	raw := ParseReply("```json\n" + `{
		"symptoms_to_add": "high fever, cough, unknown thing, High_Fever",
		"symptoms_to_removed": [["skin_rash"], "cough", 7],
		"specific_tests_to_run": "Diabetes, Diabetes, Blood panel",
		"specific_diseases_detail": [{"disease": "Flu", "description": " viral ", "likely_causes": "virus", "precautions": ["rest", "fluids"]}, "junk"],
		"invalid_input": "",
		"priority_order": "symptoms_to_add, bogus"
	}` + "\n```")

	got := Normalize(raw, knownSymptoms)
	want := Intent{
		SymptomsToAdd:  []string{"high fever", "cough"},
		SymptomsToDrop: []string{"skin rash", "cough"},
		TestsToRun:     []string{"Diabetes", "Blood panel"},
		DiseaseDetails: []DiseaseDetail{{Disease: "Flu", Description: "viral", LikelyCauses: []string{"virus"}, Precautions: []string{"rest", "fluids"}}},
		InvalidInput:   "",
		PriorityOrder:  []string{KeySymptomsToAdd},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	got := Normalize(map[string]any{"specific_diseases_detail": "Flu is viral."}, knownSymptoms)
	if len(got.SymptomsToAdd) != 0 || got.SymptomsToAdd == nil {
		t.Fatalf("expected empty non-nil list, got %#v", got.SymptomsToAdd)
	}
	if !reflect.DeepEqual(got.PriorityOrder, defaultPriority) {
		t.Fatalf("expected default priority, got %v", got.PriorityOrder)
	}
	if len(got.DiseaseDetails) != 1 || got.DiseaseDetails[0].Description != "Flu is viral." {
		t.Fatalf("string detail should become one entry, got %+v", got.DiseaseDetails)
	}
}

func TestClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 || req.Model != "m" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"symptoms_to_add\":\"cough\"}"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL + "/", APIKey: "key", Model: "m"})
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	result, err := NewParser(client, knownSymptoms, nil).Parse(context.Background(), "I keep coughing")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Normalized.SymptomsToAdd, []string{"cough"}) {
		t.Fatalf("unexpected intent %+v", result.Normalized)
	}
}

func TestClientUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, APIKey: "key"})
	if _, err := client.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrAPICallFailed) {
		t.Fatalf("expected ErrAPICallFailed, got %v", err)
	}
}

func TestParserGuards(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	parser := NewParser(nil, knownSymptoms, nil)
	if _, err := parser.Parse(context.Background(), "  "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := parser.Parse(context.Background(), "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
