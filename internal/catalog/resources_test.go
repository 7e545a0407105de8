package catalog

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadModelDetailJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "model_detail.json", `{
		"model_path": "model.onnx",
		"diseases_classes": ["Flu", "Cold"],
		"all_symptoms": ["high_fever", "", "cough"],
		"condition_specific_symptoms": {"Flu": ["high_fever", "cough"]}
	}`)
	yamlPath := writeFile(t, dir, "model_detail.yaml", `
model_path: model.onnx
diseases_classes: [Flu, Cold]
all_symptoms: [high_fever, cough]
condition_specific_symptoms:
  Flu: [high_fever, cough]
`)

	for _, path := range []string{jsonPath, yamlPath} {
		detail, err := LoadModelDetail(path)
		if err != nil {
			t.Fatalf("LoadModelDetail(%s) unexpected error: %v", filepath.Base(path), err)
		}
		if !reflect.DeepEqual(detail.AllSymptoms, []string{"high_fever", "cough"}) {
			t.Fatalf("%s: vocabulary = %v", filepath.Base(path), detail.AllSymptoms)
		}
		table, err := detail.LoadConditionSymptoms(context.Background())
		if err != nil || len(table["Flu"]) != 2 {
			t.Fatalf("%s: table = %v, err = %v", filepath.Base(path), table, err)
		}
	}
}

func TestLoadModelDetailRejectsEmptyVocabulary(t *testing.T) {
	path := writeFile(t, t.TempDir(), "model_detail.json", `{"all_symptoms": [" "]}`)
	if _, err := LoadModelDetail(path); err != ErrEmptyVocabulary {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestDetailsDescribe(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "desc.csv", "Disease,Description\nFlu,\"A viral infection, usually seasonal.\"\n")
	prec := writeFile(t, dir, "prec.csv", "Disease,Precaution_1,Precaution_2,Precaution_3\nFlu,rest, drink fluids,\n")

	details, err := LoadDetails(desc, prec)
	if err != nil {
		t.Fatalf("LoadDetails() unexpected error: %v", err)
	}

	flu := details.Describe("Flu")
	if flu.Description != "A viral infection, usually seasonal." {
		t.Fatalf("unexpected description: %q", flu.Description)
	}
	if !reflect.DeepEqual(flu.Recommendations, []string{"rest", "drink fluids"}) {
		t.Fatalf("unexpected recommendations: %v", flu.Recommendations)
	}

	unknown := details.Describe("Unknown")
	if unknown.Description != "" || unknown.Recommendations == nil || len(unknown.Recommendations) != 0 {
		t.Fatalf("unknown disease should describe as empty, got %+v", unknown)
	}
}

func TestLoadAvailableTests(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tests.json", `{"available_tests": {"Diabetes": "diabetes_model"}}`)
	tests, err := LoadAvailableTests(path)
	if err != nil {
		t.Fatalf("LoadAvailableTests() unexpected error: %v", err)
	}
	if tests["Diabetes"] != "diabetes_model" {
		t.Fatalf("unexpected tests: %v", tests)
	}
}
