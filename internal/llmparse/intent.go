// Package llmparse turns a chat model's free-form reply about a user message
// into one typed Intent, whatever shape the model chose to answer in.
package llmparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Skufu/symptomcheck/internal/symptom"
)

const (
	KeyTestsToRun     = "specific_tests_to_run"
	KeySymptomsToAdd  = "symptoms_to_add"
	KeySymptomsToDrop = "symptoms_to_removed"
	KeyDiseaseDetails = "specific_diseases_detail"
)

var defaultPriority = []string{KeyTestsToRun, KeySymptomsToAdd, KeySymptomsToDrop, KeyDiseaseDetails}

type DiseaseDetail struct {
	Disease      string   `json:"disease"`
	Description  string   `json:"description"`
	LikelyCauses []string `json:"likely_causes"`
	Precautions  []string `json:"precautions"`
}

type Intent struct {
	SymptomsToAdd  []string        `json:"symptoms_to_add"`
	SymptomsToDrop []string        `json:"symptoms_to_removed"`
	TestsToRun     []string        `json:"specific_tests_to_run"`
	DiseaseDetails []DiseaseDetail `json:"specific_diseases_detail"`
	InvalidInput   string          `json:"invalid_input"`
	PriorityOrder  []string        `json:"priority_order"`
}

var (
	fencePattern  = regexp.MustCompile("^```[a-zA-Z]*\n|\n```$")
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON strips code fences and returns the outermost {...} span, or
// the trimmed text when there is none.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = fencePattern.ReplaceAllString(text, "")
	if match := objectPattern.FindString(text); match != "" {
		return match
	}
	return text
}

// ParseReply decodes the reply into a generic object. Anything that is not a
// JSON object yields an empty map.
func ParseReply(reply string) map[string]any {
	out := map[string]any{}
	if err := json.Unmarshal([]byte(ExtractJSON(reply)), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Normalize maps a raw reply onto Intent. Symptoms are kept only when they
// belong to knownSymptoms and come back in canonical form; tests are kept
// whether known or not.
func Normalize(raw map[string]any, knownSymptoms []string) Intent {
	known := symptom.NewSet(knownSymptoms...)
	keepKnown := func(values []string) []string {
		out := []string{}
		for _, v := range values {
			if known.Has(v) {
				out = append(out, symptom.Normalize(v))
			}
		}
		return dedupe(out)
	}

	intent := Intent{
		SymptomsToAdd:  keepKnown(toList(raw[KeySymptomsToAdd])),
		SymptomsToDrop: keepKnown(toList(raw[KeySymptomsToDrop])),
		TestsToRun:     dedupe(toList(raw[KeyTestsToRun])),
		DiseaseDetails: []DiseaseDetail{},
		InvalidInput:   strings.TrimSpace(stringify(raw["invalid_input"])),
	}

	switch details := raw[KeyDiseaseDetails].(type) {
	case []any:
		for _, item := range details {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			intent.DiseaseDetails = append(intent.DiseaseDetails, DiseaseDetail{
				Disease:      strings.TrimSpace(stringify(obj["disease"])),
				Description:  strings.TrimSpace(stringify(obj["description"])),
				LikelyCauses: toList(obj["likely_causes"]),
				Precautions:  toList(obj["precautions"]),
			})
		}
	case string:
		if text := strings.TrimSpace(details); text != "" {
			intent.DiseaseDetails = append(intent.DiseaseDetails, DiseaseDetail{
				Description:  text,
				LikelyCauses: []string{},
				Precautions:  []string{},
			})
		}
	}

	valid := map[string]bool{}
	for _, k := range defaultPriority {
		valid[k] = true
	}
	intent.PriorityOrder = []string{}
	for _, k := range toList(raw["priority_order"]) {
		if valid[k] {
			intent.PriorityOrder = append(intent.PriorityOrder, k)
		}
	}
	if len(intent.PriorityOrder) == 0 {
		intent.PriorityOrder = append(intent.PriorityOrder, defaultPriority...)
	}
	return intent
}

// toList accepts nil, a comma separated string, a scalar, or a list that
// may itself nest one level of lists.
func toList(value any) []string {
	out := []string{}
	appendItem := func(v any) {
		if s := strings.TrimSpace(stringify(v)); s != "" {
			out = append(out, s)
		}
	}

	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			if nested, ok := item.([]any); ok {
				for _, n := range nested {
					appendItem(n)
				}
				continue
			}
			appendItem(item)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			appendItem(part)
		}
	default:
		appendItem(v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SystemPrompt instructs the model to answer with the keys Normalize reads.
func SystemPrompt(knownSymptoms, knownTests []string) string {
	return fmt.Sprintf(`You are a medical text parser. For any user message, return only a valid JSON object with these keys:

{
    "symptoms_to_add": "Symptoms in user's text that exactly match or are medically related to items in the KNOWN_SYMPTOMS list (include indirect/associated symptoms). Empty string if none.",
    "symptoms_to_removed": "Symptoms from KNOWN_SYMPTOMS explicitly stated as not present. Empty string if none.",
    "specific_tests_to_run": "Specific medical tests mentioned or implied. If similar to a test in KNOWN_TESTS, use that exact name. Only add a brand-new test if no match exists in KNOWN_TESTS.",
    "specific_diseases_detail": "If the user requests disease info, give a short description, likely causes, and precautions. Empty string if none.",
    "invalid_input": "If unrelated to symptoms/tests/diseases, explain briefly. Else empty string."
}

KNOWN_SYMPTOMS = [%s]
KNOWN_TESTS = [%s]

Rules:
- Always return all keys exactly as shown, never omit.
- Use exact matches or strong medical similarity to link to KNOWN_SYMPTOMS and KNOWN_TESTS.
- If the user mentions a test directly or implies one from their history, add it to 'specific_tests_to_run' and put it first in 'priority_order'.
- Do not add explanations outside JSON.
- If multiple items exist for a field, separate with commas.
`, strings.Join(knownSymptoms, ", "), strings.Join(knownTests, ", "))
}
