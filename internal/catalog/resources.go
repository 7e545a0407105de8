package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/symptomcheck/internal/models"
)

var (
	ErrNoDiseaseColumn = errors.New("no disease column in header")
	ErrEmptyVocabulary = errors.New("model detail lists no symptoms")
)

// ModelDetail describes the symptom classifier: its label space, its feature
// vocabulary (order matters) and the per-condition symptom table.
type ModelDetail struct {
	ModelPath                 string              `json:"model_path" yaml:"model_path"`
	DiseasesClasses           []string            `json:"diseases_classes" yaml:"diseases_classes"`
	AllSymptoms               []string            `json:"all_symptoms" yaml:"all_symptoms"`
	ConditionSpecificSymptoms map[string][]string `json:"condition_specific_symptoms" yaml:"condition_specific_symptoms"`
}

// LoadModelDetail reads a JSON or YAML model detail file, picked by extension.
func LoadModelDetail(path string) (*ModelDetail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model detail: %w", err)
	}

	var detail ModelDetail
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &detail)
	default:
		err = json.Unmarshal(raw, &detail)
	}
	if err != nil {
		return nil, fmt.Errorf("decode model detail %s: %w", filepath.Base(path), err)
	}

	vocabulary := make([]string, 0, len(detail.AllSymptoms))
	for _, s := range detail.AllSymptoms {
		if strings.TrimSpace(s) != "" {
			vocabulary = append(vocabulary, s)
		}
	}
	if len(vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	detail.AllSymptoms = vocabulary
	if detail.ConditionSpecificSymptoms == nil {
		detail.ConditionSpecificSymptoms = map[string][]string{}
	}
	return &detail, nil
}

// LoadConditionSymptoms lets a loaded file act as the primary table source.
func (d *ModelDetail) LoadConditionSymptoms(context.Context) (Table, error) {
	return Table(d.ConditionSpecificSymptoms), nil
}

type Row struct {
	Disease  string
	Symptoms []string
}

// Dataset is the raw training table: one disease column and any number of
// symptom columns, blank cells allowed.
type Dataset struct {
	Rows []Row
}

func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ParseDataset(f)
}

func ParseDataset(r io.Reader) (*Dataset, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 {
		return &Dataset{}, nil
	}

	diseaseCol := findColumn(records[0], "disease")
	if diseaseCol < 0 {
		return nil, ErrNoDiseaseColumn
	}

	dataset := &Dataset{Rows: make([]Row, 0, len(records)-1)}
	for _, record := range records[1:] {
		if diseaseCol >= len(record) {
			continue
		}
		disease := strings.TrimSpace(record[diseaseCol])
		if disease == "" {
			continue
		}
		row := Row{Disease: disease}
		for i, cell := range record {
			if i == diseaseCol {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				row.Symptoms = append(row.Symptoms, cell)
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, nil
}

// Details serves the human-facing description and precautions per disease.
type Details struct {
	descriptions map[string]string
	precautions  map[string][]string
}

func LoadDetails(descriptionPath, precautionPath string) (*Details, error) {
	details := &Details{
		descriptions: map[string]string{},
		precautions:  map[string][]string{},
	}

	if descriptionPath != "" {
		records, err := readCSVFile(descriptionPath)
		if err != nil {
			return nil, fmt.Errorf("descriptions: %w", err)
		}
		if len(records) > 0 {
			diseaseCol := findColumn(records[0], "disease")
			descCol := findColumn(records[0], "description")
			if diseaseCol < 0 || descCol < 0 {
				return nil, fmt.Errorf("descriptions: %w", ErrNoDiseaseColumn)
			}
			for _, record := range records[1:] {
				if diseaseCol >= len(record) || descCol >= len(record) {
					continue
				}
				details.descriptions[strings.TrimSpace(record[diseaseCol])] = strings.TrimSpace(record[descCol])
			}
		}
	}

	if precautionPath != "" {
		records, err := readCSVFile(precautionPath)
		if err != nil {
			return nil, fmt.Errorf("precautions: %w", err)
		}
		if len(records) > 0 {
			diseaseCol := findColumn(records[0], "disease")
			if diseaseCol < 0 {
				return nil, fmt.Errorf("precautions: %w", ErrNoDiseaseColumn)
			}
			for _, record := range records[1:] {
				if diseaseCol >= len(record) {
					continue
				}
				disease := strings.TrimSpace(record[diseaseCol])
				items := []string{}
				for i, cell := range record {
					if i == diseaseCol {
						continue
					}
					if cell = strings.TrimSpace(cell); cell != "" {
						items = append(items, cell)
					}
				}
				details.precautions[disease] = items
			}
		}
	}

	return details, nil
}

// Describe never fails: unknown diseases get an empty description and no
// recommendations.
func (d *Details) Describe(disease string) models.DiseaseDetail {
	disease = strings.TrimSpace(disease)
	detail := models.DiseaseDetail{Disease: disease, Recommendations: []string{}}
	if d == nil || disease == "" {
		return detail
	}
	detail.Description = d.descriptions[disease]
	if recs, ok := d.precautions[disease]; ok {
		detail.Recommendations = append(detail.Recommendations, recs...)
	}
	return detail
}

// LoadAvailableTests reads {"available_tests": {disease: model}}.
func LoadAvailableTests(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read available tests: %w", err)
	}
	var doc struct {
		AvailableTests map[string]string `json:"available_tests"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode available tests: %w", err)
	}
	if doc.AvailableTests == nil {
		doc.AvailableTests = map[string]string{}
	}
	return doc.AvailableTests, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}
