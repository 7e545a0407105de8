// Package catalog resolves a disease to the symptoms that describe it and
// loads the static resources the service starts from.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/Skufu/symptomcheck/internal/symptom"
)

// Table is the primary condition to symptoms lookup, as loaded.
type Table map[string][]string

// TableSource is anything that can produce the primary table at startup.
type TableSource interface {
	LoadConditionSymptoms(ctx context.Context) (Table, error)
}

// Index resolves diseases against the primary table first and the raw
// dataset second. It is immutable after NewIndex and safe for concurrent use.
type Index struct {
	primary  map[string]symptom.Set
	fallback map[string]symptom.Set
}

func NewIndex(primary Table, dataset *Dataset) *Index {
	index := &Index{
		primary:  make(map[string]symptom.Set, len(primary)),
		fallback: map[string]symptom.Set{},
	}
	for disease, symptoms := range primary {
		set := symptom.NewSet(symptoms...)
		if set.Len() == 0 {
			continue
		}
		index.primary[strings.TrimSpace(disease)] = set
	}
	if dataset != nil {
		for _, row := range dataset.Rows {
			set, ok := index.fallback[row.Disease]
			if !ok {
				set = symptom.Set{}
				index.fallback[row.Disease] = set
			}
			for _, s := range row.Symptoms {
				set.Add(s)
			}
		}
	}
	return index
}

// Resolve returns the symptoms known for disease, or an empty set when
// neither source has any. The returned set must not be modified.
func (i *Index) Resolve(disease string) symptom.Set {
	disease = strings.TrimSpace(disease)
	if set, ok := i.primary[disease]; ok {
		return set
	}
	if set, ok := i.fallback[disease]; ok && set.Len() > 0 {
		return set
	}
	return symptom.Set{}
}

// Diseases lists the diseases with a non-empty primary entry, sorted.
func (i *Index) Diseases() []string {
	out := make([]string, 0, len(i.primary))
	for d := range i.primary {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
