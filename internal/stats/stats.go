// Package stats derives per-symptom frequency, rarity and uniqueness from a
// static disease to symptom table.
package stats

import "github.com/Skufu/symptomcheck/internal/symptom"

const (
	UniqueScore = 100
	SharedScore = 50
)

type Stats struct {
	FrequencyPercent float64 `json:"frequency_percent"`
	RarityPercent    float64 `json:"rarity_percent"`
	Uniqueness       float64 `json:"uniqueness"`
}

// Table is keyed by canonical symptom. It is built once and only read after.
type Table map[string]Stats

// Lookup finds stats for any spelling of a symptom.
func (t Table) Lookup(s string) (Stats, bool) {
	st, ok := t[symptom.Normalize(s)]
	return st, ok
}

// Compute counts, for every symptom, how many diseases list it. A symptom
// repeated within one disease (in any spelling) counts once for that disease.
// The denominator is the number of diseases, including those with no
// symptoms.
func Compute(diseases map[string][]string) Table {
	if len(diseases) == 0 {
		return Table{}
	}

	total := float64(len(diseases))
	counts := make(map[string]int)
	for _, symptoms := range diseases {
		for s := range symptom.NewSet(symptoms...) {
			counts[s]++
		}
	}

	table := make(Table, len(counts))
	for s, count := range counts {
		frequency := 100 * float64(count) / total
		uniqueness := float64(SharedScore)
		if count == 1 {
			uniqueness = UniqueScore
		}
		table[s] = Stats{
			FrequencyPercent: frequency,
			RarityPercent:    100 - frequency,
			Uniqueness:       uniqueness,
		}
	}
	return table
}
