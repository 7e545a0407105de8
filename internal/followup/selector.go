// Package followup picks, for each ranked candidate disease, the few
// symptoms most worth asking about next.
package followup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Skufu/symptomcheck/internal/models"
	"github.com/Skufu/symptomcheck/internal/stats"
	"github.com/Skufu/symptomcheck/internal/symptom"
)

const (
	DefaultMaxPerDisease = 3
	DefaultMaxTotal      = 10

	// Unknown symptoms score as mid-frequency and as barely unique.
	defaultFrequency  = 0.5
	defaultUniqueness = 0.01
	rarityWeight      = 0.3
)

// Resolver maps a disease to its symptom set. An empty set means the
// disease cannot be asked about.
type Resolver interface {
	Resolve(disease string) symptom.Set
}

type ResolverFunc func(disease string) symptom.Set

func (f ResolverFunc) Resolve(disease string) symptom.Set {
	return f(disease)
}

// Request is one selection call. Predictions are processed in the order
// given; the caller owns the ranking.
type Request struct {
	Predictions   []models.Prediction
	Current       symptom.Set
	Removed       symptom.Set
	MaxPerDisease int
	MaxTotal      int
}

type Selector struct {
	stats    stats.Table
	resolver Resolver
	exclude  symptom.Set
}

type Option func(*Selector)

// WithExcluded removes symptoms from every candidate list, for example
// generic signs that discriminate nothing.
func WithExcluded(symptoms ...string) Option {
	return func(s *Selector) {
		s.exclude = symptom.NewSet(symptoms...)
	}
}

func NewSelector(table stats.Table, resolver Resolver, opts ...Option) *Selector {
	s := &Selector{
		stats:    table,
		resolver: resolver,
		exclude:  symptom.Set{},
	}
	if s.stats == nil {
		s.stats = stats.Table{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select is pure: it reads its inputs and the selector's immutable tables
// and never writes shared state.
func (s *Selector) Select(req Request) []models.FollowUpGroup {
	groups := []models.FollowUpGroup{}
	if req.MaxPerDisease <= 0 || req.MaxTotal <= 0 || len(req.Predictions) == 0 || s.resolver == nil {
		return groups
	}

	resolved := make(map[string]symptom.Set, len(req.Predictions))
	for _, p := range req.Predictions {
		if _, ok := resolved[p.Disease]; !ok {
			resolved[p.Disease] = s.resolver.Resolve(p.Disease)
		}
	}

	current := normalizedSet(req.Current)
	removed := normalizedSet(req.Removed)
	used := symptom.Set{}

	for _, p := range req.Predictions {
		candidates := resolved[p.Disease].Minus(current, removed, s.exclude)
		if candidates.Len() == 0 {
			continue
		}

		limit := req.MaxPerDisease
		if remaining := req.MaxTotal - used.Len(); remaining < limit {
			limit = remaining
		}

		selected := make([]string, 0, limit)
		for _, candidate := range s.rank(candidates, p.Confidence) {
			if len(selected) == limit {
				break
			}
			if _, ok := used[candidate]; ok {
				continue
			}
			selected = append(selected, candidate)
		}

		if len(selected) > 0 {
			for _, sel := range selected {
				used[sel] = struct{}{}
			}
			groups = append(groups, models.FollowUpGroup{
				Disease:    p.Disease,
				Symptoms:   selected,
				Question:   Question(p.Disease, p.Confidence, selected),
				Confidence: p.Confidence,
			})
		}

		if used.Len() >= req.MaxTotal {
			break
		}
	}
	return groups
}

// rank orders candidates by descending score, ties by name.
func (s *Selector) rank(candidates symptom.Set, confidence float64) []string {
	type scored struct {
		symptom string
		score   float64
	}
	list := make([]scored, 0, candidates.Len())
	for c := range candidates {
		list = append(list, scored{symptom: c, score: s.Score(c, confidence)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score == list[j].score {
			return list[i].symptom < list[j].symptom
		}
		return list[i].score > list[j].score
	})

	out := make([]string, len(list))
	for i, item := range list {
		out[i] = item.symptom
	}
	return out
}

// Score weighs how informative asking about symptom is for a disease
// predicted with the given confidence.
func (s *Selector) Score(sym string, confidence float64) float64 {
	frequency := defaultFrequency
	uniqueness := defaultUniqueness
	if st, ok := s.stats.Lookup(sym); ok {
		frequency = st.FrequencyPercent / 100
		uniqueness = st.Uniqueness / 100
	}

	rarity := 1.0
	if frequency > 0 {
		rarity = 1 / frequency
	}
	return NormalizeConfidence(confidence)*uniqueness + rarityWeight*rarity
}

// NormalizeConfidence accepts a fraction or a percentage. Anything at or
// above 1 is read as a percentage, so callers must not send a fraction of
// exactly 1.0 expecting certainty.
func NormalizeConfidence(confidence float64) float64 {
	if confidence >= 1 {
		return confidence / 100
	}
	return confidence
}

// Question renders the prompt shown for one group. Confidence is printed
// as received.
func Question(disease string, confidence float64, symptoms []string) string {
	return fmt.Sprintf("For %s (confidence: %.5f%%), do you have: %s?", disease, confidence, strings.Join(symptoms, ", "))
}

func normalizedSet(in symptom.Set) symptom.Set {
	out := make(symptom.Set, len(in))
	for v := range in {
		out.Add(v)
	}
	return out
}
