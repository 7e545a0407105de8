// Package matcher finds vocabulary symptoms in free text and encodes them as
// the classifier's binary feature vector.
package matcher

import (
	"strings"
	"unicode"

	"github.com/Skufu/symptomcheck/internal/symptom"
)

// Matcher is bound to one vocabulary, in the feature order the classifier
// was trained with. It is immutable and safe for concurrent use.
type Matcher struct {
	vocabulary []string
	phrases    map[string]int
	maxTokens  int
}

func New(vocabulary []string) *Matcher {
	m := &Matcher{
		vocabulary: make([]string, len(vocabulary)),
		phrases:    make(map[string]int, len(vocabulary)),
		maxTokens:  1,
	}
	for i, v := range vocabulary {
		canonical := symptom.Normalize(v)
		m.vocabulary[i] = canonical

		tokens := tokenize(canonical)
		if len(tokens) == 0 {
			continue
		}
		key := strings.Join(tokens, " ")
		if _, dup := m.phrases[key]; !dup {
			m.phrases[key] = i
		}
		if len(tokens) > m.maxTokens {
			m.maxTokens = len(tokens)
		}
	}
	return m
}

// Vocabulary returns the canonical vocabulary in feature order.
func (m *Matcher) Vocabulary() []string {
	out := make([]string, len(m.vocabulary))
	copy(out, m.vocabulary)
	return out
}

// Match returns every vocabulary phrase that occurs as a whole run of tokens
// in text. Overlapping phrases all match.
func (m *Matcher) Match(text string) symptom.Set {
	found := symptom.Set{}
	tokens := tokenize(symptom.Normalize(text))
	for start := range tokens {
		for n := 1; n <= m.maxTokens && start+n <= len(tokens); n++ {
			if idx, ok := m.phrases[strings.Join(tokens[start:start+n], " ")]; ok {
				found[m.vocabulary[idx]] = struct{}{}
			}
		}
	}
	return found
}

// MatchList keeps the entries of a checklist that belong to the vocabulary.
func (m *Matcher) MatchList(items []string) symptom.Set {
	found := symptom.Set{}
	for _, item := range items {
		key := strings.Join(tokenize(symptom.Normalize(item)), " ")
		if idx, ok := m.phrases[key]; ok {
			found[m.vocabulary[idx]] = struct{}{}
		}
	}
	return found
}

// Vectorize lays matched out against the vocabulary: 1 where the symptom at
// that position matched, else 0. Its length always equals the vocabulary's.
func (m *Matcher) Vectorize(matched symptom.Set) []float32 {
	vector := make([]float32, len(m.vocabulary))
	for i, v := range m.vocabulary {
		if _, ok := matched[v]; ok {
			vector[i] = 1
		}
	}
	return vector
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
