package matcher

import (
	"reflect"
	"testing"
)

var vocabulary = []string{"itching", "skin_rash", "high_fever", "fever", "chest_pain", "runny_nose", "cough"}

func TestMatchFindsPhrases(t *testing.T) {
	m := New(vocabulary)

	got := m.Match("I've had a HIGH fever, some chest-pain and a runny nose since Monday.").Sorted()
	want := []string{"chest pain", "fever", "high fever", "runny nose"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match() = %v, want %v", got, want)
	}
}

func TestMatchIgnoresPartialWords(t *testing.T) {
	m := New(vocabulary)
	if got := m.Match("coughing and feverish"); got.Len() != 0 {
		t.Fatalf("partial words must not match, got %v", got.Sorted())
	}
	if got := m.Match(""); got.Len() != 0 {
		t.Fatalf("empty text must not match, got %v", got.Sorted())
	}
}

func TestMatchAcceptsUnderscoreInput(t *testing.T) {
	m := New(vocabulary)
	got := m.Match("skin_rash itching").Sorted()
	if !reflect.DeepEqual(got, []string{"itching", "skin rash"}) {
		t.Fatalf("Match() = %v", got)
	}
}

func TestMatchList(t *testing.T) {
	m := New(vocabulary)
	got := m.MatchList([]string{"Skin Rash", "cough", "headache"}).Sorted()
	if !reflect.DeepEqual(got, []string{"cough", "skin rash"}) {
		t.Fatalf("MatchList() = %v", got)
	}
}

func TestVectorizeKeepsVocabularyOrder(t *testing.T) {
	m := New(vocabulary)
	vector := m.Vectorize(m.Match("cough with itching"))

	want := []float32{1, 0, 0, 0, 0, 0, 1}
	if !reflect.DeepEqual(vector, want) {
		t.Fatalf("Vectorize() = %v, want %v", vector, want)
	}
	if empty := m.Vectorize(nil); len(empty) != len(vocabulary) {
		t.Fatalf("vector length %d drifted from vocabulary length %d", len(empty), len(vocabulary))
	}
}

func TestVocabularyIsCopied(t *testing.T) {
	m := New(vocabulary)
	v := m.Vocabulary()
	v[0] = "mutated"
	if m.Vocabulary()[0] != "itching" {
		t.Fatal("Vocabulary() must return a copy")
	}
}
