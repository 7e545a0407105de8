package classifier

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Skufu/symptomcheck/internal/models"
)

type stubClassifier struct {
	predictions []models.Prediction
	err         error
	calls       int
}

func (s *stubClassifier) Predict(context.Context, []float32) ([]models.Prediction, error) {
	s.calls++
	return s.predictions, s.err
}

type memoryStore struct {
	data    map[string]string
	readErr error
}

func (m *memoryStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	if m.readErr != nil {
		return goredis.NewStringResult("", m.readErr)
	}
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return goredis.NewStatusResult("OK", nil)
}

func TestRankSortsAndTruncates(t *testing.T) {
	in := []models.Prediction{
		{Disease: "A", Confidence: 0.1},
		{Disease: "B", Confidence: 0.7},
		{Disease: "C", Confidence: 0.1},
		{Disease: "D", Confidence: 0.1},
	}
	got := Rank(in, 0)
	want := []string{"B", "A", "C", "D"}
	for i, p := range got {
		if p.Disease != want[i] {
			t.Fatalf("Rank() order = %+v, want %v", got, want)
		}
	}
	if in[0].Disease != "A" {
		t.Fatal("Rank must not reorder its input")
	}
	if top := Rank(in, 2); len(top) != 2 || top[0].Disease != "B" {
		t.Fatalf("Rank(top 2) = %+v", top)
	}
}

func TestLabel(t *testing.T) {
	got, err := Label([]string{"Flu", "Cold"}, []float32{0.75, 0.25})
	if err != nil {
		t.Fatalf("Label() unexpected error: %v", err)
	}
	want := []models.Prediction{{Disease: "Flu", Confidence: 0.75}, {Disease: "Cold", Confidence: 0.25}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Label() = %+v", got)
	}
	if _, err := Label([]string{"Flu"}, []float32{1, 0}); !errors.Is(err, ErrLabelMismatch) {
		t.Fatalf("expected ErrLabelMismatch, got %v", err)
	}
}

func TestCachedClassifierHitsModelOnce(t *testing.T) {
	stub := &stubClassifier{predictions: []models.Prediction{{Disease: "Flu", Confidence: 0.5}}}
	store := &memoryStore{data: map[string]string{}}
	cached := NewCachedClassifier(stub, store, time.Minute, "test:", nil)

	features := []float32{1, 0, 1}
	for i := 0; i < 3; i++ {
		got, err := cached.Predict(context.Background(), features)
		if err != nil {
			t.Fatalf("Predict() unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, stub.predictions) {
			t.Fatalf("Predict() = %+v", got)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("expected one model call, got %d", stub.calls)
	}
	if _, err := cached.Predict(context.Background(), []float32{0, 1, 1}); err != nil || stub.calls != 2 {
		t.Fatalf("different vector must miss the cache (calls=%d, err=%v)", stub.calls, err)
	}
}

func TestCachedClassifierSurvivesStoreFailure(t *testing.T) {
	stub := &stubClassifier{predictions: []models.Prediction{{Disease: "Flu", Confidence: 0.5}}}
	store := &memoryStore{data: map[string]string{}, readErr: errors.New("connection refused")}
	cached := NewCachedClassifier(stub, store, 0, "test:", nil)

	if _, err := cached.Predict(context.Background(), []float32{1}); err != nil {
		t.Fatalf("cache failure must not fail the prediction: %v", err)
	}
}

func TestCachedClassifierPropagatesModelError(t *testing.T) {
	stub := &stubClassifier{err: ErrModelUnavailable}
	cached := NewCachedClassifier(stub, &memoryStore{data: map[string]string{}}, 0, "", nil)
	if _, err := cached.Predict(context.Background(), []float32{1}); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestDiabetesModel(t *testing.T) {
	stub := &stubClassifier{predictions: []models.Prediction{
		{Disease: "No Diabetes", Confidence: 0.1234},
		{Disease: "Diabetes", Confidence: 0.8766},
	}}
	model := NewDiabetesModel(stub)

	result, err := model.Predict(context.Background(), []float64{12, 121, 78, 17, 0, 26.5, 0.259, 62})
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if result.PredictedClass != "Diabetes" || result.Confidence != 87.66 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := model.Predict(context.Background(), []float64{1, 2}); !errors.Is(err, ErrFeatureLength) {
		t.Fatalf("expected ErrFeatureLength, got %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	if _, err := (Unavailable{}).Predict(context.Background(), nil); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
