// Package classifier wraps the pretrained models the service consults. The
// models themselves are opaque: a feature vector goes in, per-class
// confidences come out.
package classifier

import (
	"context"
	"errors"
	"sort"

	"github.com/Skufu/symptomcheck/internal/models"
)

var (
	ErrFeatureLength    = errors.New("feature vector length does not match model input")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrLabelMismatch    = errors.New("model output size does not match label count")
)

// Classifier returns one prediction per label, in no particular order.
type Classifier interface {
	Predict(ctx context.Context, features []float32) ([]models.Prediction, error)
}

// Rank sorts predictions by descending confidence, keeping label order for
// ties, and keeps the first topK when topK > 0. The input is not modified.
func Rank(predictions []models.Prediction, topK int) []models.Prediction {
	ranked := make([]models.Prediction, len(predictions))
	copy(ranked, predictions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked
}

// Label pairs raw model output with the label space.
func Label(labels []string, scores []float32) ([]models.Prediction, error) {
	if len(labels) != len(scores) {
		return nil, ErrLabelMismatch
	}
	out := make([]models.Prediction, len(labels))
	for i, label := range labels {
		out[i] = models.Prediction{Disease: label, Confidence: float64(scores[i])}
	}
	return out, nil
}

// Unavailable stands in when no model is configured; every call fails with
// ErrModelUnavailable so handlers can report it distinctly.
type Unavailable struct{}

func (Unavailable) Predict(context.Context, []float32) ([]models.Prediction, error) {
	return nil, ErrModelUnavailable
}
