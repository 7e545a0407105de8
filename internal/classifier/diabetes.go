package classifier

import (
	"context"
	"math"

	"github.com/Skufu/symptomcheck/internal/models"
)

// DiabetesFeatures is the input order the diabetes model was trained on.
var DiabetesFeatures = []string{
	"pregnancies",
	"glucose",
	"blood_pressure",
	"skin_thickness",
	"insulin",
	"bmi",
	"diabetes_pedigree_function",
	"age",
}

var DiabetesLabels = []string{"No Diabetes", "Diabetes"}

type DiabetesModel struct {
	model Classifier
}

func NewDiabetesModel(model Classifier) *DiabetesModel {
	return &DiabetesModel{model: model}
}

// Predict returns the most likely class and its confidence as a percentage
// rounded to two places.
func (d *DiabetesModel) Predict(ctx context.Context, values []float64) (models.DiabetesResult, error) {
	if len(values) != len(DiabetesFeatures) {
		return models.DiabetesResult{}, ErrFeatureLength
	}
	features := make([]float32, len(values))
	for i, v := range values {
		features[i] = float32(v)
	}

	predictions, err := d.model.Predict(ctx, features)
	if err != nil {
		return models.DiabetesResult{}, err
	}
	ranked := Rank(predictions, 1)
	if len(ranked) == 0 {
		return models.DiabetesResult{}, ErrLabelMismatch
	}
	return models.DiabetesResult{
		PredictedClass: ranked[0].Disease,
		Confidence:     math.Round(ranked[0].Confidence*100*100) / 100,
	}, nil
}
