package models

// Prediction is one classifier output: a disease label and its confidence.
// Confidence is either a fraction in [0,1] or a percentage, depending on the
// producer; consumers that score with it normalize by magnitude.
type Prediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// FollowUpGroup is one batch of symptoms to confirm or deny for a candidate
// disease.
type FollowUpGroup struct {
	Disease    string   `json:"disease"`
	Symptoms   []string `json:"symptoms"`
	Question   string   `json:"question"`
	Confidence float64  `json:"confidence"`
}

type DiseaseDetail struct {
	Disease         string   `json:"disease"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

type SuggestedTest struct {
	Disease  string `json:"disease"`
	Model    string `json:"model"`
	TestName string `json:"test_name"`
}

type PredictionResult struct {
	PredictedDisease string   `json:"predicted_disease"`
	ConfidenceScore  float64  `json:"confidence_score"`
	Description      string   `json:"description"`
	Recommendations  []string `json:"recommendations"`
}

type FollowUpRequest struct {
	CurrentSymptoms []string `json:"current_symptoms"`
	SymptomsRemoved []string `json:"symptoms_removed"`
	MaxPerDisease   *int     `json:"max_per_disease"`
	MaxTotal        *int     `json:"max_total"`
}

type TopPredictionsRequest struct {
	Symptoms string `json:"symptoms"`
	TopK     *int   `json:"top_k"`
}

type DiabetesRequest struct {
	Pregnancies              *float64 `json:"pregnancies"`
	Glucose                  *float64 `json:"glucose"`
	BloodPressure            *float64 `json:"blood_pressure"`
	SkinThickness            *float64 `json:"skin_thickness"`
	Insulin                  *float64 `json:"insulin"`
	BMI                      *float64 `json:"bmi"`
	DiabetesPedigreeFunction *float64 `json:"diabetes_pedigree_function"`
	Age                      *float64 `json:"age"`
}

type DiabetesResult struct {
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
}
