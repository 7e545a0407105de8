package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/catalog"
	"github.com/Skufu/symptomcheck/internal/classifier"
	"github.com/Skufu/symptomcheck/internal/followup"
	"github.com/Skufu/symptomcheck/internal/llmparse"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/matcher"
	"github.com/Skufu/symptomcheck/internal/models"
	"github.com/Skufu/symptomcheck/internal/symptom"
)

type budgets struct {
	perDisease int
	total      int
}

// App holds the read-only components shared by every handler.
type App struct {
	log      *logger.Logger
	db       HealthChecker
	matcher  *matcher.Matcher
	symptoms classifier.Classifier
	diabetes *classifier.DiabetesModel
	selector *followup.Selector
	details  *catalog.Details
	tests    map[string]string
	parser   *llmparse.Parser
	budgets  budgets
}

func (a *App) handleAvailableTests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"available_tests": a.tests})
}

func (a *App) handleTopPredictions(c *gin.Context) {
	var req models.TopPredictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	text := strings.TrimSpace(req.Symptoms)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symptoms is required"})
		return
	}
	topK := 0
	if req.TopK != nil {
		if *req.TopK < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_k must not be negative"})
			return
		}
		topK = *req.TopK
	}

	predictions, err := a.predict(c.Request.Context(), a.matcher.Match(text), topK)
	if err != nil {
		a.externalFailure(c, "prediction failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (a *App) handlePredict(c *gin.Context) {
	var req models.TopPredictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	text := strings.TrimSpace(req.Symptoms)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symptoms is required"})
		return
	}

	predictions, err := a.predict(c.Request.Context(), a.matcher.Match(text), 1)
	if err != nil {
		a.externalFailure(c, "prediction failed", err)
		return
	}
	if len(predictions) == 0 {
		c.JSON(http.StatusOK, gin.H{"result": nil, "suggested_test": nil})
		return
	}

	top := predictions[0]
	detail := a.details.Describe(top.Disease)
	c.JSON(http.StatusOK, gin.H{
		"result": models.PredictionResult{
			PredictedDisease: top.Disease,
			ConfidenceScore:  top.Confidence,
			Description:      detail.Description,
			Recommendations:  detail.Recommendations,
		},
		"suggested_test": a.suggestTest(top.Disease),
	})
}

func (a *App) handleDiseaseInfo(c *gin.Context) {
	var req struct {
		Diseases []string `json:"diseases"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Diseases) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "diseases must be a non-empty list"})
		return
	}

	results := make([]models.DiseaseDetail, 0, len(req.Diseases))
	suggested := []models.SuggestedTest{}
	for _, disease := range req.Diseases {
		results = append(results, a.details.Describe(disease))
		if test := a.suggestTest(disease); test != nil {
			suggested = append(suggested, *test)
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "suggested_tests": suggested})
}

func (a *App) handleFollowUp(c *gin.Context) {
	var req models.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	perDisease, total := a.budgets.perDisease, a.budgets.total
	if req.MaxPerDisease != nil {
		perDisease = *req.MaxPerDisease
	}
	if req.MaxTotal != nil {
		total = *req.MaxTotal
	}
	if perDisease < 0 || total < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_per_disease and max_total must not be negative"})
		return
	}

	predictions, err := a.predict(c.Request.Context(), a.matchEach(req.CurrentSymptoms), 0)
	if err != nil {
		a.externalFailure(c, "prediction failed", err)
		return
	}

	questions := a.selector.Select(followup.Request{
		Predictions:   predictions,
		Current:       symptom.NewSet(req.CurrentSymptoms...),
		Removed:       symptom.NewSet(req.SymptomsRemoved...),
		MaxPerDisease: perDisease,
		MaxTotal:      total,
	})
	c.JSON(http.StatusOK, gin.H{"follow_up_questions": questions})
}

func (a *App) handleDiabetes(c *gin.Context) {
	var req models.DiabetesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	fields := []*float64{
		req.Pregnancies, req.Glucose, req.BloodPressure, req.SkinThickness,
		req.Insulin, req.BMI, req.DiabetesPedigreeFunction, req.Age,
	}
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		if field == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing diabetes parameters"})
			return
		}
		values = append(values, *field)
	}

	result, err := a.diabetes.Predict(c.Request.Context(), values)
	if err != nil {
		a.externalFailure(c, "diabetes prediction failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *App) handleLLMParse(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := a.parser.Parse(c.Request.Context(), req.Message)
	if errors.Is(err, llmparse.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if err != nil {
		a.externalFailure(c, "llm parse failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// predict runs matched symptoms through the symptom classifier. No matched
// symptoms means no predictions, without calling the model.
func (a *App) predict(ctx context.Context, matched symptom.Set, topK int) ([]models.Prediction, error) {
	if matched.Len() == 0 {
		return []models.Prediction{}, nil
	}
	predictions, err := a.symptoms.Predict(ctx, a.matcher.Vectorize(matched))
	if err != nil {
		return nil, err
	}
	return classifier.Rank(predictions, topK), nil
}

// matchEach matches every entry on its own so phrases never span two
// reported symptoms.
func (a *App) matchEach(items []string) symptom.Set {
	matched := symptom.Set{}
	for _, item := range items {
		for s := range a.matcher.Match(item) {
			matched.Add(s)
		}
	}
	return matched
}

func (a *App) suggestTest(disease string) *models.SuggestedTest {
	model, ok := a.tests[disease]
	if !ok {
		return nil
	}
	return &models.SuggestedTest{Disease: disease, Model: model, TestName: disease}
}

func (a *App) externalFailure(c *gin.Context, msg string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, classifier.ErrModelUnavailable) || errors.Is(err, llmparse.ErrNotConfigured) {
		status = http.StatusServiceUnavailable
	}
	a.log.Error(msg, "request_id", c.GetString("request_id"), "error", err)
	c.JSON(status, gin.H{"error": msg + ": " + err.Error()})
}
