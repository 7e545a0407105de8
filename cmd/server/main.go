package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/catalog"
	"github.com/Skufu/symptomcheck/internal/classifier"
	"github.com/Skufu/symptomcheck/internal/config"
	"github.com/Skufu/symptomcheck/internal/followup"
	"github.com/Skufu/symptomcheck/internal/llmparse"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/matcher"
	"github.com/Skufu/symptomcheck/internal/stats"
	"github.com/Skufu/symptomcheck/internal/store"
)

const predictionCachePrefix = "symptomcheck:predictions:"

type HealthChecker interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()
	app, cleanup, err := buildApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", "error", err)
	}
	defer cleanup()

	router := setupRouter(app, cfg.CORSOrigins)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("server error", "error", err)
		}
	}()

	lg.Info("server listening", "port", cfg.Port, "table_source", cfg.TableSource)
	waitForShutdown(server, lg)
}

// buildApp loads every static resource once and wires the read-only
// components handlers share. The returned cleanup releases connections and
// model sessions.
func buildApp(ctx context.Context, cfg *config.Config, lg *logger.Logger) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	detail, err := catalog.LoadModelDetail(cfg.ModelDetailPath)
	if err != nil {
		return fail(err)
	}

	var db HealthChecker
	if cfg.EnableDB {
		pool, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pool.Close)
		db = pool
	}

	table, err := loadConditionTable(ctx, cfg, detail, db, lg)
	if err != nil {
		return fail(err)
	}

	dataset, err := catalog.LoadDataset(cfg.DatasetPath)
	if errors.Is(err, fs.ErrNotExist) {
		lg.Warn("fallback dataset not found; resolving from the primary table only", "path", cfg.DatasetPath)
		dataset, err = nil, nil
	}
	if err != nil {
		return fail(err)
	}

	details, err := catalog.LoadDetails(existingOrEmpty(cfg.DescriptionPath, lg), existingOrEmpty(cfg.PrecautionPath, lg))
	if err != nil {
		return fail(err)
	}

	tests := map[string]string{}
	if path := existingOrEmpty(cfg.TestsPath, lg); path != "" {
		if tests, err = catalog.LoadAvailableTests(path); err != nil {
			return fail(err)
		}
	}

	symptomModel, closeModel, err := openSymptomModel(ctx, cfg, detail, lg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeModel)

	diabetesModel, closeDiabetes, err := openDiabetesModel(cfg, lg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeDiabetes)

	var completer llmparse.Completer
	if cfg.OpenAIAPIKey != "" {
		client, err := llmparse.NewClient(llmparse.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return fail(err)
		}
		completer = client
	} else {
		lg.Warn("OPENAI_API_KEY not set; /api/llm/parse is disabled")
	}

	index := catalog.NewIndex(table, dataset)
	app := &App{
		log:      lg,
		db:       db,
		matcher:  matcher.New(detail.AllSymptoms),
		symptoms: symptomModel,
		diabetes: classifier.NewDiabetesModel(diabetesModel),
		selector: followup.NewSelector(stats.Compute(table), index),
		details:  details,
		tests:    tests,
		parser:   llmparse.NewParser(completer, detail.AllSymptoms, sortedKeys(tests)),
		budgets: budgets{
			perDisease: cfg.DefaultMaxPerDisease,
			total:      cfg.DefaultMaxTotal,
		},
	}

	lg.Info("resources loaded",
		"vocabulary", len(detail.AllSymptoms),
		"diseases", len(index.Diseases()),
		"available_tests", len(tests),
	)
	return app, cleanup, nil
}

// loadConditionTable reads the primary table from the configured source. An
// empty SQLite store is seeded from the model detail file first.
func loadConditionTable(ctx context.Context, cfg *config.Config, detail *catalog.ModelDetail, db HealthChecker, lg *logger.Logger) (catalog.Table, error) {
	switch cfg.TableSource {
	case config.TableSourcePostgres:
		pool, ok := db.(store.Querier)
		if !ok {
			return nil, errors.New("postgres table source needs a database connection")
		}
		return store.NewPostgresSource(pool).LoadConditionSymptoms(ctx)
	case config.TableSourceSQLite:
		database, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := database.DB(); err == nil {
			defer sqlDB.Close()
		}
		source := store.NewSQLiteSource(database)
		table, err := source.LoadConditionSymptoms(ctx)
		if err != nil || len(table) > 0 {
			return table, err
		}
		lg.Info("seeding sqlite condition table from model detail", "path", cfg.SQLitePath)
		seed, err := detail.LoadConditionSymptoms(ctx)
		if err != nil {
			return nil, err
		}
		if err := source.Seed(ctx, seed); err != nil {
			return nil, err
		}
		return source.LoadConditionSymptoms(ctx)
	default:
		return detail.LoadConditionSymptoms(ctx)
	}
}

func openSymptomModel(ctx context.Context, cfg *config.Config, detail *catalog.ModelDetail, lg *logger.Logger) (classifier.Classifier, func(), error) {
	path := cfg.SymptomModelPath
	if path == "" && strings.EqualFold(filepath.Ext(detail.ModelPath), ".onnx") {
		if candidate := filepath.Join(filepath.Dir(cfg.ModelDetailPath), detail.ModelPath); fileExists(candidate) {
			path = candidate
		}
	}
	if path == "" {
		lg.Warn("no symptom model configured; prediction endpoints will report unavailable")
		return classifier.Unavailable{}, func() {}, nil
	}

	if err := classifier.InitRuntime(cfg.ONNXRuntimeLib); err != nil {
		return nil, nil, err
	}
	model, err := classifier.NewONNXModel(classifier.ONNXConfig{
		ModelPath: path,
		Features:  len(detail.AllSymptoms),
		Labels:    detail.DiseasesClasses,
	})
	if err != nil {
		return nil, nil, err
	}
	closeModel := func() { _ = model.Close() }

	if cfg.RedisAddr == "" {
		return model, closeModel, nil
	}
	rdb, err := classifier.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		closeModel()
		return nil, nil, err
	}
	cached := classifier.NewCachedClassifier(model, rdb, cfg.PredictionCacheTTL, predictionCachePrefix, lg)
	return cached, func() { _ = rdb.Close(); closeModel() }, nil
}

func openDiabetesModel(cfg *config.Config, lg *logger.Logger) (classifier.Classifier, func(), error) {
	if cfg.DiabetesModelPath == "" {
		lg.Warn("no diabetes model configured; /api/diabetes/predict will report unavailable")
		return classifier.Unavailable{}, func() {}, nil
	}
	if err := classifier.InitRuntime(cfg.ONNXRuntimeLib); err != nil {
		return nil, nil, err
	}
	model, err := classifier.NewONNXModel(classifier.ONNXConfig{
		ModelPath: cfg.DiabetesModelPath,
		Features:  len(classifier.DiabetesFeatures),
		Labels:    classifier.DiabetesLabels,
	})
	if err != nil {
		return nil, nil, err
	}
	return model, func() { _ = model.Close() }, nil
}

func existingOrEmpty(path string, lg *logger.Logger) string {
	if path == "" || fileExists(path) {
		return path
	}
	lg.Warn("optional resource not found", "path", path)
	return ""
}

func waitForShutdown(server *http.Server, lg *logger.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		lg.Error("graceful shutdown failed", "error", err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
