package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TableSourceFile     = "file"
	TableSourcePostgres = "postgres"
	TableSourceSQLite   = "sqlite"
)

type Config struct {
	Port        string
	GinMode     string
	LogMode     string
	CORSOrigins []string

	EnableDB    bool
	DatabaseURL string
	TableSource string
	SQLitePath  string

	ModelDetailPath string
	DatasetPath     string
	DescriptionPath string
	PrecautionPath  string
	TestsPath       string

	ONNXRuntimeLib    string
	SymptomModelPath  string
	DiabetesModelPath string

	RedisAddr          string
	PredictionCacheTTL time.Duration

	OpenAIAPIKey string
	LLMBaseURL   string
	LLMModel     string
	LLMTimeout   time.Duration

	DefaultMaxPerDisease int
	DefaultMaxTotal      int
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		LogMode:     getEnv("LOG_MODE", "production"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),

		EnableDB:    strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TableSource: strings.ToLower(getEnv("TABLE_SOURCE", "")),
		SQLitePath:  os.Getenv("SQLITE_PATH"),

		ModelDetailPath: getEnv("MODEL_DETAIL_PATH", "resources/model_detail.json"),
		DatasetPath:     getEnv("DATASET_PATH", "resources/dataset.csv"),
		DescriptionPath: getEnv("DESCRIPTION_PATH", "resources/symptom_Description.csv"),
		PrecautionPath:  getEnv("PRECAUTION_PATH", "resources/symptom_precaution.csv"),
		TestsPath:       getEnv("TESTS_PATH", "resources/all_disease_specific_model_details.json"),

		ONNXRuntimeLib:    os.Getenv("ONNX_RUNTIME_LIB"),
		SymptomModelPath:  os.Getenv("SYMPTOM_MODEL_PATH"),
		DiabetesModelPath: os.Getenv("DIABETES_MODEL_PATH"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		PredictionCacheTTL: time.Duration(getInt("PREDICTION_CACHE_TTL_SECONDS", 600)) * time.Second,

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		LLMBaseURL:   os.Getenv("LLM_BASE_URL"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		LLMTimeout:   time.Duration(getInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,

		DefaultMaxPerDisease: getInt("DEFAULT_MAX_PER_DISEASE", 3),
		DefaultMaxTotal:      getInt("DEFAULT_MAX_TOTAL", 10),
	}

	if cfg.TableSource == "" {
		cfg.TableSource = TableSourceFile
		if cfg.EnableDB {
			cfg.TableSource = TableSourcePostgres
		}
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	switch cfg.TableSource {
	case TableSourceFile:
	case TableSourcePostgres:
		if !cfg.EnableDB {
			return nil, fmt.Errorf("TABLE_SOURCE=postgres requires ENABLE_DB=true")
		}
	case TableSourceSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when TABLE_SOURCE=sqlite")
		}
	default:
		return nil, fmt.Errorf("unknown TABLE_SOURCE %q", cfg.TableSource)
	}

	if cfg.DefaultMaxPerDisease < 0 || cfg.DefaultMaxTotal < 0 {
		return nil, fmt.Errorf("follow-up budgets must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
