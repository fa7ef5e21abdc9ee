package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatasetPath string
	ExportPath  string
	ChartDir    string

	DatabaseURL   string
	RedisURL      string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	APIKey        string

	Seed              int64
	HoldoutFraction   float64
	SearchTrials      int
	SearchWorkers     int
	CVFolds           int
	TopFeatures       int
	DecisionThreshold float64
	MinTrainRows      int
	AnomalyThreshold  float64
	TrainHourUTC      int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		Neo4jURI:      strings.TrimSpace(os.Getenv("NEO4J_URI")),
		Neo4jUser:     strings.TrimSpace(os.Getenv("NEO4J_USER")),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, model registry and prediction store disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.Neo4jURI == "" {
		log.Println("Warning: NEO4J_URI not set, graph write-back disabled")
	}
	if cfg.Neo4jUser == "" {
		cfg.Neo4jUser = "neo4j"
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, pipeline trigger endpoint is unprotected")
	}

	cfg.DatasetPath = strings.TrimSpace(os.Getenv("ORDERS_CSV"))
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = "orders_clean.csv"
	}

	cfg.ExportPath = strings.TrimSpace(os.Getenv("PREDICTIONS_CSV"))
	if cfg.ExportPath == "" {
		cfg.ExportPath = "order_return_predictions.csv"
	}

	cfg.ChartDir = strings.TrimSpace(os.Getenv("CHART_DIR"))
	if cfg.ChartDir == "" {
		cfg.ChartDir = "."
	}

	cfg.Seed = 42
	if v := strings.TrimSpace(os.Getenv("PIPELINE_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}

	cfg.HoldoutFraction = 0.2
	if v := strings.TrimSpace(os.Getenv("HOLDOUT_FRACTION")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.HoldoutFraction = n
		}
	}

	cfg.SearchTrials = 20
	if v := strings.TrimSpace(os.Getenv("SEARCH_TRIALS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchTrials = n
		}
	}

	cfg.SearchWorkers = 4
	if v := strings.TrimSpace(os.Getenv("SEARCH_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchWorkers = n
		}
	}

	cfg.CVFolds = 3
	if v := strings.TrimSpace(os.Getenv("CV_FOLDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 2 {
			cfg.CVFolds = n
		}
	}

	cfg.TopFeatures = 10
	if v := strings.TrimSpace(os.Getenv("TOP_FEATURES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopFeatures = n
		}
	}

	cfg.DecisionThreshold = 0.5
	if v := strings.TrimSpace(os.Getenv("DECISION_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.DecisionThreshold = n
		}
	}

	cfg.MinTrainRows = 10
	if v := strings.TrimSpace(os.Getenv("MIN_TRAIN_ROWS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinTrainRows = n
		}
	}

	cfg.AnomalyThreshold = 0.65
	if v := strings.TrimSpace(os.Getenv("ANOMALY_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.AnomalyThreshold = n
		}
	}

	cfg.TrainHourUTC = 0
	if v := strings.TrimSpace(os.Getenv("TRAIN_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.TrainHourUTC = n
		}
	}

	return cfg
}
