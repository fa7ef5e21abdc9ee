package domain

import "time"

// OrderRecord is one row of the cleaned orders dataset. Raw fields come from
// the CSV; derived fields are filled in once by the feature deriver and are
// pure functions of the raw fields.
type OrderRecord struct {
	OrderID         string
	CustomerID      string
	ProductID       string
	ShipMode        string
	CustomerSegment string
	Region          string
	Category        string
	SubCategory     string
	Sales           float64
	Quantity        int
	Discount        float64
	Profit          float64
	OrderDate       time.Time
	ShipDate        time.Time
	ReturnedCount   int

	ReturnedFlag  bool
	ShipDelayDays int
	UnitPrice     float64
}

// Sample is the model-facing view of an order: numeric features in a fixed
// order, raw categorical values in a fixed order, and the binary label.
type Sample struct {
	OrderID     string
	Numeric     []float64
	Categorical []string
	Label       float64
}

type PredictionRecord struct {
	ID              int64
	OrderID         string
	ModelKey        string
	ModelVersion    int
	PredictedReturn bool
	PredictedProba  float64
	CreatedAt       time.Time
}

type ModelVersion struct {
	ID                 int64
	ModelKey           string
	Version            int
	FeatureSpecVersion string
	TrainedAt          time.Time
	HyperparamsJSON    string
	MetricsJSON        string
	ArtifactFormat     string
	ArtifactBlob       []byte
	IsActive           bool
	ActivatedAt        *time.Time
	CreatedAt          time.Time
}

// CommunityStat is one product co-purchase cluster reported by the graph
// engine, ranked by member count.
type CommunityStat struct {
	ClusterID  int64
	Size       int64
	Rank       int
	ComputedAt time.Time
}

// RunSummary is the per-run report cached for the HTTP API.
type RunSummary struct {
	RunAt           time.Time `json:"run_at"`
	ModelKey        string    `json:"model_key"`
	ModelVersion    int       `json:"model_version"`
	TrainRows       int       `json:"train_rows"`
	EvalRows        int       `json:"eval_rows"`
	PositiveRate    float64   `json:"positive_rate"`
	HoldoutAUC      float64   `json:"holdout_auc"`
	BaselineAUC     float64   `json:"baseline_auc"`
	BestParamsJSON  string    `json:"best_params_json"`
	Promoted        bool      `json:"promoted"`
	AnomalousOrders int       `json:"anomalous_orders"`
	ExportPath      string    `json:"export_path"`
}
