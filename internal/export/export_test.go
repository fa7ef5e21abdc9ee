package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"return-radar/internal/domain"
	"return-radar/internal/ml/eval"
)

func TestWritePredictionsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "predictions.csv")
	records := []domain.PredictionRecord{
		{OrderID: "ORD-1", PredictedReturn: true, PredictedProba: 0.91},
		{OrderID: "ORD-2", PredictedReturn: false, PredictedProba: 0.12},
	}
	if err := WritePredictionsCSV(path, records); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "order_id" || rows[0][1] != "predicted_return" || rows[0][2] != "predicted_proba" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "ORD-1" || rows[1][1] != "1" || rows[1][2] != "0.910000" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][1] != "0" {
		t.Fatalf("negative prediction should serialize as 0, got %v", rows[2])
	}
}

func TestWritePredictionsCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.csv")
	if err := WritePredictionsCSV(path, nil); err != nil {
		t.Fatalf("empty export should still write a header: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected a header line")
	}
}

func TestSaveROCChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "roc.png")
	fpr := []float64{0, 0.2, 0.5, 1}
	tpr := []float64{0, 0.6, 0.9, 1}
	if err := SaveROCChart(path, fpr, tpr, 0.84); err != nil {
		t.Fatalf("chart save failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty chart file, err=%v", err)
	}
}

func TestSaveROCChartMismatchedSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roc.png")
	if err := SaveROCChart(path, []float64{0, 1}, []float64{0}, 0.5); err == nil {
		t.Fatal("expected error for mismatched series")
	}
}

func TestSaveImportanceChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "importance.png")
	imps := []eval.Importance{
		{Name: "cust_ret_rate", Score: 0.12, Index: 6},
		{Name: "unit_price", Score: 0.04, Index: 5},
	}
	if err := SaveImportanceChart(path, imps); err != nil {
		t.Fatalf("chart save failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty chart file, err=%v", err)
	}
	if err := SaveImportanceChart(path, nil); err == nil {
		t.Fatal("expected error for empty importances")
	}
}
