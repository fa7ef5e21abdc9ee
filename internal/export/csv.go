// Package export writes run outputs: the scored-orders CSV and the report
// charts.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"return-radar/internal/domain"
)

// WritePredictionsCSV writes one row per scored order in input order. The
// parent directory is created if missing.
func WritePredictionsCSV(path string, records []domain.PredictionRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"order_id", "predicted_return", "predicted_proba"}); err != nil {
		return err
	}
	for _, r := range records {
		flag := "0"
		if r.PredictedReturn {
			flag = "1"
		}
		rec := []string{r.OrderID, flag, strconv.FormatFloat(r.PredictedProba, 'f', 6, 64)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
