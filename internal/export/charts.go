package export

import (
	"fmt"
	"os"
	"path/filepath"

	"return-radar/internal/ml/eval"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveROCChart renders the ROC curve with the chance diagonal for reference.
func SaveROCChart(path string, fpr, tpr []float64, auc float64) error {
	if len(fpr) != len(tpr) {
		return fmt.Errorf("curve series lengths differ: %d vs %d", len(fpr), len(tpr))
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve := make(plotter.XYs, len(fpr))
	for i := range fpr {
		curve[i].X = fpr[i]
		curve[i].Y = tpr[i]
	}
	chance := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}

	if err := plotutil.AddLinePoints(p, "Model", curve, "Chance", chance); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// SaveImportanceChart renders the top features as a horizontal-style bar
// chart, highest score first.
func SaveImportanceChart(path string, importances []eval.Importance) error {
	if len(importances) == 0 {
		return fmt.Errorf("no importances to chart")
	}
	p := plot.New()
	p.Title.Text = "Permutation feature importance"
	p.Y.Label.Text = "AUC drop"

	values := make(plotter.Values, len(importances))
	labels := make([]string, len(importances))
	for i, imp := range importances {
		values[i] = imp.Score
		labels[i] = imp.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
