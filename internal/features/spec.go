package features

import "return-radar/internal/domain"

const featureSpecVersion = "v1"

func FeatureSpecVersion() string {
	return featureSpecVersion
}

// NumericNames is the fixed order of numeric features fed to the classifier.
// The last three are the training-derived group statistics.
var NumericNames = []string{
	"sales", "quantity", "discount", "profit",
	"ship_delay_days", "unit_price",
	"cust_ret_rate", "cust_order_cnt", "prod_ret_rate",
}

// CategoricalNames is the fixed order of one-hot encoded columns.
var CategoricalNames = []string{
	"ship_mode", "customer_segment", "region", "category", "sub_category",
}

// GroupStats supplies the training-only aggregate statistics for a row's
// customer and product keys.
type GroupStats interface {
	Customer(customerID string) (retRate float64, orderCount float64)
	Product(productID string) (retRate float64)
}

// BuildSamples assembles the exact classifier input for a set of derived
// rows. The composition is identical for training and evaluation rows; only
// the stats source differs in what it was fitted on, never in how it is
// applied.
func BuildSamples(rows []domain.OrderRecord, stats GroupStats) []domain.Sample {
	samples := make([]domain.Sample, 0, len(rows))
	for i := range rows {
		rec := rows[i]
		custRate, custCount := stats.Customer(rec.CustomerID)
		prodRate := stats.Product(rec.ProductID)

		label := 0.0
		if rec.ReturnedFlag {
			label = 1.0
		}
		samples = append(samples, domain.Sample{
			OrderID: rec.OrderID,
			Numeric: []float64{
				rec.Sales,
				float64(rec.Quantity),
				rec.Discount,
				rec.Profit,
				float64(rec.ShipDelayDays),
				rec.UnitPrice,
				custRate,
				custCount,
				prodRate,
			},
			Categorical: []string{
				rec.ShipMode,
				rec.CustomerSegment,
				rec.Region,
				rec.Category,
				rec.SubCategory,
			},
			Label: label,
		})
	}
	return samples
}
