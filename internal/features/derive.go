package features

import (
	"fmt"

	"return-radar/internal/domain"
)

const hoursPerDay = 24

// Derive fills the three engineered fields on a row. They are pure functions
// of the raw fields and must come out identical no matter which partition the
// row later lands in.
func Derive(rec *domain.OrderRecord) error {
	if rec.Quantity <= 0 {
		return fmt.Errorf("order %s: quantity must be > 0, got %d", rec.OrderID, rec.Quantity)
	}
	if rec.ShipDate.Before(rec.OrderDate) {
		return fmt.Errorf("order %s: ship date precedes order date", rec.OrderID)
	}
	rec.ReturnedFlag = rec.ReturnedCount > 0
	rec.ShipDelayDays = int(rec.ShipDate.Sub(rec.OrderDate).Hours()) / hoursPerDay
	rec.UnitPrice = rec.Sales / float64(rec.Quantity)
	return nil
}

func DeriveAll(rows []domain.OrderRecord) error {
	for i := range rows {
		if err := Derive(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}
