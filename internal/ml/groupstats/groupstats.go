// Package groupstats computes customer- and product-level return statistics
// from the training partition only, and applies them uniformly to any row
// set. Nothing derived from evaluation labels may ever enter these tables.
package groupstats

import "return-radar/internal/domain"

type customerStat struct {
	returns float64
	count   int
}

// Tables holds the fitted aggregates. It is immutable after Fit and satisfies
// features.GroupStats.
type Tables struct {
	customers map[string]customerStat
	products  map[string]customerStat
}

// Fit aggregates returned_flag over the given rows, which must be the
// training partition and nothing else. A training row's own label does
// contribute to the statistic later attached to that same row; that mild
// in-partition effect is intentional and documented, a fully out-of-fold
// encoding would go here if it ever becomes a problem.
func Fit(trainRows []domain.OrderRecord) Tables {
	t := Tables{
		customers: make(map[string]customerStat),
		products:  make(map[string]customerStat),
	}
	for i := range trainRows {
		rec := trainRows[i]
		flag := 0.0
		if rec.ReturnedFlag {
			flag = 1.0
		}
		c := t.customers[rec.CustomerID]
		c.returns += flag
		c.count++
		t.customers[rec.CustomerID] = c

		p := t.products[rec.ProductID]
		p.returns += flag
		p.count++
		t.products[rec.ProductID] = p
	}
	return t
}

// Customer returns the training return rate and order count for a customer.
// A customer unseen in training gets the explicit zero defaults for both
// statistics, never an undefined value.
func (t Tables) Customer(customerID string) (retRate float64, orderCount float64) {
	c, ok := t.customers[customerID]
	if !ok || c.count == 0 {
		return 0, 0
	}
	return c.returns / float64(c.count), float64(c.count)
}

// Product returns the training return rate for a product, zero when the
// product never appeared in training.
func (t Tables) Product(productID string) float64 {
	p, ok := t.products[productID]
	if !ok || p.count == 0 {
		return 0
	}
	return p.returns / float64(p.count)
}

func (t Tables) CustomerCount() int { return len(t.customers) }
func (t Tables) ProductCount() int  { return len(t.products) }
