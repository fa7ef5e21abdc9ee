package groupstats

import (
	"testing"

	"return-radar/internal/domain"
)

func trainFixture() []domain.OrderRecord {
	return []domain.OrderRecord{
		{OrderID: "O-1", CustomerID: "C-1", ProductID: "P-1", ReturnedFlag: true},
		{OrderID: "O-2", CustomerID: "C-1", ProductID: "P-2", ReturnedFlag: false},
		{OrderID: "O-3", CustomerID: "C-1", ProductID: "P-1", ReturnedFlag: true},
		{OrderID: "O-4", CustomerID: "C-2", ProductID: "P-2", ReturnedFlag: false},
	}
}

func TestFitAggregates(t *testing.T) {
	tables := Fit(trainFixture())

	rate, count := tables.Customer("C-1")
	if count != 3 {
		t.Fatalf("C-1 order count = %v, want 3", count)
	}
	if rate != 2.0/3.0 {
		t.Fatalf("C-1 return rate = %v, want 2/3", rate)
	}

	rate, count = tables.Customer("C-2")
	if rate != 0 || count != 1 {
		t.Fatalf("C-2 stats = (%v, %v), want (0, 1)", rate, count)
	}

	if got := tables.Product("P-1"); got != 1.0 {
		t.Fatalf("P-1 return rate = %v, want 1", got)
	}
	if got := tables.Product("P-2"); got != 0 {
		t.Fatalf("P-2 return rate = %v, want 0", got)
	}
}

func TestUnseenKeysDefaultToZero(t *testing.T) {
	tables := Fit(trainFixture())

	rate, count := tables.Customer("C-unseen")
	if rate != 0 || count != 0 {
		t.Fatalf("unseen customer = (%v, %v), want (0, 0)", rate, count)
	}
	if got := tables.Product("P-unseen"); got != 0 {
		t.Fatalf("unseen product = %v, want 0", got)
	}
}

// Mutating evaluation rows after fitting must not change a single value in
// the tables: the aggregator only ever sees the training partition.
func TestLeakageFreedom(t *testing.T) {
	train := trainFixture()
	eval := []domain.OrderRecord{
		{OrderID: "O-9", CustomerID: "C-1", ProductID: "P-1", ReturnedFlag: false},
	}

	tables := Fit(train)
	rateBefore, countBefore := tables.Customer("C-1")
	prodBefore := tables.Product("P-1")

	eval[0].ReturnedFlag = true
	eval[0].ReturnedCount = 99

	rateAfter, countAfter := tables.Customer("C-1")
	if rateAfter != rateBefore || countAfter != countBefore {
		t.Fatalf("customer stats changed after eval mutation: (%v,%v) -> (%v,%v)",
			rateBefore, countBefore, rateAfter, countAfter)
	}
	if tables.Product("P-1") != prodBefore {
		t.Fatal("product stats changed after eval mutation")
	}
}

func TestFitIsPureAggregation(t *testing.T) {
	train := trainFixture()
	a := Fit(train)
	b := Fit(train)
	ar, ac := a.Customer("C-1")
	br, bc := b.Customer("C-1")
	if ar != br || ac != bc {
		t.Fatal("refitting the same partition must give identical tables")
	}
	if a.CustomerCount() != 2 || a.ProductCount() != 2 {
		t.Fatalf("unexpected table sizes: %d customers, %d products", a.CustomerCount(), a.ProductCount())
	}
}
