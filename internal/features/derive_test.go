package features

import (
	"strings"
	"testing"
	"time"

	"return-radar/internal/domain"
)

func orderFixture() domain.OrderRecord {
	return domain.OrderRecord{
		OrderID:         "O-1",
		CustomerID:      "C-1",
		ProductID:       "P-1",
		ShipMode:        "Standard",
		CustomerSegment: "Consumer",
		Region:          "West",
		Category:        "Furniture",
		SubCategory:     "Chairs",
		Sales:           150.0,
		Quantity:        4,
		Discount:        0.2,
		Profit:          12.5,
		OrderDate:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ShipDate:        time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		ReturnedCount:   2,
	}
}

func TestDeriveComputesEngineeredFields(t *testing.T) {
	rec := orderFixture()
	if err := Derive(&rec); err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !rec.ReturnedFlag {
		t.Fatal("returned_count 2 should set the flag")
	}
	if rec.ShipDelayDays != 3 {
		t.Fatalf("expected delay 3, got %d", rec.ShipDelayDays)
	}
	if rec.UnitPrice != 150.0/4 {
		t.Fatalf("expected unit price 37.5, got %v", rec.UnitPrice)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	a := orderFixture()
	b := orderFixture()
	if err := Derive(&a); err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if err := Derive(&b); err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if err := Derive(&b); err != nil {
		t.Fatalf("second derive failed: %v", err)
	}
	if a.UnitPrice != b.UnitPrice || a.ShipDelayDays != b.ShipDelayDays || a.ReturnedFlag != b.ReturnedFlag {
		t.Fatalf("derive not idempotent: %+v vs %+v", a, b)
	}
}

func TestDeriveRejectsZeroQuantity(t *testing.T) {
	rec := orderFixture()
	rec.Quantity = 0
	err := Derive(&rec)
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if !strings.Contains(err.Error(), "quantity must be > 0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeriveRejectsShipBeforeOrder(t *testing.T) {
	rec := orderFixture()
	rec.ShipDate = rec.OrderDate.AddDate(0, 0, -1)
	if err := Derive(&rec); err == nil {
		t.Fatal("expected error when ship date precedes order date")
	}
}

type fixedStats struct {
	custRate, custCount, prodRate float64
}

func (f fixedStats) Customer(string) (float64, float64) { return f.custRate, f.custCount }
func (f fixedStats) Product(string) float64             { return f.prodRate }

func TestBuildSamplesComposition(t *testing.T) {
	rec := orderFixture()
	if err := Derive(&rec); err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	samples := BuildSamples([]domain.OrderRecord{rec}, fixedStats{0.25, 8, 0.5})
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	s := samples[0]
	if len(s.Numeric) != len(NumericNames) {
		t.Fatalf("numeric width %d != %d names", len(s.Numeric), len(NumericNames))
	}
	if len(s.Categorical) != len(CategoricalNames) {
		t.Fatalf("categorical width %d != %d names", len(s.Categorical), len(CategoricalNames))
	}
	want := []float64{150.0, 4, 0.2, 12.5, 3, 37.5, 0.25, 8, 0.5}
	for i, v := range want {
		if s.Numeric[i] != v {
			t.Fatalf("numeric[%d] (%s) = %v, want %v", i, NumericNames[i], s.Numeric[i], v)
		}
	}
	if s.Label != 1 {
		t.Fatalf("expected positive label, got %v", s.Label)
	}
	if s.Categorical[0] != "Standard" || s.Categorical[4] != "Chairs" {
		t.Fatalf("categorical order broken: %v", s.Categorical)
	}
}
