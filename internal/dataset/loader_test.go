package dataset

import (
	"strings"
	"testing"
)

const goodCSV = `order_id,customer_id,product_id,ship_mode,customer_segment,region,category,sub_category,sales,quantity,discount,profit,order_date,ship_date,returned_count
O-1,C-1,P-1,Standard,Consumer,West,Furniture,Chairs,120.50,2,0.1,30.2,2024-01-03,2024-01-07,0
O-2,C-2,P-2,Express,Corporate,East,Technology,Phones,899.99,1,0.0,210.0,2024-02-10,2024-02-11,1
`

func TestLoadParsesTypedRows(t *testing.T) {
	rows, err := Load(strings.NewReader(goodCSV))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.OrderID != "O-1" || first.Quantity != 2 || first.Sales != 120.50 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.ShipDate.Sub(first.OrderDate).Hours() != 96 {
		t.Fatalf("unexpected date parse: %v -> %v", first.OrderDate, first.ShipDate)
	}
	if rows[1].ReturnedCount != 1 {
		t.Fatalf("expected returned_count 1, got %d", rows[1].ReturnedCount)
	}
}

func TestLoadColumnOrderIndependent(t *testing.T) {
	shuffled := `returned_count,order_id,customer_id,product_id,ship_mode,customer_segment,region,category,sub_category,sales,quantity,discount,profit,order_date,ship_date
0,O-9,C-9,P-9,Standard,Consumer,West,Furniture,Chairs,10,1,0,1,2024-03-01,2024-03-02
`
	rows, err := Load(strings.NewReader(shuffled))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rows[0].OrderID != "O-9" || rows[0].ReturnedCount != 0 {
		t.Fatalf("column mapping broken: %+v", rows[0])
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{
			name: "missing column",
			csv:  "order_id,customer_id\nO-1,C-1\n",
			want: "missing required column",
		},
		{
			name: "zero quantity",
			csv: strings.Replace(goodCSV,
				"120.50,2,", "120.50,0,", 1),
			want: "quantity must be > 0",
		},
		{
			name: "bad date",
			csv: strings.Replace(goodCSV,
				"2024-01-03", "03/01/2024", 1),
			want: "parse order_date",
		},
		{
			name: "ship before order",
			csv: strings.Replace(goodCSV,
				"2024-01-03,2024-01-07", "2024-01-07,2024-01-03", 1),
			want: "precedes order_date",
		},
		{
			name: "negative returns",
			csv: strings.Replace(goodCSV,
				"2024-02-11,1", "2024-02-11,-1", 1),
			want: "returned_count must be >= 0",
		},
		{
			name: "empty file",
			csv:  "order_id,customer_id,product_id,ship_mode,customer_segment,region,category,sub_category,sales,quantity,discount,profit,order_date,ship_date,returned_count\n",
			want: "dataset is empty",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.csv))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
