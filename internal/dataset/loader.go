package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"return-radar/internal/domain"
)

const dateLayout = "2006-01-02"

var requiredColumns = []string{
	"order_id", "customer_id", "product_id",
	"ship_mode", "customer_segment", "region", "category", "sub_category",
	"sales", "quantity", "discount", "profit",
	"order_date", "ship_date", "returned_count",
}

// LoadFile reads the cleaned orders CSV. Any schema or data-quality problem
// is an error; the pipeline never proceeds on a malformed dataset.
func LoadFile(path string) ([]domain.OrderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) ([]domain.OrderRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	records := make([]domain.OrderRecord, 0, 1024)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (domain.OrderRecord, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec domain.OrderRecord
	rec.OrderID = get("order_id")
	rec.CustomerID = get("customer_id")
	rec.ProductID = get("product_id")
	rec.ShipMode = get("ship_mode")
	rec.CustomerSegment = get("customer_segment")
	rec.Region = get("region")
	rec.Category = get("category")
	rec.SubCategory = get("sub_category")

	if rec.OrderID == "" || rec.CustomerID == "" || rec.ProductID == "" {
		return rec, fmt.Errorf("empty identifier column")
	}

	var err error
	if rec.Sales, err = strconv.ParseFloat(get("sales"), 64); err != nil {
		return rec, fmt.Errorf("parse sales: %w", err)
	}
	if rec.Quantity, err = strconv.Atoi(get("quantity")); err != nil {
		return rec, fmt.Errorf("parse quantity: %w", err)
	}
	if rec.Quantity <= 0 {
		return rec, fmt.Errorf("quantity must be > 0, got %d", rec.Quantity)
	}
	if rec.Discount, err = strconv.ParseFloat(get("discount"), 64); err != nil {
		return rec, fmt.Errorf("parse discount: %w", err)
	}
	if rec.Profit, err = strconv.ParseFloat(get("profit"), 64); err != nil {
		return rec, fmt.Errorf("parse profit: %w", err)
	}
	if rec.OrderDate, err = time.Parse(dateLayout, get("order_date")); err != nil {
		return rec, fmt.Errorf("parse order_date: %w", err)
	}
	if rec.ShipDate, err = time.Parse(dateLayout, get("ship_date")); err != nil {
		return rec, fmt.Errorf("parse ship_date: %w", err)
	}
	if rec.ShipDate.Before(rec.OrderDate) {
		return rec, fmt.Errorf("ship_date %s precedes order_date %s",
			rec.ShipDate.Format(dateLayout), rec.OrderDate.Format(dateLayout))
	}
	if rec.ReturnedCount, err = strconv.Atoi(get("returned_count")); err != nil {
		return rec, fmt.Errorf("parse returned_count: %w", err)
	}
	if rec.ReturnedCount < 0 {
		return rec, fmt.Errorf("returned_count must be >= 0, got %d", rec.ReturnedCount)
	}
	return rec, nil
}
