package service

import (
	"testing"

	"ovidio_backend/internal/quotes/transport"
)

func TestCalculateTotals_SingleLine(t *testing.T) {
	items, totals := CalculateTotals([]transport.Item{
		{Name: "camara bullet", UnitPrice: 100, Quantity: 2, TaxRate: 21},
	})

	if items[0].TaxAmount != 42 {
		t.Fatalf("expected line tax 42, got %v", items[0].TaxAmount)
	}
	if totals.Subtotal != 200 {
		t.Fatalf("expected subtotal 200, got %v", totals.Subtotal)
	}
	if totals.Total != 242 {
		t.Fatalf("expected total 242, got %v", totals.Total)
	}
}

func TestCalculateTotals_TwoLines(t *testing.T) {
	_, totals := CalculateTotals([]transport.Item{
		{Name: "camara bullet", UnitPrice: 100, Quantity: 2, TaxRate: 21},
		{Name: "camara domo", UnitPrice: 100, Quantity: 2, TaxRate: 21},
	})

	if totals.Subtotal != 400 {
		t.Fatalf("expected subtotal 400, got %v", totals.Subtotal)
	}
	if totals.TaxTotal != 84 {
		t.Fatalf("expected tax total 84, got %v", totals.TaxTotal)
	}
	if totals.Total != 484 {
		t.Fatalf("expected total 484, got %v", totals.Total)
	}
}

func TestCalculateTotals_Defaults(t *testing.T) {
	items, totals := CalculateTotals([]transport.Item{
		{Name: "fuente 12v", UnitPrice: 50},
	})

	if items[0].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", items[0].Quantity)
	}
	if items[0].TaxRate != 21 {
		t.Fatalf("expected default tax rate 21, got %v", items[0].TaxRate)
	}
	if totals.Total != 60.5 {
		t.Fatalf("expected total 60.5, got %v", totals.Total)
	}
}

func TestCalculateTotals_ReducedRate(t *testing.T) {
	items, _ := CalculateTotals([]transport.Item{
		{Name: "insumo", UnitPrice: 200, Quantity: 1, TaxRate: 10.5},
	})

	if items[0].TaxAmount != 21 {
		t.Fatalf("expected line tax 21, got %v", items[0].TaxAmount)
	}
}

func TestCalculateTotals_AssignsSortOrder(t *testing.T) {
	items, _ := CalculateTotals([]transport.Item{
		{Name: "a", UnitPrice: 1},
		{Name: "b", UnitPrice: 1},
		{Name: "c", UnitPrice: 1},
	})

	for i, item := range items {
		if item.SortOrder != i {
			t.Fatalf("item %d has sort order %d", i, item.SortOrder)
		}
	}
}
