package email

import (
	"strings"
	"testing"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1999, "$19.99"},
		{100000, "$1000.00"},
		{-150, "-$1.50"},
	}
	for _, tt := range tests {
		if got := formatCents(tt.cents); got != tt.want {
			t.Errorf("formatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	o := OrderSummary{
		ClaimCode:           "AB12CD34",
		SubTotalCents:       4000,
		DiscountAmountCents: 400,
		FinalTotalCents:     3600,
		Items: []OrderItem{
			{Title: "The Go Programming Language", Quantity: 2, UnitPriceCents: 2000},
		},
	}

	body := buildOrderConfirmationBody(o)

	for _, want := range []string{"AB12CD34", "The Go Programming Language", "$40.00", "-$4.00", "$36.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("confirmation body missing %q", want)
		}
	}
}

func TestBuildTotalsOmitsZeroDiscount(t *testing.T) {
	o := OrderSummary{SubTotalCents: 1000, FinalTotalCents: 1000}
	if strings.Contains(buildTotals(o), "Discount") {
		t.Error("totals should not mention discount when it is zero")
	}
}

func TestBuildPasswordResetBody(t *testing.T) {
	body := buildPasswordResetBody("482917")
	if !strings.Contains(body, "482917") {
		t.Error("reset body missing code")
	}
}
