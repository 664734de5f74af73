package pricing

import (
	"testing"
	"time"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

func ptrF(v float64) *float64 { return &v }

func ptrT(v time.Time) *time.Time { return &v }

func TestUnitPriceNoDiscount(t *testing.T) {
	b := &model.Book{PriceCents: 2000}
	if got := UnitPriceCents(b, time.Now()); got != 2000 {
		t.Fatalf("UnitPriceCents = %d, want 2000", got)
	}
}

func TestUnitPriceActiveDiscount(t *testing.T) {
	now := time.Now()
	b := &model.Book{
		PriceCents:         2000,
		DiscountPercentage: ptrF(10),
		DiscountStartDate:  ptrT(now.Add(-time.Hour)),
		DiscountEndDate:    ptrT(now.Add(time.Hour)),
	}
	if got := UnitPriceCents(b, now); got != 1800 {
		t.Fatalf("UnitPriceCents = %d, want 1800", got)
	}
	// цена минус скидка всегда равна округлённой доле цены
	if diff := b.PriceCents - UnitPriceCents(b, now); diff != UnitDiscountCents(b, now) {
		t.Fatalf("discount mismatch: %d != %d", diff, UnitDiscountCents(b, now))
	}
}

func TestUnitPriceRounding(t *testing.T) {
	now := time.Now()
	// 15% от 9.99 = 1.4985 -> 1.50
	b := &model.Book{PriceCents: 999, DiscountPercentage: ptrF(15)}
	if got := UnitDiscountCents(b, now); got != 150 {
		t.Fatalf("UnitDiscountCents = %d, want 150", got)
	}
	if got := UnitPriceCents(b, now); got != 849 {
		t.Fatalf("UnitPriceCents = %d, want 849", got)
	}
}

func TestDiscountWindowBoundaries(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{"start equals now", ptrT(now), nil, true},
		{"end equals now", nil, ptrT(now), true},
		{"start in future", ptrT(now.Add(time.Second)), nil, false},
		{"end in past", nil, ptrT(now.Add(-time.Second)), false},
		{"both bounds open", nil, nil, true},
		{"inside window", ptrT(now.Add(-time.Hour)), ptrT(now.Add(time.Hour)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &model.Book{
				PriceCents:         1000,
				DiscountPercentage: ptrF(20),
				DiscountStartDate:  tt.start,
				DiscountEndDate:    tt.end,
			}
			if got := DiscountActive(b, now); got != tt.want {
				t.Fatalf("DiscountActive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscountInactiveForInvalidPercentage(t *testing.T) {
	now := time.Now()
	for _, pct := range []float64{0, -5, 101} {
		b := &model.Book{PriceCents: 1000, DiscountPercentage: ptrF(pct)}
		if DiscountActive(b, now) {
			t.Fatalf("DiscountActive = true for percentage %v", pct)
		}
	}
}

func TestOrderDiscountStacking(t *testing.T) {
	// 100.00 при 5 позициях и доступной накопительной скидке:
	// массовая 5.00 от 100.00, затем 10% от 95.00 = 9.50, итого 14.50
	discount, loyaltyUsed := OrderDiscount(10000, 5, true)
	if discount != 1450 {
		t.Fatalf("discount = %d, want 1450", discount)
	}
	if !loyaltyUsed {
		t.Fatalf("loyalty discount must be consumed")
	}
}

func TestOrderDiscountBulkOnly(t *testing.T) {
	discount, loyaltyUsed := OrderDiscount(10000, 5, false)
	if discount != 500 {
		t.Fatalf("discount = %d, want 500", discount)
	}
	if loyaltyUsed {
		t.Fatalf("loyalty discount must not be consumed")
	}
}

func TestOrderDiscountLoyaltyOnly(t *testing.T) {
	discount, loyaltyUsed := OrderDiscount(10000, 4, true)
	if discount != 1000 {
		t.Fatalf("discount = %d, want 1000", discount)
	}
	if !loyaltyUsed {
		t.Fatalf("loyalty discount must be consumed")
	}
}

func TestOrderDiscountZeroSubtotal(t *testing.T) {
	discount, loyaltyUsed := OrderDiscount(0, 10, true)
	if discount != 0 {
		t.Fatalf("discount = %d, want 0", discount)
	}
	if loyaltyUsed {
		t.Fatalf("loyalty discount must not be consumed on zero subtotal")
	}
}

func TestOrderDiscountNeverExceedsSubtotal(t *testing.T) {
	discount, _ := OrderDiscount(1, 5, true)
	if discount > 1 {
		t.Fatalf("discount = %d exceeds subtotal 1", discount)
	}
}
