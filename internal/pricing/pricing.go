// Package pricing содержит чистые функции расчёта цен и скидок.
// Все суммы выражены в центах, правило округления одно для всех путей:
// половина округляется от нуля.
package pricing

import (
	"math"
	"time"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

const (
	bulkDiscountThreshold  = 5
	bulkDiscountPercent    = 5
	loyaltyDiscountPercent = 10
)

// DiscountActive сообщает, действует ли скидка книги в момент now.
// Отсутствующая граница окна трактуется как неограниченная.
func DiscountActive(b *model.Book, now time.Time) bool {
	if b.DiscountPercentage == nil {
		return false
	}
	pct := *b.DiscountPercentage
	if pct <= 0 || pct > 100 {
		return false
	}
	if b.DiscountStartDate != nil && b.DiscountStartDate.After(now) {
		return false
	}
	if b.DiscountEndDate != nil && b.DiscountEndDate.Before(now) {
		return false
	}
	return true
}

// UnitDiscountCents возвращает сумму скидки на единицу товара в момент now.
func UnitDiscountCents(b *model.Book, now time.Time) int64 {
	if !DiscountActive(b, now) {
		return 0
	}
	return roundCents(float64(b.PriceCents) * *b.DiscountPercentage / 100)
}

// UnitPriceCents возвращает цену единицы товара с учётом действующей скидки.
func UnitPriceCents(b *model.Book, now time.Time) int64 {
	return b.PriceCents - UnitDiscountCents(b, now)
}

// OrderDiscount вычисляет скидку заказа: при пяти и более единицах товара
// берётся 5% от всей суммы, затем, если доступна
// накопительная скидка, 10% от остатка. Скидки складываются мультипликативно.
// Возвращает сумму скидки (не больше subTotalCents) и признак того, что
// накопительная скидка была израсходована.
func OrderDiscount(subTotalCents int64, itemCount int, loyaltyAvailable bool) (int64, bool) {
	if subTotalCents <= 0 {
		return 0, false
	}

	var discount int64
	remaining := subTotalCents

	if itemCount >= bulkDiscountThreshold {
		bulk := roundCents(float64(subTotalCents) * bulkDiscountPercent / 100)
		discount += bulk
		remaining -= bulk
	}

	loyaltyUsed := false
	if loyaltyAvailable {
		discount += roundCents(float64(remaining) * loyaltyDiscountPercent / 100)
		loyaltyUsed = true
	}

	if discount > subTotalCents {
		discount = subTotalCents
	}

	return discount, loyaltyUsed
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
