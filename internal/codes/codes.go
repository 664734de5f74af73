// Package codes генерирует короткие коды: код выдачи заказа,
// членский номер и код сброса пароля.
package codes

import (
	"crypto/rand"
	"math/big"
)

const claimCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ClaimCodeLength — длина кода выдачи заказа.
const ClaimCodeLength = 8

// ClaimCode возвращает случайный 8-символьный код выдачи из заглавных
// латинских букв и цифр. Глобальную уникальность обеспечивает уникальный
// индекс в хранилище, вызывающая сторона повторяет генерацию при конфликте.
func ClaimCode() string {
	return randomString(claimCodeAlphabet, ClaimCodeLength)
}

// MembershipID возвращает случайный пятизначный членский номер.
func MembershipID() string {
	return randomString("0123456789", 5)
}

// ResetCode возвращает случайный шестизначный код сброса пароля.
func ResetCode() string {
	return randomString("0123456789", 6)
}

func randomString(alphabet string, length int) string {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand не возвращает ошибок на поддерживаемых платформах
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}
