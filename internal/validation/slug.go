package validation

import "strings"

// Slugify строит slug книги из названия: строчные латинские буквы и цифры,
// пробелы заменяются дефисами, повторные дефисы схлопываются.
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := true // подавляет дефис в начале

	for _, ch := range strings.ToLower(title) {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			prevHyphen = false
		case ch == ' ' || ch == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
