package validation

import "testing"

func TestIsValidISBN(t *testing.T) {
	tests := []struct {
		isbn string
		want bool
	}{
		{"0306406152", true},
		{"0-306-40615-2", true},
		{"030640615X", false},
		{"097522980X", true},
		{"9780306406157", true},
		{"978-0-306-40615-7", true},
		{"9780306406158", false},
		{"0306406153", false},
		{"", false},
		{"12345", false},
		{"97803064061ab", false},
	}

	for _, tt := range tests {
		if got := IsValidISBN(tt.isbn); got != tt.want {
			t.Errorf("IsValidISBN(%q) = %v, want %v", tt.isbn, got, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Go Programming Language", "the-go-programming-language"},
		{"Don't Panic!", "dont-panic"},
		{"  Leading  spaces ", "leading-spaces"},
		{"already-slugged", "already-slugged"},
		{"Multiple --- hyphens", "multiple-hyphens"},
		{"Книга", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
