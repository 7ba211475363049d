package research

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTextRuneBoundary(t *testing.T) {
	// 150 two-byte runes; a 199-byte cut lands mid-rune.
	s := strings.Repeat("é", 150)
	got := truncateText(s, 199)
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
	if len(got) > 199 {
		t.Errorf("len = %d, want <= 199", len(got))
	}
	if want := strings.Repeat("é", 99); got != want {
		t.Errorf("got %d runes, want 99", utf8.RuneCountInString(got))
	}
}

func TestTruncateTextShortInput(t *testing.T) {
	if got := truncateText("abc", 10); got != "abc" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncateText("abcdef", 3); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
}
