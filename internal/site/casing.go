package site

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kebab converts text to kebab-case.
func Kebab(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(text), " ", "-"), "_", "-")
}

// Pascal converts text to PascalCase.
func Pascal(text string) string {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(text, "-", " "), "_", " ")
	var sb strings.Builder
	for _, word := range strings.Fields(cleaned) {
		first, size := utf8.DecodeRuneInString(word)
		sb.WriteRune(unicode.ToUpper(first))
		if len(word) > size {
			sb.WriteString(strings.ToLower(word[size:]))
		}
	}
	return sb.String()
}

// Camel converts text to camelCase.
func Camel(text string) string {
	pascal := Pascal(text)
	if pascal == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(pascal)
	return string(unicode.ToLower(first)) + pascal[size:]
}
