package utils

import (
	"strings"
	"unicode"
)

// ToKebabCase lowercases a PascalCase name and puts a hyphen before every
// interior upper-case letter: "UserInfo" -> "user-info".
func ToKebabCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToPascalCase joins hyphen, dot, underscore or space separated words,
// upper-casing the first letter of each and keeping the rest as is:
// "user-info" -> "UserInfo", "sd-button.control" -> "SdButtonControl".
func ToPascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})

	var b strings.Builder
	for _, word := range words {
		runes := []rune(word)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}
