package utils

import "strings"

// NormalizePhone — выкидывает всё кроме цифр и проверяет формат:
// ровно 11 цифр, первая 7 ("+7 (999) 123-45-67" -> "79991234567").
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if len(phone) != 11 || phone[0] != '7' {
		return "", false
	}
	return phone, true
}
