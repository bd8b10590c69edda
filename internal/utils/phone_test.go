package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"79991234567", "79991234567", true},
		{"+7 (999) 123-45-67", "79991234567", true},
		{"7-999-123-45-67", "79991234567", true},
		{"89991234567", "", false}, // 8 вместо 7
		{"9991234567", "", false},  // 10 цифр
		{"799912345678", "", false},
		{"", "", false},
		{"banana", "", false},
		{"7999123456a", "", false}, // после чистки остаётся 10 цифр
	}
	for _, c := range cases {
		got, ok := NormalizePhone(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("NormalizePhone(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
