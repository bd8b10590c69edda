package models

import "time"

// SMSVerification — актуальный код подтверждения по номеру.
// Одна строка на номер: повторная отправка перезаписывает код и TTL (upsert),
// consumed взводится ровно один раз при успешной проверке.
type SMSVerification struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}

func (v *SMSVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
