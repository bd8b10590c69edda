package models

import "time"

// UserLastCode — последний выданный код по аккаунту, для саппорта.
// Верификация через эту таблицу не ходит — только sms_verifications.
type UserLastCode struct {
	UserID   int64     `json:"user_id"`
	Phone    string    `json:"phone"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}
