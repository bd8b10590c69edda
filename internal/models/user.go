package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"` // нормализованный номер телефона (7XXXXXXXXXX)
	PasswordHash string    `json:"-"`        // случайная заглушка, прямой вход по паролю невозможен
	CreatedAt    time.Time `json:"created_at"`
}
