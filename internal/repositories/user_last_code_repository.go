package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"baraholka/internal/models"
)

type UserLastCodeRepository interface {
	Upsert(userID int64, phone, code string, issuedAt time.Time) error
	GetByPhone(phone string) (*models.UserLastCode, error)
}

type userLastCodeRepository struct {
	DB *sql.DB
}

func NewUserLastCodeRepository(db *sql.DB) UserLastCodeRepository {
	return &userLastCodeRepository{DB: db}
}

// Upsert — одна строка на аккаунт (user_id PK), replace-on-conflict.
func (r *userLastCodeRepository) Upsert(userID int64, phone, code string, issuedAt time.Time) error {
	const q = `
		INSERT INTO user_last_codes (user_id, phone, code, issued_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET phone = EXCLUDED.phone,
		    code = EXCLUDED.code,
		    issued_at = EXCLUDED.issued_at
	`
	if _, err := r.DB.Exec(q, userID, phone, code, issuedAt); err != nil {
		return fmt.Errorf("user_last_code upsert: %w", err)
	}
	return nil
}

func (r *userLastCodeRepository) GetByPhone(phone string) (*models.UserLastCode, error) {
	const q = `
		SELECT user_id, phone, code, issued_at
		FROM user_last_codes
		WHERE phone = $1
	`
	row := r.DB.QueryRow(q, phone)
	var lc models.UserLastCode
	if err := row.Scan(&lc.UserID, &lc.Phone, &lc.Code, &lc.IssuedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user_last_code get by phone: %w", err)
	}
	return &lc, nil
}
