package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"baraholka/internal/models"
)

type SMSVerificationRepository interface {
	// Upsert — создать либо заменить действующий код по номеру.
	Upsert(phone, code string, createdAt, expiresAt time.Time) (int64, error)
	// GetCurrent — действующая запись по номеру и коду (строковое сравнение).
	GetCurrent(phone, code string) (*models.SMSVerification, error)
	// MarkConsumed — отметить код использованным; true, если именно этот
	// вызов перевёл consumed FALSE->TRUE.
	MarkConsumed(id int64) (bool, error)
}

type smsVerificationRepository struct {
	DB *sql.DB
}

func NewSMSVerificationRepository(db *sql.DB) SMSVerificationRepository {
	return &smsVerificationRepository{DB: db}
}

// Upsert — одна строка на номер (phone UNIQUE). Повторная отправка
// перезаписывает код/TTL и сбрасывает consumed; конкурентные вызовы
// разрешаются на уровне строки, выигрывает последний.
func (r *smsVerificationRepository) Upsert(phone, code string, createdAt, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO sms_verifications (phone, code, created_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    consumed = FALSE
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, phone, code, createdAt, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("sms_verification upsert: %w", err)
	}
	return id, nil
}

func (r *smsVerificationRepository) GetCurrent(phone, code string) (*models.SMSVerification, error) {
	const q = `
		SELECT id, phone, code, created_at, expires_at, consumed
		FROM sms_verifications
		WHERE phone = $1 AND code = $2
	`
	row := r.DB.QueryRow(q, phone, code)
	var v models.SMSVerification
	if err := row.Scan(&v.ID, &v.Phone, &v.Code, &v.CreatedAt, &v.ExpiresAt, &v.Consumed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sms_verification get current: %w", err)
	}
	return &v, nil
}

// MarkConsumed — CAS по строке: из двух конкурентных проверок одного кода
// ровно одна увидит rows=1, вторая получит false.
func (r *smsVerificationRepository) MarkConsumed(id int64) (bool, error) {
	res, err := r.DB.Exec(`UPDATE sms_verifications SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("sms_verification mark consumed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sms_verification rows affected: %w", err)
	}
	return n == 1, nil
}
