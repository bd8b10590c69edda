package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"baraholka/internal/config"
	"baraholka/internal/repositories"
	"baraholka/internal/utils"
)

var (
	ErrInvalidPhone   = errors.New("invalid phone")
	ErrCodeInvalid    = errors.New("code invalid")
	ErrCodeExpired    = errors.New("code expired")
	ErrDeliveryFailed = errors.New("sms delivery failed")
)

// SMSGateway — внешний SMS-транспорт (smsc.ru в проде, фейк в тестах).
type SMSGateway interface {
	Send(phone, message string) error
}

type SMSService interface {
	// RequestCode — выдать и отправить код; возвращает нормализованный номер.
	RequestCode(phone string) (string, error)
	// VerifyCode — проверить код; возвращает нормализованный номер при успехе.
	VerifyCode(phone, code string) (string, error)
}

type smsService struct {
	verifRepo    repositories.SMSVerificationRepository
	lastCodeRepo repositories.UserLastCodeRepository
	userRepo     repositories.UserRepository
	gateway      SMSGateway
	notifier     *TelegramNotifier // может быть nil

	codeTTL    time.Duration
	codeLength int
	testMode   config.TestModeConfig
}

func NewSMSService(
	verifRepo repositories.SMSVerificationRepository,
	lastCodeRepo repositories.UserLastCodeRepository,
	userRepo repositories.UserRepository,
	gateway SMSGateway,
	notifier *TelegramNotifier,
	cfg config.VerificationConfig,
) SMSService {
	return &smsService{
		verifRepo:    verifRepo,
		lastCodeRepo: lastCodeRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		notifier:     notifier,
		codeTTL:      time.Duration(cfg.CodeTTLMinutes) * time.Minute,
		codeLength:   cfg.CodeLength,
		testMode:     cfg.TestMode,
	}
}

func (s *smsService) isTestPhone(phone string) bool {
	return s.testMode.Enabled && phone == s.testMode.Phone
}

func (s *smsService) RequestCode(phone string) (string, error) {
	clean, ok := utils.NormalizePhone(phone)
	if !ok {
		return "", ErrInvalidPhone
	}

	// Тестовый номер: фиксированный код, SMS не уходит вообще.
	if s.isTestPhone(clean) {
		now := time.Now()
		if _, err := s.verifRepo.Upsert(clean, s.testMode.Code, now, now.Add(s.codeTTL)); err != nil {
			return "", err
		}
		if err := s.saveLastCode(clean, s.testMode.Code, now); err != nil {
			return "", err
		}
		log.Printf("[sms][send] test mode: phone=%s, sms skipped", clean)
		return clean, nil
	}

	code, err := utils.NewNumericCode(s.codeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	if _, err := s.verifRepo.Upsert(clean, code, now, now.Add(s.codeTTL)); err != nil {
		return "", err
	}
	if err := s.saveLastCode(clean, code, now); err != nil {
		return "", err
	}

	message := fmt.Sprintf("Ваш код подтверждения: %s. Код действителен %d минут.",
		code, int(s.codeTTL.Minutes()))
	if err := s.gateway.Send(clean, message); err != nil {
		// запись с кодом остаётся в базе: повторный запрос её перезапишет
		log.Printf("[sms][send] delivery failed: phone=%s err=%v", clean, err)
		s.notifier.NotifyDeliveryFailure(clean, err)
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	log.Printf("[sms][send] ok: phone=%s", clean)
	return clean, nil
}

// saveLastCode — дублируем последний код в user_last_codes, если аккаунт с
// таким номером уже есть. Отсутствие аккаунта — норма (первый вход), а вот
// ошибка стораджа наружу.
func (s *smsService) saveLastCode(phone, code string, issuedAt time.Time) error {
	user, err := s.userRepo.GetByUsername(phone)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	return s.lastCodeRepo.Upsert(user.ID, phone, code, issuedAt)
}

func (s *smsService) VerifyCode(phone, code string) (string, error) {
	clean, ok := utils.NormalizePhone(phone)
	if !ok {
		// не отличаем кривой номер от неверного кода, чтобы не светить,
		// какие номера системе известны
		return "", ErrCodeInvalid
	}

	// Тестовый номер с тестовым кодом: подтверждаем сразу, но строку
	// верификации всё равно пишем и гасим — аудит остаётся честным.
	if s.isTestPhone(clean) && code == s.testMode.Code {
		now := time.Now()
		id, err := s.verifRepo.Upsert(clean, s.testMode.Code, now, now.Add(s.codeTTL))
		if err != nil {
			return "", err
		}
		if _, err := s.verifRepo.MarkConsumed(id); err != nil {
			return "", err
		}
		log.Printf("[sms][verify] test mode: phone=%s", clean)
		return clean, nil
	}

	v, err := s.verifRepo.GetCurrent(clean, code)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", ErrCodeInvalid
	}
	if v.IsExpired(time.Now()) {
		return "", ErrCodeExpired
	}

	consumed, err := s.verifRepo.MarkConsumed(v.ID)
	if err != nil {
		return "", err
	}
	if !consumed {
		// код уже использован (повтор или проигранная гонка)
		return "", ErrCodeInvalid
	}

	log.Printf("[sms][verify] ok: phone=%s", clean)
	return clean, nil
}
