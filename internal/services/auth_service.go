package services

import (
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"baraholka/internal/middleware"
	"baraholka/internal/models"
	"baraholka/internal/repositories"
	"baraholka/internal/utils"
)

const tokenTTL = 30 * 24 * time.Hour

type AuthService interface {
	// ResolveOrCreate — аккаунт по подтверждённому номеру; создаёт при
	// первом входе. Второе значение — был ли аккаунт только что создан.
	ResolveOrCreate(phone string) (*models.User, bool, error)
	// IssueToken — новый bearer-токен; ранее выданные токены не отзывает.
	IssueToken(user *models.User) (string, error)
	GetUserByID(id int64) (*models.User, error)
}

type authService struct {
	users    repositories.UserRepository
	notifier *TelegramNotifier // может быть nil
	jwtKey   []byte
}

func NewAuthService(users repositories.UserRepository, notifier *TelegramNotifier, jwtSecret string) AuthService {
	return &authService{
		users:    users,
		notifier: notifier,
		jwtKey:   []byte(jwtSecret),
	}
}

func (s *authService) ResolveOrCreate(phone string) (*models.User, bool, error) {
	user, err := s.users.GetByUsername(phone)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	// Пароль — случайная заглушка: вход только по коду из SMS.
	placeholder, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("bcrypt generate: %w", err)
	}

	user = &models.User{
		Username:     phone,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		// возможная гонка двух первых входов: username UNIQUE, второй
		// INSERT падает — перечитываем
		existing, lookupErr := s.users.GetByUsername(phone)
		if lookupErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	log.Printf("[auth][resolve] new user created: id=%d username=%s", user.ID, user.Username)
	s.notifier.NotifyNewUser(phone)
	return user, true, nil
}

func (s *authService) IssueToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) GetUserByID(id int64) (*models.User, error) {
	return s.users.GetByID(id)
}
