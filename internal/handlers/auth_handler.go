package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"baraholka/internal/services"
)

type AuthHandler struct {
	smsService  services.SMSService
	authService services.AuthService
}

func NewAuthHandler(smsService services.SMSService, authService services.AuthService) *AuthHandler {
	return &AuthHandler{smsService: smsService, authService: authService}
}

// @Summary      Запросить код подтверждения
// @Description  Отправляет одноразовый код на указанный номер телефона
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      object{phone=string}  true  "Номер телефона"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Router       /auth/send-code [post]
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	phone, err := h.smsService.RequestCode(req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат номера телефона"})
		case errors.Is(err, services.ErrDeliveryFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Ошибка отправки SMS"})
		default:
			log.Printf("[auth][send-code] internal error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Код отправлен", "phone": phone})
}

// @Summary      Подтвердить код
// @Description  Проверяет код и возвращает токен; аккаунт создаётся при первом входе
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      object{phone=string,code=string}  true  "Номер и код"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Router       /auth/verify-code [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	phone, err := h.smsService.VerifyCode(req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Код истек"})
		case errors.Is(err, services.ErrCodeInvalid):
			// один ответ и на чужой номер, и на неверный код
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный код"})
		default:
			log.Printf("[auth][verify-code] internal error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка"})
		}
		return
	}

	user, isNew, err := h.authService.ResolveOrCreate(phone)
	if err != nil {
		log.Printf("[auth][verify-code] resolve user failed: phone=%s err=%v", phone, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка"})
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		log.Printf("[auth][verify-code] issue token failed: user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"user":        user, // PasswordHash наружу не уйдет, json:"-"
		"is_new_user": isNew,
	})
}
