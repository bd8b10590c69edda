package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baraholka/internal/repositories"
	"baraholka/internal/utils"
)

// SupportHandler — сервисные ручки для саппорта. Последний выданный код
// смотрим здесь, а не в sms_verifications.
type SupportHandler struct {
	lastCodeRepo repositories.UserLastCodeRepository
}

func NewSupportHandler(lastCodeRepo repositories.UserLastCodeRepository) *SupportHandler {
	return &SupportHandler{lastCodeRepo: lastCodeRepo}
}

// @Summary      Последний код по номеру
// @Tags         Support
// @Produce      json
// @Security     BearerAuth
// @Param        phone  path      string  true  "Номер телефона"
// @Success      200    {object}  models.UserLastCode
// @Failure      404    {object}  map[string]string
// @Router       /support/last-code/{phone} [get]
func (h *SupportHandler) LastCode(c *gin.Context) {
	phone, ok := utils.NormalizePhone(c.Param("phone"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат номера телефона"})
		return
	}

	lc, err := h.lastCodeRepo.GetByPhone(phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка"})
		return
	}
	if lc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Код по этому номеру не выдавался"})
		return
	}

	c.JSON(http.StatusOK, lc)
}
