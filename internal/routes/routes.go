package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baraholka/internal/handlers"
	"baraholka/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	supportHandler *handlers.SupportHandler,
	jwtKey []byte,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/send-code", authHandler.SendCode)
		auth.POST("/verify-code", authHandler.VerifyCode)
	}

	// ---- protected (JWT)
	protected := r.Group("/", middleware.AuthMiddleware(jwtKey))
	{
		protected.GET("/users/me", userHandler.Me)
		protected.GET("/support/last-code/:phone", supportHandler.LastCode)
	}

	return r
}
