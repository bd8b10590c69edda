package app

import (
	"database/sql"
	"fmt"
	"log"

	"baraholka/internal/config"
	"baraholka/internal/handlers"
	"baraholka/internal/repositories"
	"baraholka/internal/routes"
	"baraholka/internal/services"
	"baraholka/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "baraholka/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	verifRepo := repositories.NewSMSVerificationRepository(db)
	lastCodeRepo := repositories.NewUserLastCodeRepository(db)

	// === Services ===
	// Уведомления в опс-чат (nil, если телеграм не настроен)
	notifier := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.OpsChatID)

	smscClient := utils.NewSMSCClient(
		cfg.SMSC.Login,
		cfg.SMSC.Password,
		cfg.SMSC.Sender,
		cfg.SMSC.DryRun,
	)

	smsService := services.NewSMSService(verifRepo, lastCodeRepo, userRepo, smscClient, notifier, cfg.Verification)
	authService := services.NewAuthService(userRepo, notifier, cfg.JWT.Secret)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(smsService, authService)
	userHandler := handlers.NewUserHandler(authService)
	supportHandler := handlers.NewSupportHandler(lastCodeRepo)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler, userHandler, supportHandler, []byte(cfg.JWT.Secret))

	if cfg.Verification.TestMode.Enabled {
		log.Printf("[app] ВНИМАНИЕ: включен тестовый номер %s (только для ревью, не для прода)",
			cfg.Verification.TestMode.Phone)
	}

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
