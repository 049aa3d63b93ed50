package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/config"
	"github.com/famconomy/famconomy-api/handlers"
	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/pkg/logger"
	"github.com/famconomy/famconomy-api/routes"
	"github.com/famconomy/famconomy-api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	db, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Database connected")

	if err := config.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	go scheduleSessionCleanup(db, log)

	emailService := services.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail, cfg.FrontendURL)
	notificationService := services.NewNotificationService(db, log)
	shoppingService := services.NewShoppingService(db)
	assistantService := services.NewAssistantService(db, log)
	wsHandler := handlers.NewWSHandler(log)

	if cfg.EnableConsolidation {
		c := cron.New()
		if _, err := c.AddFunc(cfg.ConsolidationJobSpec, func() {
			if _, err := assistantService.ConsolidateAll(); err != nil {
				log.WithError(err).Error("memory consolidation sweep failed")
			}
		}); err != nil {
			log.Fatalf("Invalid consolidation job spec %q: %v", cfg.ConsolidationJobSpec, err)
		}
		c.Start()
		defer c.Stop()
		log.WithField("spec", cfg.ConsolidationJobSpec).Info("Assistant consolidation job scheduled")
	}

	router := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "https://famconomy.app", "https://www.famconomy.app"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Tenant-Id", "X-User-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}).Info("request")
	})

	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, db)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupUserRoutes(protected, db)
			routes.SetupFamilyRoutes(protected, db, log, emailService)
			routes.SetupTaskRoutes(protected, db, log, wsHandler)
			routes.SetupCalendarRoutes(protected, db, log, wsHandler)
			routes.SetupMessageRoutes(protected, db, log, wsHandler, notificationService)
			routes.SetupBudgetRoutes(protected, db, log)
			routes.SetupShoppingRoutes(protected, db, log, wsHandler, shoppingService)
			routes.SetupWishlistRoutes(protected, db, log)
			routes.SetupDashboardRoutes(protected, db, log)
			routes.SetupAssistantRoutes(protected, db, assistantService)
			routes.SetupFamilyControlsRoutes(protected, db, log)
			routes.SetupWSRoutes(protected, db, log, wsHandler)
		}
	}

	router.GET("/delete-data", handlers.DeleteDataPage)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	log.Infof("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func scheduleSessionCleanup(db *sql.DB, log *logrus.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	cleanExpiredSessions(db, log)
	for range ticker.C {
		cleanExpiredSessions(db, log)
	}
}

func cleanExpiredSessions(db *sql.DB, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		log.WithError(err).Error("Session cleanup failed")
		return
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.WithField("sessions", rows).Info("Cleaned expired sessions")
	}
}
