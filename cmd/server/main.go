package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"wesell-system/config"
	"wesell-system/internal/database"
	"wesell-system/internal/gateway/handlers"
	"wesell-system/internal/gateway/middleware"
	clienthandler "wesell-system/internal/services/clients/handler"
	notifyhandler "wesell-system/internal/services/notify/handler"
	saleshandler "wesell-system/internal/services/sales/handler"
	userhandler "wesell-system/internal/services/user/handler"
	"wesell-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	log := config.GetLogger()

	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	salesHandler := saleshandler.NewSalesHandler(db, redisClient, cfg.Sync.DebounceWindow, log)
	defer salesHandler.Close()

	notifyHandler := notifyhandler.NewNotifyHandler(db, redisClient, log)
	clientHandler := clienthandler.NewClientHandler(db, salesHandler, notifyHandler, log)
	userHandler := userhandler.NewUserHandler(db, salesHandler, cfg.Auth.TokenTTL, log)

	userHTTP := handlers.NewUserHTTPHandler(userHandler)
	clientHTTP := handlers.NewClientHTTPHandler(clientHandler, userHandler)
	teamHTTP := handlers.NewTeamHTTPHandler(userHandler, salesHandler)
	notificationHTTP := handlers.NewNotificationHTTPHandler(notifyHandler)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		auth.Use(middleware.RateLimit("10-M"))
		{
			auth.POST("/login", userHTTP.Login)
			auth.POST("/setup", userHTTP.Setup)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("/:id", userHTTP.GetUser)
			users.PUT("/:id", userHTTP.UpdateUser)
		}

		clients := protected.Group("/clients")
		{
			clients.POST("", clientHTTP.CreateClient)
			clients.GET("", clientHTTP.ListClients)
			clients.GET("/:id", clientHTTP.GetClient)
			clients.PUT("/:id", clientHTTP.UpdateClient)
			clients.DELETE("/:id", clientHTTP.DeleteClient)
		}

		stats := protected.Group("/stats")
		{
			stats.GET("/monthly", clientHTTP.MonthlyStats)
		}

		team := protected.Group("/team")
		{
			team.GET("", teamHTTP.GetTeam)
			team.GET("/members", teamHTTP.ListMembers)
			team.GET("/leaderboard", teamHTTP.Leaderboard)
			team.GET("/top-performers", teamHTTP.TopPerformers)
			team.PUT("/presence", teamHTTP.SetPresence)

			managed := team.Group("")
			managed.Use(middleware.RequireManager())
			{
				managed.POST("/members", userHTTP.CreateAgent)
				managed.DELETE("/members/:id", teamHTTP.RemoveMember)
				managed.POST("/members/:id/sync", teamHTTP.SyncMember)
				managed.GET("/overview", teamHTTP.Overview)
				managed.POST("/sales/init", teamHTTP.InitializeSales)
				managed.POST("/sales/cleanup", teamHTTP.CleanupDuplicates)
			}
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHTTP.ListNotifications)
			notifications.PUT("/:id/read", notificationHTTP.MarkRead)
		}
	}

	r.GET("/health", healthCheckHandler(redisClient))

	log.Infof("Starting server on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		redisStatus := "connected"
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status = "degraded"
			httpStatus = http.StatusPartialContent
			redisStatus = "unavailable"
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"message":   "Server is running",
			"redis":     redisStatus,
			"timestamp": time.Now(),
		})
	}
}
