package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stampeo/backend/internal/config"
	"github.com/stampeo/backend/internal/database"
	"github.com/stampeo/backend/internal/database/migrations"
	"github.com/stampeo/backend/internal/jobs"
	"github.com/stampeo/backend/internal/queue"
	"github.com/stampeo/backend/internal/routes"
	"github.com/stampeo/backend/internal/services/email"
	"github.com/stampeo/backend/internal/services/notify"
	"github.com/stampeo/backend/internal/services/stats"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	jobQueue := queue.NewQueue(db)
	redisClient := queue.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(); err != nil {
		log.Printf("Redis unavailable, realtime events disabled: %v", err)
	}
	emailSvc := email.NewEmailService(cfg.SMTP)
	notifier := notify.NewNotifier(jobQueue)
	statsSvc := stats.NewService(db)

	jobs.RegisterAllJobHandlers(jobQueue, db, redisClient, emailSvc)
	jobQueue.ProcessJobs()

	maintenance, err := jobs.ScheduleRecurringJobs(jobQueue, statsSvc)
	if err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}

	routes.SetupRoutes(router, db, notifier)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	jobQueue.StopProcessing()
	maintenance.Stop()
	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
