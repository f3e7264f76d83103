package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medinfo/backend/config"
	"github.com/medinfo/backend/internal/database"
	"github.com/medinfo/backend/internal/server"
	"github.com/medinfo/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	healthDB, err := database.NewHealthConn(cfg)
	if err != nil {
		log.Fatalf("Failed to open health connection: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	llm := service.NewLLMService(cfg)
	medicines := service.NewMedicineService(db, llm.GenerateMedicineInfo, cfg.LLMTimeout)
	auth := service.NewAuthService(db, cfg.JWTSecret, service.NewRedisTokenStore(redisClient))
	profiles := service.NewProfileService(db)
	reviews := service.NewReviewService(db)
	reminders := service.NewReminderService(db, service.NewPushoverNotifier(cfg.PushoverToken))

	var images *service.ImageService
	if s3Config, err := config.NewS3Config(context.Background()); err != nil {
		log.Printf("Profile picture uploads disabled: %v", err)
	} else {
		images = service.NewImageService(s3Config)
	}

	if err := reminders.Start(); err != nil {
		log.Fatalf("Failed to start reminder sweep: %v", err)
	}

	srv := server.New(cfg, &server.Services{
		Auth:      auth,
		Medicines: medicines,
		Profiles:  profiles,
		Reviews:   reviews,
		Reminders: reminders,
		Images:    images,
		HealthDB:  healthDB,
		Redis:     redisClient,
	})

	go func() {
		log.Printf("Server listening on %s:%s", cfg.ServerHost, cfg.ServerPort)
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	reminders.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}

	log.Println("Server stopped")
}
