package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/medinfo/backend/config"
	"github.com/medinfo/backend/internal/api"
	"github.com/medinfo/backend/internal/database"
	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// Services bundles the dependencies the HTTP surface needs.
type Services struct {
	Auth      *service.AuthService
	Medicines *service.MedicineService
	Profiles  *service.ProfileService
	Reviews   *service.ReviewService
	Reminders *service.ReminderService
	Images    *service.ImageService

	HealthDB *database.DB
	Redis    *redis.Client
}

// Server is the HTTP front of the application.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the router with all routes registered.
func New(cfg *config.Config, svcs *Services) *Server {
	engine := gin.Default()

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	registerRoutes(engine, svcs)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

func registerRoutes(engine *gin.Engine, svcs *Services) {
	authHandler := api.NewAuthHandler(svcs.Auth)
	medicineHandler := api.NewMedicineHandler(svcs.Medicines, svcs.Profiles, svcs.Reviews)
	profileHandler := api.NewProfileHandler(svcs.Profiles, svcs.Images)
	reviewHandler := api.NewReviewHandler(svcs.Reviews)
	scheduleHandler := api.NewScheduleHandler(svcs.Reminders)
	healthHandler := api.NewHealthHandler(svcs.HealthDB, svcs.Redis)

	requireAuth := middleware.RequireAuth(svcs.Auth)
	optionalAuth := middleware.OptionalAuth(svcs.Auth)

	engine.GET("/health", healthHandler.Check)

	// Auth
	engine.POST("/signup", authHandler.Signup)
	engine.POST("/login", authHandler.Login)
	engine.POST("/logout", requireAuth, authHandler.Logout)
	engine.GET("/api/auth/status", optionalAuth, authHandler.Status)
	engine.GET("/api/auth/check-email", authHandler.CheckEmail)
	engine.POST("/api/auth/check-email", authHandler.CheckEmail)
	engine.POST("/forgot_password", authHandler.ForgotPassword)
	engine.GET("/set_new_password/:token", authHandler.ResetPasswordPage)
	engine.POST("/set_new_password/:token", authHandler.ResetPassword)

	// Catalog. The lookup route is rate limited because a miss can start a
	// generation job.
	lookupHandlers := []gin.HandlerFunc{optionalAuth}
	if svcs.Redis != nil {
		limiter := middleware.NewRateLimiter(svcs.Redis, 30, time.Minute)
		lookupHandlers = append(lookupHandlers, limiter.Middleware())
	}
	engine.GET("/medicine/:name", append(lookupHandlers, medicineHandler.Lookup)...)
	engine.GET("/api/medicine/:name", medicineHandler.Get)
	engine.POST("/search", medicineHandler.Search)

	// Profile
	engine.GET("/profile_page", requireAuth, profileHandler.Show)
	engine.POST("/profile_page", requireAuth, profileHandler.Update)
	engine.POST("/api/profile/picture", requireAuth, profileHandler.UploadPicture)
	engine.POST("/api/profile/add-medicine", requireAuth, profileHandler.AddMedicine)
	engine.POST("/favorites/add", requireAuth, profileHandler.AddFavorite)
	engine.POST("/favorites/remove", requireAuth, profileHandler.RemoveFavorite)
	engine.GET("/api/favorites", requireAuth, profileHandler.ListFavorites)
	engine.GET("/api/search-history", optionalAuth, profileHandler.SearchHistory)

	// Reviews
	engine.POST("/review/add", requireAuth, reviewHandler.Add)
	engine.POST("/review/update/:id", requireAuth, reviewHandler.Update)
	engine.POST("/review/delete/:id", requireAuth, reviewHandler.Delete)
	engine.GET("/api/reviews/:name", reviewHandler.ForMedicine)

	// Dose schedule
	engine.GET("/calendar", requireAuth, scheduleHandler.Calendar)
	engine.POST("/schedule/add", requireAuth, scheduleHandler.AddDose)
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start blocks serving HTTP until Shutdown or a fatal error.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
