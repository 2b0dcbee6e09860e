package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/dagimsenay/refpay_backend/config"
	"github.com/dagimsenay/refpay_backend/controllers"
	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/repositories"
	"github.com/dagimsenay/refpay_backend/routes"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()

	// Connect to Redis (optional; leaderboard caching only)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Refpay backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	referralRepo := repositories.NewReferralRepository(client)
	paymentRepo := repositories.NewPaymentRepository(client)
	withdrawalRepo := repositories.NewWithdrawalRepository(client)
	adminRepo := repositories.NewAdminRepository(client)

	// Initialize services
	gate := services.NewGate(cfg.AdminIDs)
	accountService := services.NewAccountService(userRepo, redisClient, cfg)
	referralService := services.NewReferralService(accountService, referralRepo, cfg)
	paymentService := services.NewPaymentService(accountService, referralService, paymentRepo, gate, cfg)
	withdrawalService := services.NewWithdrawalService(accountService, withdrawalRepo, gate, cfg)

	// Initialize controllers
	authController := controllers.NewAuthController(accountService, referralService)
	userController := controllers.NewUserController(accountService, referralService, cfg)
	paymentController := controllers.NewPaymentController(paymentService, wsHub)
	withdrawalController := controllers.NewWithdrawalController(withdrawalService, wsHub)
	adminController := controllers.NewAdminController(accountService, adminRepo, paymentRepo, withdrawalRepo, gate)

	routes.SetupRoutes(e, authController, userController, paymentController, withdrawalController, adminController, gate, wsHub)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
