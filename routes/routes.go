// routes/routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/dagimsenay/refpay_backend/controllers"
	"github.com/dagimsenay/refpay_backend/middleware"
	"github.com/dagimsenay/refpay_backend/services"
	"github.com/dagimsenay/refpay_backend/websocket"
)

// SetupRoutes wires every endpoint. Auth endpoints are public; the rest
// require a token, and the admin group is additionally checked against
// the approval gate inside the handlers.
func SetupRoutes(
	e *echo.Echo,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	paymentController *controllers.PaymentController,
	withdrawalController *controllers.WithdrawalController,
	adminController *controllers.AdminController,
	gate *services.Gate,
	hub *websocket.Hub,
) {
	// Public endpoints
	auth := e.Group("/api/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)

	e.POST("/api/admin/login", adminController.Login)
	e.GET("/api/leaderboard", userController.Leaderboard)

	// Authenticated endpoints
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/users/me", userController.Me)
	api.GET("/users/referral", userController.ReferralLink)
	api.GET("/users/referral/qr", userController.ReferralQR)
	api.GET("/users/referrals", userController.MyReferrals)

	api.POST("/payments", paymentController.Submit)
	api.POST("/withdrawals", withdrawalController.Request)

	// Admin endpoints: the group is fenced by the gate, and the
	// resolving services re-check the actor before any state change
	admin := api.Group("/admin")
	admin.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID, err := middleware.GetActorID(c)
			if err != nil {
				return err
			}
			if !gate.IsAdmin(actorID) {
				return echo.NewHTTPError(403, "Access denied")
			}
			return next(c)
		}
	})
	admin.POST("/register", adminController.RegisterAdmin)
	admin.GET("/stats", adminController.Stats)
	admin.GET("/payments/pending", paymentController.ListPending)
	admin.POST("/payments/:id/approve", paymentController.Approve)
	admin.POST("/payments/:id/reject", paymentController.Reject)
	admin.GET("/withdrawals/pending", withdrawalController.ListPending)
	admin.POST("/withdrawals/:id/approve", withdrawalController.Approve)
	admin.POST("/withdrawals/:id/reject", withdrawalController.Reject)
	admin.PUT("/users/:id/block", adminController.BlockUser)
	admin.PUT("/users/:id/unblock", adminController.UnblockUser)

	// Workflow event stream
	api.GET("/ws", func(c echo.Context) error {
		actorID, err := middleware.GetActorID(c)
		if err != nil {
			return err
		}
		return websocket.HandleWebSocket(c, hub, actorID, gate.IsAdmin(actorID))
	})
}
