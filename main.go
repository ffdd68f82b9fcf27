package main

import (
	"log"

	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/handlers"
	"tripledger-backend/middleware"
	"tripledger-backend/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Wire services
	provider := services.NewExchangeRateAPI(config.AppConfig.FXAPIKey, config.AppConfig.FXAPIBaseURL)
	services.Setup(database.NewGormStore(database.DB), provider, database.Redis)

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)
		api.POST("/users/search", handlers.SearchUsers)

		// Trips
		api.POST("/trips", handlers.CreateTrip)
		api.GET("/trips", handlers.GetTrips)
		api.GET("/trips/:id", handlers.GetTrip)
		api.DELETE("/trips/:id", handlers.DeleteTrip)
		api.POST("/trips/:id/invite", handlers.InviteParticipant)
		api.POST("/trips/:id/invitations/accept", handlers.AcceptInvitation)
		api.POST("/trips/:id/invitations/decline", handlers.DeclineInvitation)

		// Expenses
		api.POST("/trips/:id/expenses", handlers.CreateExpense)
		api.GET("/trips/:id/expenses", handlers.GetTripExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)

		// Budgets
		api.GET("/trips/:id/budget", handlers.GetBudget)
		api.PUT("/trips/:id/budget", handlers.SetBudget)
		api.GET("/trips/:id/budget/summary", handlers.GetBudgetSummary)

		// Balances & settlement
		api.GET("/trips/:id/balances", handlers.GetTripBalances)
		api.POST("/trips/:id/settle", handlers.TriggerSettlement)
		api.GET("/trips/:id/settlement", handlers.GetSettlementResult)

		// Exchange rates
		api.GET("/fx/rates", handlers.GetExchangeRate)

		// Receipt scanning
		api.POST("/ocr/parse", handlers.ParseReceipt)

		// Activity
		api.GET("/trips/:id/activity", handlers.GetTripActivity)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)
	log.Printf("💱 Base currency: %s", config.AppConfig.BaseCurrency)

	addr := "0.0.0.0:" + port
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
