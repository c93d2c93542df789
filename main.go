package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/controllers"
	"github.com/garagedesk/garagedesk-api/middleware"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting GarageDesk API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Workflow collaborators
	services.InitInvoiceRenderer()
	services.InitNotifier()
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitDocumentStore(); err != nil {
			log.Printf("Invoice archival disabled: %v", err)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set, invoice archival disabled")
	}

	router := setupRouter()

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires the full API surface. Role gates follow the workflow:
// receptionists handle arrival, service advisors run the jobcard, mechanics
// complete their own work, managers own invoicing and the catalogs.
func setupRouter() *gin.Engine {
	cfg := config.GetConfig()

	router := gin.Default()
	router.Use(cors.Default())

	staffRoles := []string{models.RoleReceptionist, models.RoleServiceAdvisor, models.RoleMechanic, models.RoleManager}
	assignerRoles := []string{models.RoleReceptionist, models.RoleServiceAdvisor, models.RoleManager}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/me", middleware.EnsureValidToken(cfg), controllers.Me)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.GET("/slots", controllers.GetAvailableSlots)
			bookings.GET("/availability", controllers.CheckAvailability)

			bookings.Use(middleware.EnsureValidToken(cfg))
			bookings.POST("", middleware.RequireRole(models.RoleCustomer), controllers.CreateBooking)
			bookings.GET("/my", middleware.RequireRole(models.RoleCustomer), controllers.GetMyBookings)
			bookings.GET("", middleware.RequireRole(staffRoles...), controllers.ListBookings)
			bookings.GET("/:id", controllers.GetBooking)
			bookings.PATCH("/:id/status", middleware.RequireRole(assignerRoles...), controllers.UpdateBookingStatus)
			bookings.POST("/:id/jobcard/submit",
				middleware.RequireRole(models.RoleServiceAdvisor, models.RoleManager), controllers.SubmitJobcard)

			bookings.POST("/:id/invoice", middleware.RequireRole(models.RoleManager), controllers.GenerateInvoice)
			bookings.POST("/:id/invoice/finalize", middleware.RequireRole(models.RoleManager), controllers.FinalizeInvoice)
			bookings.GET("/:id/invoice/download", middleware.RequireRole(models.RoleCustomer), controllers.DownloadInvoice)
		}

		jobcards := v1.Group("/jobcards", middleware.EnsureValidToken(cfg))
		{
			jobcards.GET("/:id", middleware.RequireRole(staffRoles...), controllers.GetJobcard)
			jobcards.PUT("/:id/mechanics", middleware.RequireRole(assignerRoles...), controllers.AssignMechanics)
			jobcards.PUT("/:id/parts", middleware.RequireRole(assignerRoles...), controllers.AssignSpareParts)
			jobcards.POST("/:id/complete",
				middleware.RequireRole(models.RoleMechanic, models.RoleManager), controllers.CompleteWork)
			jobcards.POST("/:id/approve",
				middleware.RequireRole(models.RoleServiceAdvisor, models.RoleManager), controllers.ApproveJobcard)
		}

		breakdowns := v1.Group("/breakdowns", middleware.EnsureValidToken(cfg))
		{
			breakdowns.POST("", middleware.RequireRole(models.RoleCustomer), controllers.CreateBreakdown)
			breakdowns.GET("/my", middleware.RequireRole(models.RoleCustomer), controllers.GetMyBreakdowns)
		}

		mechanics := v1.Group("/mechanics", middleware.EnsureValidToken(cfg))
		{
			mechanics.GET("", middleware.RequireRole(staffRoles...), controllers.ListMechanics)
			mechanics.POST("", middleware.RequireRole(models.RoleManager), controllers.CreateMechanic)
			mechanics.PATCH("/:id", middleware.RequireRole(models.RoleManager), controllers.UpdateMechanic)
		}

		parts := v1.Group("/spare-parts", middleware.EnsureValidToken(cfg))
		{
			parts.GET("", middleware.RequireRole(staffRoles...), controllers.ListSpareParts)
			parts.POST("", middleware.RequireRole(models.RoleManager), controllers.CreateSparePart)
			parts.PATCH("/:id", middleware.RequireRole(models.RoleManager), controllers.UpdateSparePart)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "GarageDesk API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
