package routes

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tailorbook-backend/config"
	"tailorbook-backend/controllers"
	"tailorbook-backend/utils"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
		auth.PUT("/settings", controllers.UpdateAccountSettings)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(), controllers.ApprovedOnly())
	{
		// Customer routes (all accept ?mode=simple for the simple partition)
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Order routes
		orders := api.Group("/orders")
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("", controllers.GetOrders)
			orders.GET("/:id/debt", controllers.GetOrderDebt)
			orders.PUT("/:id/status", controllers.UpdateOrderStatus)
			orders.POST("/:id/payments", controllers.AddOrderPayment)
			orders.DELETE("/:id", controllers.DeleteOrder)
		}

		// Ledger routes
		transactions := api.Group("/transactions")
		{
			transactions.POST("", controllers.CreateTransaction)
			transactions.GET("", controllers.GetTransactions)
		}

		// Backup routes
		backup := api.Group("/backup")
		{
			backup.GET("/export", controllers.ExportBackup)
			backup.POST("/import", controllers.ImportBackup)
			backup.POST("/cloud/upload", controllers.UploadCloudBackup)
			backup.POST("/cloud/download", controllers.DownloadCloudBackup)
		}

		// Reports routes
		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetLedgerReport)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Settings routes
		settings := api.Group("/settings")
		{
			settings.GET("/shop", controllers.GetShopInfo)
			settings.PUT("/shop", controllers.UpdateShopInfo)
			settings.GET("/measurement-labels", controllers.GetMeasurementLabels)
			settings.PUT("/measurement-labels", controllers.UpdateMeasurementLabels)
		}
	}

	return r
}
