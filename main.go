package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tailorbook-backend/config"
	"tailorbook-backend/controllers"
	"tailorbook-backend/models"
	"tailorbook-backend/routes"
	"tailorbook-backend/services"
	"tailorbook-backend/storage"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.KVEntry{},
		&models.NotificationLog{},
	)
}

func main() {
	ctx := context.Background()

	store := storage.NewDBStore(config.DB)
	if err := storage.Migrate(ctx, store); err != nil {
		log.Fatalf("storage migration failed: %v", err)
	}

	events := services.NewDispatcher()
	ledger := services.NewLedgerService(store, events)

	// Backfill subscription codes once, before the server takes writes.
	for _, p := range []storage.Partition{storage.Professional, storage.Simple} {
		assigned, err := ledger.EnsureCustomerCodes(ctx, p)
		if err != nil {
			log.Fatalf("customer code backfill failed for %s: %v", p, err)
		}
		if assigned > 0 {
			log.Printf("Assigned %d customer codes in %s partition", assigned, p)
		}
	}

	notifications := services.NewNotificationService(config.DB)
	notifications.Register(events)

	var remote services.RemoteStore
	if os.Getenv("S3_BUCKET") != "" {
		r, err := services.NewS3Remote(ctx)
		if err != nil {
			log.Printf("cloud backup disabled: %v", err)
		} else {
			remote = r
		}
	}
	backup := services.NewBackupService(store, ledger, remote)

	controllers.Setup(ledger, backup, store)

	scheduler := services.NewScheduler(config.DB, ledger, backup, events)
	scheduler.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
