package config

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the local database. Default is an on-disk sqlite file so
// the app works fully offline; set DB_DRIVER=postgres with DB_URL for a
// server deployment.
func ConnectDB() {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(os.Getenv("DB_URL"))
	default:
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "tailorbook.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		panic("Failed to connect database")
	}

	DB = db
}
