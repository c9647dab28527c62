package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"mspdesk-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// GetTenantDB returns a new DB session with search_path set to the tenant schema.
func GetTenantDB(schema string) (*gorm.DB, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return nil, fmt.Errorf("empty schema name")
	}

	tenantDB := DB.Session(&gorm.Session{NewDB: true})
	if err := tenantDB.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
		return nil, err
	}

	return tenantDB, nil
}

func Connect() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Println(err)
		panic("Could not connect to database")
	}
}

// AutoMigrate creates the public-schema tables: registration records
// plus the gateway's endpoint registry, API keys and request logs
// (tenant-scoped by column, not by schema, so the gateway can resolve
// them before any tenant context exists).
func AutoMigrate() {
	DB.AutoMigrate(
		models.ContactPerson{}, models.Company{}, models.User{},
		models.Endpoint{}, models.APIKey{}, models.RequestLog{},
	)
}
