package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/smarttransit/shuttle-tracking-backend/internal/config"
	"github.com/smarttransit/shuttle-tracking-backend/internal/database"
	"github.com/smarttransit/shuttle-tracking-backend/internal/models"
)

// Bootstrap tool for the first admin account. Subsequent admins are created
// through the authenticated admin API.
func main() {
	var (
		username string
		password string
		fullName string
		dbURL    string
	)
	flag.StringVar(&username, "username", "", "admin username")
	flag.StringVar(&password, "password", "", "admin password (min 8 characters)")
	flag.StringVar(&fullName, "full-name", "", "admin display name")
	flag.StringVar(&dbURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	_ = godotenv.Load()

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if username == "" || fullName == "" {
		log.Fatal("-username and -full-name are required")
	}
	if len(password) < 8 {
		log.Fatal("-password must be at least 8 characters")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &models.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		IsActive:     true,
	}

	if err := database.NewAdminRepository(db).Create(admin); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user %q created (id %s)\n", admin.Username, admin.ID)
}
