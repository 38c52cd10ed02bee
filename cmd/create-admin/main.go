package main

import (
	"flag"
	"log"
	"os"

	"club-room-booking/internal/config"
	"club-room-booking/internal/database"
	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/service"
)

func main() {
	email := flag.String("email", "", "admin email address")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if *email == "" {
		log.Fatal("Usage: create-admin -email admin@example.com [-name \"Room Admin\"] (password from ADMIN_PASSWORD)")
	}

	cfg := config.LoadConfig()
	db := database.Connect(cfg)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	authService := service.NewAuthService(repository.NewUserRepo(db), repository.NewAuditRepo(db), cfg.Auth.AllowedEmailDomain)
	user, created, err := authService.EnsureAdmin(*email, os.Getenv("ADMIN_PASSWORD"), *name)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	if created {
		log.Printf("Created admin %s (%s)", user.Email, user.ID)
	} else {
		log.Printf("Granted admin role to %s (%s)", user.Email, user.ID)
	}
}
