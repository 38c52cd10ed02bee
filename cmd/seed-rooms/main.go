package main

import (
	"context"
	"log"

	"club-room-booking/internal/config"
	"club-room-booking/internal/database"
	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/service"
)

func main() {
	cfg := config.LoadConfig()
	sched, err := cfg.BuildSchedule()
	if err != nil {
		log.Fatalf("Invalid schedule configuration: %v", err)
	}

	db := database.Connect(cfg)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	roomService := service.NewRoomService(db, sched, repository.NewRoomRepo(db), repository.NewCalendarRepo(db))
	n, err := roomService.SeedRooms(context.Background())
	if err != nil {
		log.Fatalf("Seeded %d rooms before failing: %v", n, err)
	}
	log.Printf("Seeded %d rooms", n)
}
