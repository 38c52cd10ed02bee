package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-room-booking/internal/config"
	"club-room-booking/internal/database"
	"club-room-booking/internal/handler"
	"club-room-booking/internal/middleware"
	"club-room-booking/internal/models"
	"club-room-booking/internal/notify"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	sched, err := cfg.BuildSchedule()
	if err != nil {
		log.Fatalf("Invalid schedule configuration: %v", err)
	}
	log.Printf("Configuration loaded - %d slots per day, %s", sched.TotalSlots(), sched.Timezone())

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection
	db := database.Connect(cfg)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 4. Calendar change publisher
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis at %s unreachable, events will be dropped until it recovers: %v", cfg.Redis.Addr, err)
		}
		redisNotifier := notify.NewRedisNotifier(client, cfg.Redis.Channel)
		defer redisNotifier.Close()
		notifier = redisNotifier
	}

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// 6. Initialize services
	authService := service.NewAuthService(userRepo, auditRepo, cfg.Auth.AllowedEmailDomain)
	roomService := service.NewRoomService(db, sched, roomRepo, calendarRepo)
	bookingService := service.NewBookingService(db, sched, roomRepo, bookingRepo, calendarRepo, notifier)
	reportService := service.NewReportService(db, bookingRepo)

	// 7. Start background worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Worker.CalendarAuditInterval > 0 {
		workerService := service.NewWorkerService(db, sched, calendarRepo, bookingRepo, cfg.Worker.CalendarAuditInterval)
		go workerService.Start(ctx)
	}

	// 8. Setup Gin
	gin.SetMode(cfg.Server.GinMode)
	r := gin.Default()
	r.Use(middleware.CORS(cfg))

	handler.RegisterRoutes(r, handler.Routes{
		Auth:          handler.NewAuthHandler(authService),
		Room:          handler.NewRoomHandler(roomService, sched),
		Booking:       handler.NewBookingHandler(bookingService, sched),
		Report:        handler.NewReportHandler(reportService, sched),
		BookingLimits: middleware.NewRateLimiter(cfg.RateLimit.BookingsPerMinute, cfg.RateLimit.Burst),
	})

	// 9. Serve with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
