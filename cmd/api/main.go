package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "mealreminder/internal/application/service"

	// Infrastructure Layer
	"mealreminder/internal/infrastructure/database/sqlite"
	lineClient "mealreminder/internal/infrastructure/line"
	"mealreminder/internal/infrastructure/scheduler"

	// Interfaces Layer
	"mealreminder/internal/interfaces/api/handler"
	"mealreminder/internal/interfaces/api/router"

	// Packages
	"mealreminder/internal/pkg/config"
	appLogger "mealreminder/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"gorm.io/gorm"
)

func gracefulShutdown(apiServer *http.Server, cronScheduler *scheduler.Scheduler, db *gorm.DB, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	// Stop firing triggers before the store goes away
	log.Println("Stopping scheduler...")
	cronScheduler.Stop()
	log.Println("Scheduler stopped.")

	log.Println("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		log.Printf("Error closing database: %v", err)
	} else {
		log.Println("Database connection closed.")
	}

	// The server has 5 seconds to finish the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")
	done <- true
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load(os.Getenv("REMINDER_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := appLogger.New(os.Stdout, appLogger.ParseLevel(cfg.Log.Level))
	appLog.Info("Logger initialized.")

	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("Invalid reminder timezone", err)
		os.Exit(1)
	}

	// --- Infrastructure ---
	db, err := sqlite.NewDB(cfg.Database, os.Stdout, appLog)
	if err != nil {
		appLog.Error("Failed to initialize database", err)
		os.Exit(1)
	}
	userRepo := sqlite.NewUserRepository(db)
	reminderRepo := sqlite.NewReminderRepository(db)
	appLog.Info("Database and repositories initialized.")

	cronScheduler := scheduler.NewScheduler(loc, appLog)

	// Fired reminders are pushed over LINE when it is configured
	var line *lineClient.Client
	var deliverer scheduler.Deliverer = scheduler.NewLogDeliverer(appLog)
	if cfg.Line.Enabled() {
		line, err = lineClient.NewClient(cfg.Line, appLog)
		if err != nil {
			appLog.Error("Failed to create LINE client", err)
			os.Exit(1)
		}
		deliverer = line
	} else {
		appLog.Warn("LINE channel credentials not set, notifications will only be logged.")
	}
	notifier := scheduler.NewLocalNotifier(cronScheduler, deliverer, appLog)

	// --- Application Services ---
	userSvc := appService.NewUserService(userRepo, reminderRepo, appLog)
	reminderSvc := appService.NewReminderService(appService.SyncEngineConfig{
		Remote:           reminderRepo,
		Scheduler:        notifier,
		Permissions:      userSvc,
		OwnedPrefix:      cfg.Reminder.OwnedPrefix,
		NotificationBody: cfg.Reminder.NotificationBody,
		Log:              appLog,
	})
	appLog.Info("Application services initialized.")

	// --- Restore Schedules ---
	if err := reminderSvc.RestoreSchedules(context.Background()); err != nil {
		// Log the error but continue starting the server
		appLog.Error("Failed to restore schedules on startup", err)
	}

	// --- API Handlers ---
	routerCfg := &router.Config{
		ReminderHandler: handler.NewReminderHandler(reminderSvc, userSvc, appLog),
		Logger:          appLog,
	}
	if line != nil {
		routerCfg.LineHandler = handler.NewLineHandler(line, userSvc, reminderSvc, appLog)
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, cronScheduler, db, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	appLog.Info("Graceful shutdown complete.")
}
