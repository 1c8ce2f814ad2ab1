// Command mcp-reminder serves the meal reminder session over MCP (stdio).
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
//
// Configuration is read the same way as the API server: an optional YAML
// file named by REMINDER_CONFIG, then REMINDER_ prefixed environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"mealreminder/internal/application/service"
	"mealreminder/internal/infrastructure/database/sqlite"
	"mealreminder/internal/infrastructure/scheduler"
	"mealreminder/internal/interfaces/mcpserver"
	"mealreminder/internal/pkg/config"
	appLogger "mealreminder/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(os.Getenv("REMINDER_CONFIG"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, logs go to stderr.
	appLog := appLogger.New(os.Stderr, appLogger.ParseLevel(cfg.Log.Level))
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("Invalid reminder timezone", err)
		os.Exit(1)
	}

	db, err := sqlite.NewDB(cfg.Database, os.Stderr, appLog)
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	defer sqlite.CloseDB(db)

	cronScheduler := scheduler.NewScheduler(loc, appLog)
	defer cronScheduler.Stop()
	notifier := scheduler.NewLocalNotifier(cronScheduler, scheduler.NewLogDeliverer(appLog), appLog)

	reminderRepo := sqlite.NewReminderRepository(db)
	userSvc := service.NewUserService(sqlite.NewUserRepository(db), reminderRepo, appLog)
	reminderSvc := service.NewReminderService(service.SyncEngineConfig{
		Remote:           reminderRepo,
		Scheduler:        notifier,
		Permissions:      userSvc,
		OwnedPrefix:      cfg.Reminder.OwnedPrefix,
		NotificationBody: cfg.Reminder.NotificationBody,
		Log:              appLog,
	})
	if err := reminderSvc.RestoreSchedules(context.Background()); err != nil {
		appLog.Error("Failed to restore schedules on startup", err)
	}

	s := mcpserver.NewServer(reminderSvc, userSvc, appLog)
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		appLog.Error("MCP server error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Meal Reminder Server - daily meal reminders via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    REMINDER_CONFIG                 Optional YAML config file
    REMINDER_DATABASE__PATH         SQLite database file (default: reminder.db)
    REMINDER_REMINDER__TIMEZONE     IANA zone of reminder times (default: local)
    REMINDER_LOG__LEVEL             debug, info, warn, error (default: info)

TOOLS:
    load_reminders                Load the user's saved reminders
    list_reminders                Show the working set and session state
    add_reminder                  Add a reminder (name, time HH:MM)
    edit_reminder                 Change name, time or enabled flag
    toggle_reminder               Enable or disable a reminder
    remove_reminder               Remove a reminder
    commit_reminders              Save and reschedule notifications
    set_notification_permission   Allow or deny notifications
    logout                        End the session and cancel notifications`)
}
