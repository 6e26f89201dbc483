package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/cmd/utils/internal/commands"
)

const (
	appName    = "kitchenboard-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("KITCHENBOARD", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		logger.Info("✅ Demo seeding completed successfully")

	case "board":
		if err := commands.Board(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Cannot print board: %v", err)
		}

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Kitchenboard utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo    Apply demo seeding (creates active items across tables and takeaway)
  board        Print the current dashboard snapshot as JSON
  reset-db     Drop the kitchenboard database (Mongo only - USE WITH CAUTION)
  version      Print version information
  help         Show this help message

Environment Variables:
  KITCHENBOARD_DB_DRIVER      mongo, postgres or sqlite (default: mongo)
  KITCHENBOARD_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  KITCHENBOARD_DB_SQL_DSN     SQL data source (default: kitchenboard.db)
  KITCHENBOARD_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  KITCHENBOARD_DB_DRIVER=sqlite %s board

`, appName, appName, appName, appName)
}
