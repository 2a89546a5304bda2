package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gebeya-market/config"
	"gebeya-market/internal/domain/chat"
	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
	"gebeya-market/pkg/database"
)

const usage = `
Gebeya Market - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run GORM migrations
  status      Show database connection status
  seed        Seed the database with demo marketplace data

Flags:
  -admin-telegram-id int   Telegram id of the seeded demo user
                           (default: first entry of ADMIN_TELEGRAM_IDS, else 1)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
`

func main() {
	adminTelegramID := flag.Int64("admin-telegram-id", 0, "Telegram id of the seeded demo user")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed":
		runSeed(cfg, *adminTelegramID)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")

	if err := database.DB.AutoMigrate(
		&user.User{},
		&listing.Category{},
		&listing.Listing{},
		&chat.Chat{},
		&chat.Message{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func showStatus() {
	log.Println("Checking database status...")

	if err := database.HealthCheck(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, table := range []string{"users", "categories", "listings", "chats", "messages"} {
		var count int64
		if err := database.DB.Table(table).Count(&count).Error; err != nil {
			log.Printf("Table %-12s missing or unreadable: %v", table, err)
			continue
		}
		log.Printf("Table %-12s exists (%d rows)", table, count)
	}
}

func runSeed(cfg *config.Config, adminTelegramID int64) {
	log.Println("Seeding demo marketplace data...")

	runMigrationsUp()

	seedCfg := database.DefaultSeedConfig()
	// Flag wins over ADMIN_TELEGRAM_IDS; the seed default covers the rest.
	switch {
	case adminTelegramID != 0:
		seedCfg.AdminTelegramID = adminTelegramID
	case len(cfg.AdminTelegramIDs) > 0:
		seedCfg.AdminTelegramID = cfg.AdminTelegramIDs[0]
	}

	result, err := database.Seed(seedCfg)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if result.AdminUser == nil {
		log.Println("Marketplace already seeded, nothing to do")
		return
	}

	log.Printf("Seeded %d categories and %d listings for %s", len(result.Categories), len(result.Listings), result.AdminUser.DisplayName())
}
