package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"estateline/internal/config"
	"estateline/internal/domain/conversation"
	"estateline/internal/domain/message"
	"estateline/internal/domain/notification"
	"estateline/internal/domain/outbox"
	"estateline/internal/domain/property"
	"estateline/internal/domain/user"
	"estateline/pkg/database"
)

const usage = `
Estateline - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM migrations
  status      Show database connection status and table counts
  seed-dev    Seed with development/test data
  truncate    Truncate all tables (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
`

func tables() []interface{} {
	return []interface{}{
		&user.User{},
		&property.Property{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&conversation.ConversationSequence{},
		&message.Message{},
		&message.MessageReceipt{},
		&message.Attachment{},
		&message.MessageAttachment{},
		&notification.Notification{},
		&outbox.OutboxEvent{},
	}
}

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	case "seed-dev":
		runSeedDevelopment(db)
	case "truncate":
		runTruncate(db)
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("Running migrations...")
	if err := db.AutoMigrate(tables()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func showStatus(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Database handle unavailable: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, model := range tables() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			log.Printf("Error parsing model: %v", err)
			continue
		}
		name := stmt.Schema.Table
		if !db.Migrator().HasTable(model) {
			log.Printf("Table %-25s does not exist", name)
			continue
		}
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			log.Printf("Error counting table %s: %v", name, err)
			continue
		}
		log.Printf("Table %-25s exists (%d rows)", name, count)
	}
}

func runSeedDevelopment(db *gorm.DB) {
	log.Println("Seeding database (development mode)...")

	result, err := database.SeedDevelopment(db)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d properties", len(result.Users), len(result.Properties))
	log.Println("Development seeding completed")
}

func runTruncate(db *gorm.DB) {
	log.Println("WARNING: truncating all tables")

	for _, model := range tables() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			log.Fatalf("Error parsing model: %v", err)
		}
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", stmt.Schema.Table)).Error; err != nil {
			log.Fatalf("Truncate failed for %s: %v", stmt.Schema.Table, err)
		}
	}
	log.Println("All tables truncated")
}
