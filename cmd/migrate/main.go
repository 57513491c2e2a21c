package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/database"
	"github.com/sirupsen/logrus"
)

func main() {
	var dbURLFlag, driverFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driverFlag, "driver", "postgres", "database driver: postgres or pgx")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [flags] up|down|status\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		Driver:             driverFlag,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := database.NewConnection(dbCfg, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		err = database.Migrate(db.DB.DB)
	case "down":
		err = database.MigrateDown(db.DB.DB)
	case "status":
		err = database.MigrationStatus(db.DB.DB)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("migrate %s failed: %v", command, err)
	}

	fmt.Printf("migrate %s completed\n", command)
}
