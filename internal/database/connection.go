package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// DB is the subset of the connection used outside the repositories
type DB interface {
	PingContext(ctx context.Context) error
	Close() error
}

// PostgresDB wraps the sqlx pool shared by all repositories
type PostgresDB struct {
	*sqlx.DB
}

// maskPassword masks the password in a database URL for safe logging
func maskPassword(url string) string {
	re := regexp.MustCompile(`(postgres(?:ql)?://[^:]+:)([^@]+)(@.+)`)
	return re.ReplaceAllString(url, "${1}****${3}")
}

// NewConnection opens the pool using lib/pq ("postgres") or pgx stdlib ("pgx")
func NewConnection(cfg config.DatabaseConfig, logger *logrus.Logger) (*PostgresDB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	connectionURL := cfg.URL

	// Transaction-mode poolers (Supavisor/PgBouncer on 6543) reject prepared statements
	usingPooler := strings.Contains(connectionURL, ":6543")

	logger.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"url":    maskPassword(connectionURL),
		"pooler": usingPooler,
	}).Info("Connecting to database")

	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case "pgx":
		pgxConfig, perr := pgx.ParseConfig(connectionURL)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse database URL: %w", perr)
		}
		if usingPooler {
			pgxConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		}
		connStr := stdlib.RegisterConnConfig(pgxConfig)
		db, err = sqlx.Connect("pgx", connStr)
	default:
		db, err = sqlx.Connect("postgres", connectionURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}
