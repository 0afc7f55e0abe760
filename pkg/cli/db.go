package cli

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// newLogger builds the CLI logger. Admin commands are run by operators at
// a terminal, so output is plain text rather than JSON.
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("FLEET_ADMIN_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// openDB connects to the database named by dbURL, falling back to the
// FLEET_POSTGRES_URL environment variable
func openDB(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		dbURL = os.Getenv("FLEET_POSTGRES_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required: pass --db or set FLEET_POSTGRES_URL")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
