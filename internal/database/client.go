// Package database provides the Postgres-backed storage collaborator for
// the measurement core.
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sensorstack/telemetryd/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to the measurement database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the Postgres database
func (c *Client) Connect() error {
	log.Info("connecting to Postgres...")
	db, err := CreateConnection(c.connectionString)
	if err != nil {
		return err
	}
	c.DB = db
	log.Info("Postgres connection successful")

	return nil
}

// CreateConnection is a helper function to create a database connection
// with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a Postgres connection:", err)
		return nil, err
	}

	return db, nil
}
