// Package postgres provides a PostgreSQL client built on GORM.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	postgresopts "github.com/lexfisc/lexfisc/pkg/options/postgres"
)

// Client wraps gorm.DB and provides a PostgreSQL database client.
type Client struct {
	db   *gorm.DB
	opts *postgresopts.Options
}

// New creates a new PostgreSQL client from the provided options.
// It validates the options, establishes a connection, and configures the connection pool.
func New(opts *postgresopts.Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a new PostgreSQL client with the given context.
// This allows for timeout and cancellation during connection establishment.
func NewWithContext(ctx context.Context, opts *postgresopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres options: %w", err)
	}

	if opts.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	dsn := BuildDSN(opts)

	logLevel := gormlogger.Silent
	switch opts.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	case 4:
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)

	client := &Client{
		db:   db,
		opts: opts,
	}

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return client, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// SqlDB returns the underlying sql.DB instance.
func (c *Client) SqlDB() (*sql.DB, error) {
	if c.db == nil {
		return nil, fmt.Errorf("gorm.DB is nil")
	}
	return c.db.DB()
}

// Name returns the name of the storage client.
func (c *Client) Name() string {
	return "postgres"
}

// Ping verifies the connection to the PostgreSQL database.
func (c *Client) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := c.SqlDB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	return nil
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}

	sqlDB, err := c.SqlDB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for closing: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}

	return nil
}

// CheckHealth performs a health check on the PostgreSQL database.
// It verifies that the database is accessible and responsive.
func (c *Client) CheckHealth(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("postgres database connection is nil")
	}

	sqlDB, err := c.SqlDB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(checkCtx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}

	stats := sqlDB.Stats()
	if stats.OpenConnections == 0 && stats.MaxOpenConnections > 0 {
		return fmt.Errorf("no open connections available")
	}

	return nil
}

// Stats returns database connection statistics.
func (c *Client) Stats() (sql.DBStats, error) {
	if c.db == nil {
		return sql.DBStats{}, fmt.Errorf("postgres client is nil")
	}

	sqlDB, err := c.SqlDB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return sqlDB.Stats(), nil
}
