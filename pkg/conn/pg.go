// Package conn opens the optional Postgres connection the simulator uses to
// persist end-of-run summaries. A run that never enables persistence never
// opens a connection.
package conn

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// Option builds a Postgres DSN when the caller doesn't already have one.
type Option struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Client wraps a Postgres connection pool opened through gorm.
type Client struct {
	db *gorm.DB
}

// Open connects using a ready-made DSN, e.g. one read straight out of a run
// config's persistence.dsn field.
//
// Unlike a long-lived service, a simulator run opens this connection once,
// persists exactly one summary row, and closes it — there is never more
// than one write in flight, so the pool is capped down to a single
// connection rather than left at gorm's multi-query-service defaults.
func Open(dsn string) (*Client, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("conn: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("conn: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return &Client{db: db}, nil
}

// New builds a DSN from option and connects.
func New(option Option) (*Client, error) {
	return Open(option.dsn())
}

// DB returns the underlying gorm.DB instance for migrations and queries.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Ping verifies the underlying connection is reachable.
func (c *Client) Ping() error {
	if c == nil || c.db == nil {
		return fmt.Errorf("conn: client not initialized")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() string {
	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}
