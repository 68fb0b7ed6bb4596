package database

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const defaultMigrationsDir = "migrations"

// Config holds the journal database settings.
type Config struct {
	// Driver and SQLitePath are filled from the storage section.
	Driver     string `yaml:"-"`
	SQLitePath string `yaml:"-"`

	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Normalize fills defaults and validates driver-specific fields.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = defaultMigrationsDir
	}
	switch c.Driver {
	case DriverPostgres:
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.MaxConnections <= 0 {
			c.MaxConnections = 5
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
		c.MaxConnections = 1
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, sqlite, memory", c.Driver)
	}
	return nil
}

// Persistent reports whether the driver keeps data across restarts.
func (c Config) Persistent() bool {
	return c.Driver != DriverMemory
}

// dsn returns the driver connection string and a log-safe target name.
func (c Config) dsn() (string, string) {
	switch c.Driver {
	case DriverPostgres:
		q := url.Values{"sslmode": {c.SSLMode}}
		return "postgres://" + c.userinfo() + "@" + c.hostport() + "/" + c.Name + "?" + q.Encode(), c.hostport() + "/" + c.Name
	case DriverSQLite:
		return c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.SQLitePath
	}
	return "", ""
}

// migrateURL is the golang-migrate database URL; empty for memory.
func (c Config) migrateURL() string {
	switch c.Driver {
	case DriverPostgres:
		dsn, _ := c.dsn()
		return dsn
	case DriverSQLite:
		return "sqlite://" + filepath.ToSlash(c.SQLitePath)
	}
	return ""
}

func (c Config) userinfo() string {
	if c.Password == "" {
		return url.User(c.User).String()
	}
	return url.UserPassword(c.User, c.Password).String()
}

func (c Config) hostport() string {
	host, port := c.Host, c.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	return net.JoinHostPort(host, port)
}
