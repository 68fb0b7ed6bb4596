package database

import (
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	var c Config
	if err := c.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Driver != DriverPostgres || c.SSLMode != "disable" || c.MaxConnections != 5 || c.MigrationsDir != "migrations" {
		t.Fatalf("defaults = %+v", c)
	}
	if !c.Persistent() {
		t.Fatal("postgres is persistent")
	}
}

func TestNormalizeSQLite(t *testing.T) {
	c := Config{Driver: " SQLite ", SQLitePath: "/data/bot.db", MaxConnections: 8}
	if err := c.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Driver != DriverSQLite || c.MaxConnections != 1 {
		t.Fatalf("sqlite config = %+v", c)
	}
	if dsn, _ := c.dsn(); !strings.HasPrefix(dsn, "/data/bot.db?") || !strings.Contains(dsn, "foreign_keys(1)") {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, c := range []Config{
		{Driver: DriverSQLite},
		{Driver: "mysql"},
	} {
		if err := c.Normalize(); err == nil {
			t.Fatalf("%q: expected error", c.Driver)
		}
	}
}

func TestMemoryIsNotPersistent(t *testing.T) {
	c := Config{Driver: DriverMemory}
	if err := c.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Persistent() {
		t.Fatal("memory must not be persistent")
	}
	if err := RunMigrations(c); err != nil {
		t.Fatalf("memory migrations should be skipped: %v", err)
	}
}

func TestPostgresURLEscapesCredentials(t *testing.T) {
	c := Config{User: "bot", Password: "p@ss word", Host: "db", Name: "course"}
	if err := c.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	dsn, target := c.dsn()
	if dsn != "postgres://bot:p%40ss%20word@db:5432/course?sslmode=disable" {
		t.Fatalf("dsn = %q", dsn)
	}
	if target != "db:5432/course" || strings.Contains(target, "pass") {
		t.Fatalf("target = %q", target)
	}
	if c.migrateURL() != dsn {
		t.Fatalf("migrate url = %q", c.migrateURL())
	}
}

func TestSQLiteMigrateURL(t *testing.T) {
	c := Config{Driver: DriverSQLite, SQLitePath: "data/bot.db"}
	if err := c.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := c.migrateURL(); !strings.HasPrefix(got, "sqlite://data/bot.db") {
		t.Fatalf("migrate url = %q", got)
	}
	if (Config{Driver: DriverMemory}).migrateURL() != "" {
		t.Fatal("memory has no migrate url")
	}
}
