package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected default address %s", cfg.HTTPAddress)
	}
	if cfg.PersistenceDriver != PersistenceDriverSQLite {
		t.Fatalf("unexpected default driver %s", cfg.PersistenceDriver)
	}
	if cfg.DatabasePath != "canvas.db" {
		t.Fatalf("unexpected default database path %s", cfg.DatabasePath)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected default origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	v := NewViper()
	v.Set("persistence.driver", "dynamo")
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error for unknown persistence driver")
	}
}

func TestLoadRequiresDatabasePathForSQLite(t *testing.T) {
	v := NewViper()
	v.Set("database.path", "")
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error when sqlite driver has no database path")
	}
}

func TestMemoryDriverNeedsNoDatabasePath(t *testing.T) {
	v := NewViper()
	v.Set("persistence.driver", "MEMORY")
	v.Set("database.path", "")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.PersistenceDriver != PersistenceDriverMemory {
		t.Fatalf("expected normalized driver, got %s", cfg.PersistenceDriver)
	}
}
