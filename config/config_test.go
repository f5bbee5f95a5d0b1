package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("EVENT_TIMEZONE", "")
	t.Setenv("ENROLLMENT_SERIALIZABLE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Events.Timezone != "America/Sao_Paulo" {
		t.Errorf("timezone = %q", cfg.Events.Timezone)
	}
	if cfg.Enrollment.Serializable {
		t.Error("serializable enabled by default")
	}
	if _, err := cfg.Events.Location(); err != nil {
		t.Errorf("location: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("ENROLLMENT_SERIALIZABLE", "true")
	t.Setenv("ENROLLMENT_STRICT_OWNERSHIP", "1")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if !cfg.Enrollment.Serializable || !cfg.Enrollment.StrictOwnership {
		t.Errorf("enrollment = %+v", cfg.Enrollment)
	}
	if cfg.Email.SMTPPort != 587 {
		t.Errorf("smtp port fallback = %d", cfg.Email.SMTPPort)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "1", DBName: "d", SSLMode: "disable"}
	if got := c.DSN(); got != "postgres://u:p@h:1/d?sslmode=disable" {
		t.Errorf("dsn = %q", got)
	}
	c.URL = "postgres://x"
	if got := c.DSN(); got != "postgres://x" {
		t.Errorf("dsn = %q", got)
	}
}
