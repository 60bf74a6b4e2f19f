package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("REMINDER_WINDOW_DAYS", "")
	t.Setenv("REMINDER_BATCH_SIZE", "")
	t.Setenv("TIMEZONE", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.ReminderWindowDays != DefaultReminderWindowDays {
		t.Fatalf("expected window %d, got %d", DefaultReminderWindowDays, cfg.ReminderWindowDays)
	}
	if cfg.ReminderBatchSize != DefaultReminderBatchSize {
		t.Fatalf("expected batch %d, got %d", DefaultReminderBatchSize, cfg.ReminderBatchSize)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("expected UTC location, got %v", cfg.Location)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("REMINDER_WINDOW_DAYS", "14")
	t.Setenv("REMINDER_BATCH_SIZE", "not-a-number")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("REMINDER_DISPATCH_INTERVAL", "45s")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ReminderWindowDays != 14 {
		t.Fatalf("expected window 14, got %d", cfg.ReminderWindowDays)
	}
	if cfg.ReminderBatchSize != DefaultReminderBatchSize {
		t.Fatalf("expected invalid batch size to fall back, got %d", cfg.ReminderBatchSize)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3 store, got %q", cfg.ObjectStoreType)
	}
	if cfg.DispatchInterval != 45*time.Second {
		t.Fatalf("expected 45s interval, got %s", cfg.DispatchInterval)
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport ALLIE_TEST_A=\"from-file\"\nALLIE_TEST_B='b'\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ALLIE_TEST_A", "from-env")
	t.Setenv("ALLIE_TEST_B", "")
	os.Unsetenv("ALLIE_TEST_B")

	loadEnvFiles(path)

	if got := os.Getenv("ALLIE_TEST_A"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("ALLIE_TEST_B"); got != "b" {
		t.Fatalf("expected file value b, got %q", got)
	}
}
