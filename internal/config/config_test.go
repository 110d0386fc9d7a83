package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	f := Flags()
	if err := f.Parse(nil); err != nil {
		t.Fatalf("failed to parse empty flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "certprep.db" {
		t.Errorf("DBPath = %q, want default certprep.db", cfg.DBPath)
	}
	if cfg.DefaultUserID != 1 {
		t.Errorf("DefaultUserID = %d, want 1", cfg.DefaultUserID)
	}
	if cfg.SessionSize != 65 {
		t.Errorf("SessionSize = %d, want 65", cfg.SessionSize)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	f := Flags()
	args := []string{"--db_path", "override.db", "--session_size", "20"}
	if err := f.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "override.db" {
		t.Errorf("DBPath = %q, want override.db", cfg.DBPath)
	}
	if cfg.SessionSize != 20 {
		t.Errorf("SessionSize = %d, want 20", cfg.SessionSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CERTPREP_LISTEN", "127.0.0.1:9999")
	t.Setenv("CERTPREP_SESSION_SIZE", "25")

	f := Flags()
	if err := f.Parse(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q, want env override 127.0.0.1:9999", cfg.Listen)
	}
	if cfg.SessionSize != 25 {
		t.Errorf("SessionSize = %d, want env override 25", cfg.SessionSize)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "certprep.yaml")
	content := "db_path: from-file.db\nsession_size: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	f := Flags()
	if err := f.Parse([]string{"--config", path}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "from-file.db" {
		t.Errorf("DBPath = %q, want from-file.db", cfg.DBPath)
	}
	if cfg.SessionSize != 30 {
		t.Errorf("SessionSize = %d, want 30", cfg.SessionSize)
	}
}

func TestLoadValidation(t *testing.T) {
	f := Flags()
	if err := f.Parse([]string{"--session_size", "0"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	if _, err := Load(f); err == nil {
		t.Error("expected validation error for session_size 0")
	}
}
