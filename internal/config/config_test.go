package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SQLitePath != ".eoscam/ledger.db" || cfg.FSMMaxRetries != 3 || cfg.ArchiveRegion != "us-east-1" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.ArchiveEnabled() {
		t.Error("archive enabled without bucket")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("EOSCAM_OUTPUT_DIR", "/photos")
	t.Setenv("EOSCAM_ARCHIVE_BUCKET", "camera-archive")
	t.Setenv("EOSCAM_FSM_MAX_RETRIES", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/photos" || cfg.ArchiveBucket != "camera-archive" || cfg.FSMMaxRetries != 7 {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if !cfg.ArchiveEnabled() {
		t.Error("archive not enabled")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{SQLitePath: "l.db", FSMDBPath: "fsm", OutputDir: ".", FSMMaxRetries: 1}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty sqlite path", func(c *Config) { c.SQLitePath = "" }},
		{"empty fsm path", func(c *Config) { c.FSMDBPath = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"bucket without region", func(c *Config) { c.ArchiveBucket = "b" }},
		{"negative file size", func(c *Config) { c.MaxFileSize = -1 }},
		{"negative total size", func(c *Config) { c.MaxTotalSize = -1 }},
		{"zero retries", func(c *Config) { c.FSMMaxRetries = 0 }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
