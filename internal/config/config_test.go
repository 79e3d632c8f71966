package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BikesFile != "bikes.txt" {
		t.Errorf("expected BikesFile=bikes.txt, got %s", cfg.BikesFile)
	}

	if got := cfg.Thresholds[SourceWeBuyCars]; got != 0.4575 {
		t.Errorf("expected webuycars threshold 0.4575, got %v", got)
	}

	if cfg.HTTP.TimeoutSeconds != 10 {
		t.Errorf("expected TimeoutSeconds=10, got %d", cfg.HTTP.TimeoutSeconds)
	}

	for _, s := range KnownSources {
		if !cfg.Sources.IsEnabled(s) {
			t.Errorf("expected source %s enabled by default", s)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing bikes file",
			modify: func(c *Config) {
				c.BikesFile = ""
			},
			wantErr: true,
		},
		{
			name: "unknown source",
			modify: func(c *Config) {
				c.Sources.Enabled = append(c.Sources.Enabled, "craigslist")
			},
			wantErr: true,
		},
		{
			name: "missing threshold for enabled source",
			modify: func(c *Config) {
				delete(c.Thresholds, SourceGumtree)
			},
			wantErr: true,
		},
		{
			name: "threshold out of range",
			modify: func(c *Config) {
				c.Thresholds[SourceGumtree] = 1.5
			},
			wantErr: true,
		},
		{
			name: "zero threshold",
			modify: func(c *Config) {
				c.Thresholds[SourceAutoTrader] = 0
			},
			wantErr: true,
		},
		{
			name: "invalid timeout",
			modify: func(c *Config) {
				c.HTTP.TimeoutSeconds = 0
			},
			wantErr: true,
		},
		{
			name: "inverted sleep range",
			modify: func(c *Config) {
				c.HTTP.SleepMinSeconds = 5
				c.HTTP.SleepMaxSeconds = 2
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := expandPath(tt.input)
		if err != nil {
			t.Errorf("expandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestLoadBikes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bikes.txt")
	content := "# tracked models\nHonda CB500X\n\nBMW G 310\n  Suzuki V-Strom 250  \n# Kawasaki Ninja 400\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write bikes file: %v", err)
	}

	cfg := Default()
	cfg.BikesFile = path

	bikes, err := cfg.LoadBikes()
	if err != nil {
		t.Fatalf("LoadBikes() error: %v", err)
	}

	want := []string{"Honda CB500X", "BMW G 310", "Suzuki V-Strom 250"}
	if len(bikes) != len(want) {
		t.Fatalf("LoadBikes() = %v, want %v", bikes, want)
	}
	for i := range want {
		if bikes[i] != want[i] {
			t.Errorf("LoadBikes()[%d] = %q, want %q", i, bikes[i], want[i])
		}
	}
}

func TestValidateSearchTerm(t *testing.T) {
	tests := []struct {
		term    string
		wantErr bool
	}{
		{"Honda CB500X", false},
		{"Suzuki DS 250 SX V-STROM", false},
		{"Triumph", true},
		{"", true},
		{"   ", true},
	}

	for _, tt := range tests {
		err := ValidateSearchTerm(tt.term)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSearchTerm(%q) error = %v, wantErr %v", tt.term, err, tt.wantErr)
		}
	}
}
