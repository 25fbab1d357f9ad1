package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Token:       "file-token",
				Status:      "idle",
				Intents:     513,
				HTTPTimeout: "10s",
				NoReconnect: &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Token:       "file-token",
				Status:      "idle",
				Intents:     513,
				HTTPTimeout: 10 * time.Second,
				NoReconnect: true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Token:  "file-token",
				Status: "dnd",
			},
			changed: map[string]bool{"token": true},
			initial: Config{
				Token:  "flag-token",
				Status: "online",
			},
			expected: Config{
				Token:  "flag-token", // unchanged because flag was set
				Status: "dnd",
			},
		},
		{
			name: "empty values keep defaults",
			fileConfig: FileConfig{
				RequireHeartbeatAck: &falseVal,
			},
			changed:  map[string]bool{},
			initial:  Config{Status: "online", PingCommand: "!ping", RequireHeartbeatAck: true},
			expected: Config{Status: "online", PingCommand: "!ping"},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{HTTPTimeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				Token:               "abc",
				GatewayURL:          "ws://localhost:9000/",
				APIURL:              "http://localhost:8080",
				Status:              "invisible",
				Intents:             1,
				NoReconnect:         &falseVal,
				RequireHeartbeatAck: &trueVal,
				HTTPTimeout:         "1m",
				GlobalRateLimit:     10,
				RouteRateLimit:      2.5,
				LogLevel:            "debug",
				PingCommand:         "?ping",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Token:               "abc",
				GatewayURL:          "ws://localhost:9000/",
				APIURL:              "http://localhost:8080",
				Status:              "invisible",
				Intents:             1,
				RequireHeartbeatAck: true,
				HTTPTimeout:         time.Minute,
				GlobalRateLimit:     10,
				RouteRateLimit:      2.5,
				LogLevel:            "debug",
				PingCommand:         "?ping",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
token = "abc"
status = "dnd"
intents = 513
http_timeout = "5s"
route_rate_limit = 2.5
require_heartbeat_ack = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Token != "abc" {
		t.Errorf("Token = %v, want abc", fc.Token)
	}
	if fc.Status != "dnd" {
		t.Errorf("Status = %v, want dnd", fc.Status)
	}
	if fc.Intents != 513 {
		t.Errorf("Intents = %v, want 513", fc.Intents)
	}
	if fc.HTTPTimeout != "5s" {
		t.Errorf("HTTPTimeout = %v, want 5s", fc.HTTPTimeout)
	}
	if fc.RouteRateLimit != 2.5 {
		t.Errorf("RouteRateLimit = %v, want 2.5", fc.RouteRateLimit)
	}
	if fc.RequireHeartbeatAck == nil || !*fc.RequireHeartbeatAck {
		t.Errorf("RequireHeartbeatAck = %v, want true", fc.RequireHeartbeatAck)
	}
	if fc.NoReconnect != nil {
		t.Errorf("NoReconnect = %v, want nil", fc.NoReconnect)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
token = "abc"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".fluxer") {
		t.Errorf("DefaultConfigPath() = %v, should contain .fluxer", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
