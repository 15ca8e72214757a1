package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyncServerConfig holds configuration for the sync server binary.
type SyncServerConfig struct {
	DatabaseURL string `json:"database_url" yaml:"database_url"`
	// DataDir is where per-user progress records live.
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// LibraryDir is the book collection the scanner indexes.
	LibraryDir string `json:"library_dir" yaml:"library_dir"`
	Port       string `json:"port" yaml:"port"`
	FFmpegPath string `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	// RescanMinutes is the interval between library rescans; 0 disables
	// the periodic rescan and only the startup scan runs.
	RescanMinutes int        `json:"rescan_minutes" yaml:"rescan_minutes"`
	OIDC          OIDCConfig `json:"oidc" yaml:"oidc"`
}

// OIDCConfig enables the optional bearer-token auth mode. Leave the
// provider URL empty to run with KOReader header auth only.
type OIDCConfig struct {
	ProviderURL string `json:"provider_url" yaml:"provider_url"`
	ClientID    string `json:"client_id" yaml:"client_id"`
}

// Load loads the configuration from a file (YAML or JSON).
func Load(path string, cfg interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
	} else {
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode JSON config file %s: %w", path, err)
		}
	}

	return nil
}
