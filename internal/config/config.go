/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the user
// config directory, overridden by FSG_* environment variables. The export
// service token lives in the OS keyring, never in the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"fancyscript/internal/domain"
)

// CurrentVersion is written to new config files. Bump it when the structure
// changes in a backward-incompatible way.
const CurrentVersion = 1

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type ExportConfig struct {
	// ServiceURL is the base URL of the remote rendering service; empty
	// disables remote export.
	ServiceURL   string  `yaml:"service_url"`
	TimeoutMs    int     `yaml:"timeout_ms"`
	Origin       string  `yaml:"origin"`
	OutDir       string  `yaml:"out_dir"`
	Preset       string  `yaml:"preset"`
	DPI          int     `yaml:"dpi"`
	PageWidthMm  float64 `yaml:"page_width_mm"`
	PageHeightMm float64 `yaml:"page_height_mm"`
	Background   string  `yaml:"background"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type DataConfig struct {
	// Empty files select the bundled data set.
	CharactersFile string `yaml:"characters_file"`
	JinxesFile     string `yaml:"jinxes_file"`
	OldJinxesFile  string `yaml:"old_jinxes_file"`
	// HistoryDir holds the export history database; empty means the
	// directory of the config file.
	HistoryDir string `yaml:"history_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
type AppConfig struct {
	ConfigVersion int                  `yaml:"config_version"`
	General       GeneralConfig        `yaml:"general"`
	Export        ExportConfig         `yaml:"export"`
	Data          DataConfig           `yaml:"data"`
	Logging       LoggingConfig        `yaml:"logging"`
	Options       domain.ScriptOptions `yaml:"options"`

	// path is the file the config was loaded from.
	path string
}

// Path returns the file the config was loaded from, empty for Defaults.
func (c AppConfig) Path() string { return c.path }

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		Export:        ExportConfig{TimeoutMs: 60000, OutDir: "exports", Preset: "print", Background: "#f4e4c1"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Options:       domain.DefaultOptions(),
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "FSG_CONFIG"
	EnvExportURL      = "FSG_EXPORT_URL"
	EnvExportTimeout  = "FSG_EXPORT_TIMEOUT_MS"
	EnvExportToken    = "FSG_EXPORT_TOKEN"
	EnvExportOutDir   = "FSG_EXPORT_DIR"
	EnvTelemetryOptIn = "FSG_TELEMETRY_OPT_IN"
	EnvCharactersFile = "FSG_CHARACTERS_FILE"
	EnvJinxesFile     = "FSG_JINXES_FILE"
	EnvHistoryDir     = "FSG_HISTORY_DIR"
	EnvColor          = "FSG_COLOR"
	EnvLogLevel       = "FSG_LOG_LEVEL"
	EnvLogFormat      = "FSG_LOG_FORMAT"
	EnvLogSource      = "FSG_LOG_SOURCE"
	EnvLogFile        = "FSG_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "fancyscript"
	keyringToken   = "export_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// osKeyring implements TokenStore with github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. FSG_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "FancyScript")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "FancyScript")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "fancyscript")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config, applies environment overrides and fetches the
// export token from the keyring (FSG_EXPORT_TOKEN wins when set). A missing
// file yields the defaults.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Fields absent from the file keep their defaults.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), "", fmt.Errorf("parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config: %w", err)
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	cfg.path = path

	tok := strings.TrimSpace(os.Getenv(EnvExportToken))
	if tok == "" {
		tok, _ = tokenStore.Get(keyringService, keyringToken)
	}
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring when non-empty.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg, token)
}

// SaveTo is Save with an explicit file path.
func SaveTo(path string, cfg AppConfig, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// DeleteToken removes the export token from the keyring.
func DeleteToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func normalize(cfg *AppConfig) {
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
	cfg.Export.ServiceURL = strings.TrimSpace(cfg.Export.ServiceURL)
	cfg.Export.Preset = strings.ToLower(strings.TrimSpace(cfg.Export.Preset))
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvExportURL)); v != "" {
		cfg.Export.ServiceURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportOutDir)); v != "" {
		cfg.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCharactersFile)); v != "" {
		cfg.Data.CharactersFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJinxesFile)); v != "" {
		cfg.Data.JinxesFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDir)); v != "" {
		cfg.Data.HistoryDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvColor)); v != "" {
		cfg.Options.Color = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"export.service_url":       EnvExportURL,
	"export.timeout_ms":        EnvExportTimeout,
	"export.out_dir":           EnvExportOutDir,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"data.characters_file":     EnvCharactersFile,
	"data.jinxes_file":         EnvJinxesFile,
	"data.history_dir":         EnvHistoryDir,
	"options.color":            EnvColor,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by
// environment variables.
func EnvOverrideFor(key string) (string, bool) {
	if name, ok := envKeys[key]; ok && os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// Timeout returns the export service timeout.
func (e ExportConfig) Timeout() time.Duration {
	if e.TimeoutMs <= 0 {
		return time.Duration(Defaults().Export.TimeoutMs) * time.Millisecond
	}
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// ResolveHistoryDir returns where the export history lives: data.history_dir,
// else the directory of the loaded config file, else that of ConfigPath.
func (c AppConfig) ResolveHistoryDir() (string, error) {
	if c.Data.HistoryDir != "" {
		return c.Data.HistoryDir, nil
	}
	if c.path != "" {
		return filepath.Dir(c.path), nil
	}
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
