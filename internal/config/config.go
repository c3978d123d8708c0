/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"gosceneeditor/internal/editor"
	"gosceneeditor/internal/handle"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/solver"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

// EditorConfig tunes handles, snapping and keyboard nudges. Every field
// can be overridden by GSE_EDITOR_<NAME>, e.g. GSE_EDITOR_SNAP_TOLERANCE.
type EditorConfig struct {
	SnapTolerance float64  `yaml:"snap_tolerance" envconfig:"SNAP_TOLERANCE"`
	SnapEnabled   bool     `yaml:"snap_enabled" envconfig:"SNAP_ENABLED"`
	GridPitch     float64  `yaml:"grid_pitch" envconfig:"GRID_PITCH"`
	HandleSize    float64  `yaml:"handle_size" envconfig:"HANDLE_SIZE"`
	CenterRadius  float64  `yaml:"center_radius" envconfig:"CENTER_RADIUS"`
	TackThreshold float64  `yaml:"tack_threshold" envconfig:"TACK_THRESHOLD"`
	KeyStep       float64  `yaml:"key_step" envconfig:"KEY_STEP"`
	FastKeyStep   float64  `yaml:"fast_key_step" envconfig:"FAST_KEY_STEP"`
	MoveThreshold float64  `yaml:"move_threshold" envconfig:"MOVE_THRESHOLD"`
	SyncOps       []string `yaml:"sync_ops" envconfig:"SYNC_OPS"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Options converts the section for log.Init.
func (c LoggingConfig) Options() applog.Options {
	return applog.Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}

// TraceConfig selects where gesture traces are stored. DSN is a SQLite file
// path or a postgres:// URL; an empty DSN means traces.db next to the config file.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
	Trace         TraceConfig   `yaml:"trace"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	m := handle.DefaultMetrics
	syncOps := make([]string, len(handle.DefaultSyncOps))
	for i, op := range handle.DefaultSyncOps {
		syncOps[i] = string(op)
	}
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Editor: EditorConfig{
			SnapTolerance: 4,
			SnapEnabled:   true,
			HandleSize:    m.HandleSize,
			CenterRadius:  m.CenterRadius,
			TackThreshold: m.TackThreshold,
			KeyStep:       m.KeyStep,
			FastKeyStep:   m.FastKeyStep,
			MoveThreshold: m.MoveThreshold,
			SyncOps:       syncOps,
		},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Trace:   TraceConfig{Enabled: false},
	}
}

// Env var names used as overrides.
const (
	EnvTelemetryOptIn = "GSE_TELEMETRY_OPT_IN"
	EnvTraceEnabled   = "GSE_TRACE_ENABLED"
	EnvTraceDSN       = "GSE_TRACE_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSE_LOG_LEVEL"
	EnvLogFormat = "GSE_LOG_FORMAT"
	EnvLogSource = "GSE_LOG_SOURCE"
	EnvLogFile   = "GSE_LOG_FILE"

	// EditorEnvPrefix is the envconfig prefix of EditorConfig.
	EditorEnvPrefix = "GSE_EDITOR"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoSceneEditor")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoSceneEditor")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gosceneeditor")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the trace database password from the keyring (returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		// keys missing from the file keep their defaults
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, "", err
	}
	pw, _ := tokenStore.Get(keyringService, keyringTracePassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the trace password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
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
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringTracePassword, password); err != nil {
			return fmt.Errorf("store trace password: %w", err)
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// editor
	e, se := &dst.Editor, src.Editor
	for _, f := range []struct {
		dst *float64
		v   float64
	}{
		{&e.SnapTolerance, se.SnapTolerance},
		{&e.GridPitch, se.GridPitch},
		{&e.HandleSize, se.HandleSize},
		{&e.CenterRadius, se.CenterRadius},
		{&e.TackThreshold, se.TackThreshold},
		{&e.KeyStep, se.KeyStep},
		{&e.FastKeyStep, se.FastKeyStep},
		{&e.MoveThreshold, se.MoveThreshold},
	} {
		if f.v > 0 {
			*f.dst = f.v
		}
	}
	e.SnapEnabled = se.SnapEnabled
	if se.SyncOps != nil {
		e.SyncOps = se.SyncOps
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// trace
	dst.Trace.Enabled = src.Trace.Enabled
	if strings.TrimSpace(src.Trace.DSN) != "" {
		dst.Trace.DSN = strings.TrimSpace(src.Trace.DSN)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) error {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTraceEnabled)); v != "" {
		cfg.Trace.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTraceDSN)); v != "" {
		cfg.Trace.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if err := envconfig.Process(EditorEnvPrefix, &cfg.Editor); err != nil {
		return fmt.Errorf("editor env: %w", err)
	}
	return nil
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "general.telemetry_opt_in":
		name = EnvTelemetryOptIn
	case "trace.enabled":
		name = EnvTraceEnabled
	case "trace.dsn":
		name = EnvTraceDSN
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.source":
		name = EnvLogSource
	case "logging.file":
		name = EnvLogFile
	default:
		field, ok := strings.CutPrefix(key, "editor.")
		if !ok {
			return "", false
		}
		name = EditorEnvPrefix + "_" + strings.ToUpper(field)
	}
	if os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// Metrics converts the handle geometry settings.
func (e EditorConfig) Metrics() handle.Metrics {
	m := handle.DefaultMetrics
	m.HandleSize = e.HandleSize
	m.CenterRadius = e.CenterRadius
	m.TackThreshold = e.TackThreshold
	m.KeyStep = e.KeyStep
	m.FastKeyStep = e.FastKeyStep
	m.MoveThreshold = e.MoveThreshold
	return m
}

// Options builds editor options from the settings. Unknown sync op names
// are reported rather than skipped.
func (e EditorConfig) Options() (editor.Options, error) {
	opts := editor.Options{
		Metrics:       e.Metrics(),
		SnapTolerance: e.SnapTolerance,
		SnapDisabled:  !e.SnapEnabled,
		GridPitch:     e.GridPitch,
	}
	if e.SyncOps != nil {
		opts.SyncOps = make([]solver.Op, 0, len(e.SyncOps))
		for _, name := range e.SyncOps {
			op, ok := solver.ParseOp(strings.TrimSpace(name))
			if !ok {
				return editor.Options{}, fmt.Errorf("unknown sync op %q", name)
			}
			opts.SyncOps = append(opts.SyncOps, op)
		}
	}
	return opts, nil
}

// TracePath is the default local trace database.
func TracePath() (string, error) {
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "traces.db"), nil
}

// ResolveDSN returns the trace DSN with defaults applied. A keychain
// password is filled into postgres URLs that carry a user but no password.
func (t TraceConfig) ResolveDSN(password string) (string, error) {
	dsn := strings.TrimSpace(t.DSN)
	if dsn == "" {
		return TracePath()
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse trace dsn: %w", err)
	}
	if password != "" && u.User != nil {
		if _, set := u.User.Password(); !set {
			u.User = url.UserPassword(u.User.Username(), password)
		}
	}
	return u.String(), nil
}
