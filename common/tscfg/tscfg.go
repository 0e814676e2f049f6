/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package tscfg loads the Tree Signal configuration document.  A missing
// document is not an error; a malformed one is reported to the caller,
// who is expected to log it and run on the defaults.
package tscfg

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// EnvConfigPath names the environment variable that overrides config
// file discovery.
const EnvConfigPath = "TREE_SIGNAL_CONFIG"

// DecayConfig holds the fade timing defaults applied to the tree at
// startup.
type DecayConfig struct {
	HoldSeconds  float64 `toml:"hold_seconds"`
	DecaySeconds float64 `toml:"decay_seconds"`
}

// Hold returns the hold plateau as a duration.
func (d *DecayConfig) Hold() time.Duration {
	return time.Duration(d.HoldSeconds * float64(time.Second))
}

// Decay returns the fade tail as a duration.
func (d *DecayConfig) Decay() time.Duration {
	return time.Duration(d.DecaySeconds * float64(time.Second))
}

// HistoryConfig bounds per-channel message history.
type HistoryConfig struct {
	MaxMessages int `toml:"max_messages"`
}

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CleanupConfig controls the background cleanup task.
type CleanupConfig struct {
	IntervalSeconds float64 `toml:"interval_seconds"`
}

// Interval returns the cleanup period as a duration.
func (c *CleanupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// ClientColors is the color policy advertised to the dashboard and used
// to build the initial color service.
type ClientColors struct {
	AssignmentMode  string   `toml:"assignment_mode" json:"assignment_mode"`
	InheritanceMode string   `toml:"inheritance_mode" json:"inheritance_mode"`
	Palette         []string `toml:"palette" json:"palette,omitempty"`
}

// ClientUI carries rendering hints that are advisory to the dashboard.
type ClientUI struct {
	MinPanelSize    float64 `toml:"min_panel_size" json:"min_panel_size"`
	PanelGap        float64 `toml:"panel_gap" json:"panel_gap"`
	FontFamily      string  `toml:"font_family" json:"font_family"`
	ShowTimestamps  bool    `toml:"show_timestamps" json:"show_timestamps"`
	TimestampFormat string  `toml:"timestamp_format" json:"timestamp_format"`
}

// ClientConfig is the only part of the document surfaced to browsers.
type ClientConfig struct {
	APIBaseURL        string       `toml:"api_base_url" json:"api_base_url"`
	RefreshIntervalMS int          `toml:"refresh_interval_ms" json:"refresh_interval_ms"`
	ShowDebug         bool         `toml:"show_debug" json:"show_debug"`
	Version           string       `toml:"version" json:"version"`
	Colors            ClientColors `toml:"colors" json:"colors"`
	UI                ClientUI     `toml:"ui" json:"ui"`
}

// Config is the root of the Tree Signal configuration document.
type Config struct {
	Decay   DecayConfig   `toml:"decay"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
	Cleanup CleanupConfig `toml:"cleanup"`
	Client  ClientConfig  `toml:"client"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Decay: DecayConfig{
			HoldSeconds:  30.0,
			DecaySeconds: 10.0,
		},
		History: HistoryConfig{
			MaxMessages: 100,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8013,
		},
		Cleanup: CleanupConfig{
			IntervalSeconds: 60.0,
		},
		Client: ClientConfig{
			RefreshIntervalMS: 5000,
			Version:           "0.2.0",
			Colors: ClientColors{
				AssignmentMode:  "increment",
				InheritanceMode: "unique",
			},
			UI: ClientUI{
				MinPanelSize:    5.0,
				PanelGap:        0.6,
				FontFamily:      "Fira Code, monospace",
				ShowTimestamps:  true,
				TimestampFormat: "locale",
			},
		},
	}
}

// findFile locates the configuration document:
//
//	1. $TREE_SIGNAL_CONFIG
//	2. /app/data/config.toml (container mount)
//	3. ./config.toml
//	4. ~/.config/tree-signal/config.toml
func findFile() string {
	candidates := make([]string, 0, 4)
	if env := os.Getenv(EnvConfigPath); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates,
		"/app/data/config.toml", "./config.toml")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "tree-signal", "config.toml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnv folds the startup environment overrides into the config.
func applyEnv(cfg *Config) {
	if mode := os.Getenv("COLOR_ASSIGNMENT_MODE"); mode != "" {
		cfg.Client.Colors.AssignmentMode = mode
	}
	if mode := os.Getenv("COLOR_INHERITANCE_MODE"); mode != "" {
		cfg.Client.Colors.InheritanceMode = mode
	}
}

// Load returns the effective configuration and the path of the document
// it came from ("" when running on defaults).  A non-nil error means a
// document was found but could not be used; the returned config is still
// valid: the defaults with the environment overrides applied.
func Load() (*Config, string, error) {
	cfg := Defaults()

	path := findFile()
	if path == "" {
		applyEnv(cfg)
		return cfg, "", nil
	}

	data, err := ioutil.ReadFile(path)
	if err == nil {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		cfg = Defaults()
		applyEnv(cfg)
		return cfg, "", errors.Wrapf(err, "loading %s", path)
	}

	applyEnv(cfg)
	return cfg, path, nil
}
