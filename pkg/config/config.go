// Package config loads aalinkd settings from a YAML file and AALINK_*
// environment variables
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZentaChain/aalink/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. AALINK_API_ADDR
const EnvPrefix = "AALINK"

// Config is the daemon configuration
type Config struct {
	Listen   string         `mapstructure:"listen"`
	API      APIConfig      `mapstructure:"api"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Log      logging.Config `mapstructure:"log"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Session  SessionConfig  `mapstructure:"session"`
	HeadUnit HeadUnitConfig `mapstructure:"head_unit"`
}

// APIConfig controls the diagnostics HTTP server
type APIConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	WebSocket bool   `mapstructure:"websocket"` // accept links on /link
}

// JournalConfig controls the sqlite traffic journal
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CryptoConfig controls link encryption
type CryptoConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SessionConfig tunes per-session behaviour
type SessionConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	MaxUnacked   uint32        `mapstructure:"max_unacked"`
}

// HeadUnitConfig is what service discovery reports about this side
type HeadUnitConfig struct {
	Name          string `mapstructure:"name"`
	CarModel      string `mapstructure:"car_model"`
	CarYear       string `mapstructure:"car_year"`
	CarSerial     string `mapstructure:"car_serial"`
	LeftHandDrive bool   `mapstructure:"left_hand_drive"`
	Manufacturer  string `mapstructure:"manufacturer"`
	Model         string `mapstructure:"model"`
	SwBuild       string `mapstructure:"sw_build"`
	SwVersion     string `mapstructure:"sw_version"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Listen: "/ip4/0.0.0.0/tcp/5277",
		API: APIConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8090",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./data/aalink-journal.db",
		},
		Log:    logging.DefaultConfig(),
		Crypto: CryptoConfig{Enabled: true},
		Session: SessionConfig{
			PingInterval: 5 * time.Second,
			MaxUnacked:   1,
		},
		HeadUnit: HeadUnitConfig{
			Name:          "aalink",
			CarModel:      "Universal",
			CarYear:       "2026",
			CarSerial:     "20260101",
			LeftHandDrive: true,
			Manufacturer:  "ZentaChain",
			Model:         "aalinkd",
			SwBuild:       "1",
			SwVersion:     "1.0",
		},
	}
}

// Load reads path (or aalink.yaml from the usual places when path is empty)
// on top of Default. A missing default file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("aalink")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/aalink")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values viper cannot
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is required")
	}
	if c.API.Enabled && c.API.Addr == "" {
		return errors.New("config: api.addr is required when the api is enabled")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("config: journal.path is required when the journal is enabled")
	}
	if c.Session.MaxUnacked == 0 {
		return errors.New("config: session.max_unacked must be positive")
	}
	return nil
}

// setDefaults registers every key so environment overrides apply even
// when the file omits them
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("listen", d.Listen)
	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("api.websocket", d.API.WebSocket)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.no_color", d.Log.NoColor)
	v.SetDefault("crypto.enabled", d.Crypto.Enabled)
	v.SetDefault("session.ping_interval", d.Session.PingInterval)
	v.SetDefault("session.max_unacked", d.Session.MaxUnacked)
	v.SetDefault("head_unit.name", d.HeadUnit.Name)
	v.SetDefault("head_unit.car_model", d.HeadUnit.CarModel)
	v.SetDefault("head_unit.car_year", d.HeadUnit.CarYear)
	v.SetDefault("head_unit.car_serial", d.HeadUnit.CarSerial)
	v.SetDefault("head_unit.left_hand_drive", d.HeadUnit.LeftHandDrive)
	v.SetDefault("head_unit.manufacturer", d.HeadUnit.Manufacturer)
	v.SetDefault("head_unit.model", d.HeadUnit.Model)
	v.SetDefault("head_unit.sw_build", d.HeadUnit.SwBuild)
	v.SetDefault("head_unit.sw_version", d.HeadUnit.SwVersion)
}
