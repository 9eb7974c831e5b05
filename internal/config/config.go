package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingToken = errors.New("missing Discord token (DISCORD_TOKEN env variable or \"token\" in config.json)")

type Config struct {
	Token          string `mapstructure:"token"`
	ServerIP       string `mapstructure:"server_ip"`
	ChannelID      string `mapstructure:"channel_id"`
	UpdateInterval int    `mapstructure:"-"`
	BotPrefix      string `mapstructure:"bot_prefix"`
	ServerLabel    string `mapstructure:"server_label"`
	MasterListURL  string `mapstructure:"master_list_url"`

	HTTPAddr       string `mapstructure:"http_addr"`
	AllowedOrigins string `mapstructure:"allowed_origins"`

	Environment string `mapstructure:"environment"`
	LogPath     string `mapstructure:"log_path"`
	LogLevel    string `mapstructure:"log_level"`
	Timezone    string `mapstructure:"timezone"`
}

// config key -> environment variable
var envKeys = map[string]string{
	"token":           "DISCORD_TOKEN",
	"server_ip":       "SERVER_IP",
	"channel_id":      "CHANNEL_ID",
	"update_interval": "UPDATE_INTERVAL",
	"bot_prefix":      "BOT_PREFIX",
	"server_label":    "SERVER_LABEL",
	"master_list_url": "MASTER_LIST_URL",
	"http_addr":       "HTTP_ADDR",
	"allowed_origins": "ALLOWED_ORIGINS",
	"environment":     "ENVIRONMENT",
	"log_path":        "LOG_PATH",
	"log_level":       "LOG_LEVEL",
	"timezone":        "TIMEZONE",
}

/*
Load reads the configuration from dir. A .env file is loaded into the
process environment first, then config.json is read if present.
Environment variables always win over the file.
*/
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("server_ip", "127.0.0.1:22005")
	v.SetDefault("update_interval", 60)
	v.SetDefault("bot_prefix", "!")
	v.SetDefault("server_label", "GTA Grand DE 1")
	v.SetDefault("master_list_url", "https://cdn.rage.mp/master/")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "UTC")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config.json: %w", err)
		}
		slog.Debug("config.json not found, relying on defaults and ENV variables")
	}

	// snowflakes do not survive a round trip through float64
	if _, ok := v.Get("channel_id").(float64); ok {
		return nil, errors.New("channel_id in config.json must be a string")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	cfg.UpdateInterval = parseInterval(v.GetString("update_interval"))
	if cfg.BotPrefix == "" {
		cfg.BotPrefix = "!"
	}

	return &cfg, nil
}

// parseInterval falls back to 60 seconds on anything but a positive integer.
func parseInterval(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		slog.Warn("Invalid update interval, using default", "update_interval", raw)
		return 60
	}
	return n
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

// Origins splits ALLOWED_ORIGINS, dropping empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
