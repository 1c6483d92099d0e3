package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	StaticPath  string        `mapstructure:"static_path"`
	DBPath      string        `mapstructure:"db_path"`
	Secret      string        `mapstructure:"secret"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("db_path", "./data/minidiscord.db")
	v.SetDefault("secret", "change-me-in-production")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_timeout", "5s")
	v.SetDefault("ping_period", "54s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
