package config

import (
	"gopkg.in/yaml.v3"
	"os"
)

type SMSCConfig struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
	DryRun   bool   `yaml:"dry_run"`
}

// TestModeConfig — тестовый номер для ревью приложения (App Store и т.п.).
// В проде enabled всегда false.
type TestModeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Phone   string `yaml:"phone"`
	Code    string `yaml:"code"`
}

type VerificationConfig struct {
	CodeTTLMinutes int            `yaml:"code_ttl_minutes"`
	CodeLength     int            `yaml:"code_length"`
	TestMode       TestModeConfig `yaml:"test_mode"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	OpsChatID int64  `yaml:"ops_chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	SMSC         SMSCConfig         `yaml:"smsc"`
	Verification VerificationConfig `yaml:"verification"`
	Telegram     TelegramConfig     `yaml:"telegram"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Verification.CodeTTLMinutes <= 0 {
		cfg.Verification.CodeTTLMinutes = 5
	}
	if cfg.Verification.CodeLength <= 0 {
		cfg.Verification.CodeLength = 4
	}
	// дефолты тестового номера применяем только если режим явно включён
	if cfg.Verification.TestMode.Enabled {
		if cfg.Verification.TestMode.Phone == "" {
			cfg.Verification.TestMode.Phone = "79999999999"
		}
		if cfg.Verification.TestMode.Code == "" {
			cfg.Verification.TestMode.Code = "1234"
		}
	}
	if cfg.JWT.Secret == "" {
		panic("jwt.secret is required in config.yaml")
	}
	return &cfg
}
