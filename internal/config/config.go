package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token   string `yaml:"token"`
	Workers int    `yaml:"workers"` // polling workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	StoreKey string `yaml:"store_key"` // single key holding the whole snapshot
	OnFlush  bool   `yaml:"on_flush"`  // defer writes until an explicit flush
}

type CommerceConfig struct {
	BaseURL        string `yaml:"base_url"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	Currency       string `yaml:"currency"`
	RestaurantFlow string `yaml:"restaurant_flow"` // flow slug holding fulfillment points
	AddressFlow    string `yaml:"address_flow"`    // flow slug recording customer addresses
}

type GeocoderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type PaymentConfig struct {
	ProviderToken string `yaml:"provider_token"`
	Currency      string `yaml:"currency"`
}

type MenuConfig struct {
	PageSize        int           `yaml:"page_size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Redis    RedisConfig    `yaml:"redis"`
	Commerce CommerceConfig `yaml:"commerce"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Payment  PaymentConfig  `yaml:"payment"`
	Menu     MenuConfig     `yaml:"menu"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, expanding ${VAR} references from
// the environment so secrets never live in the file itself.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Redis.StoreKey == "" {
		cfg.Redis.StoreKey = "tg"
	}
	if cfg.Commerce.BaseURL == "" {
		cfg.Commerce.BaseURL = "https://api.moltin.com"
	}
	if cfg.Commerce.Currency == "" {
		cfg.Commerce.Currency = "RUB"
	}
	if cfg.Commerce.RestaurantFlow == "" {
		cfg.Commerce.RestaurantFlow = "pizzeria"
	}
	if cfg.Commerce.AddressFlow == "" {
		cfg.Commerce.AddressFlow = "customer-address"
	}
	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://geocode-maps.yandex.ru"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "RUB"
	}
	if cfg.Menu.PageSize <= 0 {
		cfg.Menu.PageSize = 8
	}
	if cfg.Menu.RefreshInterval <= 0 {
		cfg.Menu.RefreshInterval = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Commerce.ClientID == "" || cfg.Commerce.ClientSecret == "" {
		return nil, errors.New("commerce.client_id and commerce.client_secret are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
