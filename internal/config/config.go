package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GatewayCredentials holds per-provider API credentials. An empty set means
// the gateway is not connected for this deployment, which surfaces to callers
// as ErrGatewayNotConfigured rather than a generic failure.
type GatewayCredentials struct {
	KeyID        string `mapstructure:"key_id"`
	KeySecret    string `mapstructure:"key_secret"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
}

func (c GatewayCredentials) Configured() bool {
	return (c.KeyID != "" && c.KeySecret != "") || (c.ClientID != "" && c.ClientSecret != "")
}

type Config struct {
	Server   ServerConfig                  `mapstructure:"server"`
	Database DatabaseConfig                `mapstructure:"database"`
	Redis    RedisConfig                   `mapstructure:"redis"`
	Gateways map[string]GatewayCredentials `mapstructure:"gateways"`
}

func (c Config) Gateway(provider string) (GatewayCredentials, bool) {
	creds, ok := c.Gateways[strings.ToLower(provider)]
	if !ok || !creds.Configured() {
		return GatewayCredentials{}, false
	}
	return creds, true
}

var reloadCount atomic.Int64

func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:deskhive.db?cache=shared")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetConfigName("deskhive")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/deskhive")

	v.SetEnvPrefix("DESKHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials are usually supplied through the environment, not the file.
	for _, key := range []string{
		"gateways.razorpay.key_id",
		"gateways.razorpay.key_secret",
		"gateways.cashfree.client_id",
		"gateways.cashfree.client_secret",
		"gateways.cashfree.base_url",
		"database.driver",
		"database.dsn",
		"redis.addr",
		"redis.password",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	} else {
		v.OnConfigChange(func(e fsnotify.Event) {
			reloadCount.Add(1)
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Gateways == nil {
		cfg.Gateways = map[string]GatewayCredentials{}
	}
	return cfg, nil
}
