package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver"` // postgres, mysql or sqlite
	URL          string        `mapstructure:"url"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
	WaitInterval time.Duration `mapstructure:"wait_interval"`
	PingTimeout  time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables redis and keeps the in-process cache
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ConsulConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Address          string `mapstructure:"address"`
	AdvertiseAddress string `mapstructure:"advertise_address"`
}

type SuperuserConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	ServiceName string `mapstructure:"service_name"`
	MediaRoot   string `mapstructure:"media_root"`

	JwtSecret  string        `mapstructure:"jwt_secret"`
	JwtTTL     time.Duration `mapstructure:"jwt_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Consul    ConsulConfig    `mapstructure:"consul"`
	Superuser SuperuserConfig `mapstructure:"superuser"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

const defaultJwtSecret = "default-very-insecure-secret-key" // CHANGE THIS IN PRODUCTION

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8000)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "recipe-api")
	v.SetDefault("media_root", "./media")
	v.SetDefault("jwt_secret", defaultJwtSecret)
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "host=localhost user=postgres password=postgres dbname=recipe port=5432 sslmode=disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.wait_interval", time.Second)
	v.SetDefault("database.ping_timeout", 2*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("consul.advertise_address", "")

	v.SetDefault("superuser.email", "")
	v.SetDefault("superuser.password", "")

	v.SetDefault("cache.ttl", 5*time.Minute)
}

// Load reads configuration from defaults, an optional config.yaml, an optional .env file
// and RECIPE_* environment variables, in increasing order of precedence.
func Load(configPaths ...string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "./config"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("RECIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

// InsecureJwtSecret reports whether the built-in development secret is in use.
func (c Config) InsecureJwtSecret() bool {
	return c.JwtSecret == defaultJwtSecret
}
