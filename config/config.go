// Package config loads the storefront configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

const (
	KVDriverLevelDB = "leveldb"
	KVDriverRedis   = "redis"
	KVDriverMemory  = "memory"
)

type httpServer struct {
	Addr              string        `mapstructure:"addr"`
	HandlerTimeout    time.Duration `mapstructure:"handler_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type kv struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	RedisURL  string `mapstructure:"redis_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
	CartKey   string `mapstructure:"cart_key"`
}

type cart struct {
	MaxQuantity int `mapstructure:"max_quantity"`
}

type catalog struct {
	Language string `mapstructure:"language"`
}

type auth struct {
	AdminEmail string        `mapstructure:"admin_email"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type notifications struct {
	Capacity int `mapstructure:"capacity"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t brokerTLS) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type topics struct {
	ProductEvents string `mapstructure:"product_events"`
}

type consumers struct {
	CatalogRefreshGroup string `mapstructure:"catalog_refresh_group"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	User               string    `mapstructure:"user"`
	Pass               string    `mapstructure:"pass"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

// Enabled reports whether the product change feed is configured.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel        slog.Level    `mapstructure:"log_level"`
	HTTP            httpServer    `mapstructure:"http"`
	SQLDB           string        `mapstructure:"sql_db"`
	SQLPingAttempts int           `mapstructure:"sql_ping_attempts"`
	KV              kv            `mapstructure:"kv"`
	Cart            cart          `mapstructure:"cart"`
	Catalog         catalog       `mapstructure:"catalog"`
	Auth            auth          `mapstructure:"auth"`
	Notifications   notifications `mapstructure:"notifications"`
	Broker          broker        `mapstructure:"broker"`
}

// Load reads the file given by STOREFRONT_CONFIG_FILE or --config and
// exits the process on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.handler_timeout", 5*time.Second)
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.idle_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("sql_ping_attempts", 5)
	v.SetDefault("kv.driver", KVDriverLevelDB)
	v.SetDefault("kv.path", "./data")
	v.SetDefault("kv.key_prefix", "storefront:")
	v.SetDefault("kv.cart_key", "cartState")
	v.SetDefault("cart.max_quantity", 99)
	v.SetDefault("catalog.language", "en")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("notifications.capacity", 32)
	v.SetDefault("broker.topics.product_events", "product-events")
	v.SetDefault("broker.consumers.catalog_refresh_group", "storefront-catalog-refresh")
}

func (c Config) validate() error {
	var errs []error

	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret: required"))
	}

	switch c.KV.Driver {
	case KVDriverLevelDB, KVDriverMemory:
	case KVDriverRedis:
		if c.KV.RedisURL == "" {
			errs = append(errs, errors.New("kv.redis_url: required by the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("kv.driver: unknown driver %q", c.KV.Driver))
	}

	if c.Broker.Enabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required with seed_brokers"))
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	SQLDB=%q

	HTTP:
	Addr=%q
	HandlerTimeout=%s
	ShutdownTimeout=%s

	KV:
	Driver=%q
	Path=%q
	RedisURL=%q
	CartKey=%q

	Cart:
	MaxQuantity=%d

	Catalog:
	Language=%q

	Auth:
	AdminEmail=%q
	JWTSecret=%q
	TokenTTL=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	User=%q
	Pass=%q
	Topics:
		ProductEvents=%q
	Consumers:
		CatalogRefreshGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		mask(c.SQLDB),
		c.HTTP.Addr,
		c.HTTP.HandlerTimeout,
		c.HTTP.ShutdownTimeout,
		c.KV.Driver,
		c.KV.Path,
		mask(c.KV.RedisURL),
		c.KV.CartKey,
		c.Cart.MaxQuantity,
		c.Catalog.Language,
		c.Auth.AdminEmail,
		mask(c.Auth.JWTSecret),
		c.Auth.TokenTTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.User,
		mask(c.Broker.Pass),
		c.Broker.Topics.ProductEvents,
		c.Broker.Consumers.CatalogRefreshGroup,
	)
}
