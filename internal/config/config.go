package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

type Config struct {
	HTTP       HTTP
	GRPC       GRPC
	Mongo      Mongo
	Redis      Redis
	Postgres   Postgres
	Catalog    Catalog
	Kafka      Kafka
	Settlement Settlement
	Log        Log
}

type HTTP struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type GRPC struct {
	Port string
}

type Mongo struct {
	URI                    string
	DBName                 string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Postgres struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Catalog struct {
	DBPath            string
	MigrationsDirPath string
	BreakerTimeout    time.Duration
	BreakerFailures   uint32
}

type Kafka struct {
	// Brokers is read from a comma-separated list.
	Brokers      []string
	Topic        string
	DrainGroupID string
}

type Settlement struct {
	ShippingFee      money.Cents
	FreeShippingOver money.Cents
	// DrainGrace is how long an order may stay cart_drain_pending before the
	// recovery tick retries the drain.
	DrainGrace time.Duration
}

type Log struct {
	Level       string
	Development bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("grpc.port", "50060")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.db_name", "storefront")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.server_selection_timeout", "5s")
	v.SetDefault("mongo.max_pool_size", 100)
	v.SetDefault("mongo.min_pool_size", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "storefront")
	v.SetDefault("postgres.password", "storefront")
	v.SetDefault("postgres.db_name", "storefront")
	v.SetDefault("postgres.migrations_dir", "internal/order/repository/migrations")

	v.SetDefault("catalog.db_path", "catalog.db")
	v.SetDefault("catalog.migrations_dir", "internal/catalog/migrations")
	v.SetDefault("catalog.breaker_timeout", "30s")
	v.SetDefault("catalog.breaker_failures", 5)

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "order-events")
	v.SetDefault("kafka.drain_group_id", "storefront-cart-drain")

	v.SetDefault("settlement.shipping_fee", "0.00")
	v.SetDefault("settlement.free_shipping_over", "0.00")
	v.SetDefault("settlement.drain_grace", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads defaults, then the optional config file, then STOREFRONT_*
// environment variables (STOREFRONT_MONGO_URI overrides mongo.uri).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	shipping, err := money.Parse(v.GetString("settlement.shipping_fee"))
	if err != nil {
		return nil, fmt.Errorf("settlement.shipping_fee: %w", err)
	}
	freeOver, err := money.Parse(v.GetString("settlement.free_shipping_over"))
	if err != nil {
		return nil, fmt.Errorf("settlement.free_shipping_over: %w", err)
	}

	cfg := &Config{
		HTTP: HTTP{
			Port:            v.GetString("http.port"),
			RequestTimeout:  v.GetDuration("http.request_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		GRPC: GRPC{Port: v.GetString("grpc.port")},
		Mongo: Mongo{
			URI:                    v.GetString("mongo.uri"),
			DBName:                 v.GetString("mongo.db_name"),
			ConnectTimeout:         v.GetDuration("mongo.connect_timeout"),
			ServerSelectionTimeout: v.GetDuration("mongo.server_selection_timeout"),
			MaxPoolSize:            v.GetUint64("mongo.max_pool_size"),
			MinPoolSize:            v.GetUint64("mongo.min_pool_size"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Postgres: Postgres{
			Host:              v.GetString("postgres.host"),
			Port:              v.GetInt("postgres.port"),
			User:              v.GetString("postgres.user"),
			Password:          v.GetString("postgres.password"),
			DBName:            v.GetString("postgres.db_name"),
			MigrationsDirPath: v.GetString("postgres.migrations_dir"),
		},
		Catalog: Catalog{
			DBPath:            v.GetString("catalog.db_path"),
			MigrationsDirPath: v.GetString("catalog.migrations_dir"),
			BreakerTimeout:    v.GetDuration("catalog.breaker_timeout"),
			BreakerFailures:   v.GetUint32("catalog.breaker_failures"),
		},
		Kafka: Kafka{
			Brokers:      splitList(v.GetString("kafka.brokers")),
			Topic:        v.GetString("kafka.topic"),
			DrainGroupID: v.GetString("kafka.drain_group_id"),
		},
		Settlement: Settlement{
			ShippingFee:      shipping,
			FreeShippingOver: freeOver,
			DrainGrace:       v.GetDuration("settlement.drain_grace"),
		},
		Log: Log{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
