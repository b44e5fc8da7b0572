package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	RabbitMq *RabbitMqconfig
	Redis    *Redisconfig
	Storage  *Storageconfig
	Auth     *Authconfig
	Dispatch *Dispatchconfig
	Srv      *Serviceconfig
}

type RabbitMqconfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	VHost              string `yaml:"vhost"`
	OrdersQueue        string `yaml:"orders_queue"`
	ConfirmationsQueue string `yaml:"confirmations_queue"`
}

// Redisconfig is optional: an empty Addr disables the driver location index.
type Redisconfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	GeoKey   string `yaml:"geo_key"`
}

type Storageconfig struct {
	Dir string `yaml:"dir"`
}

type Authconfig struct {
	AccessSecret string        `yaml:"access_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type Dispatchconfig struct {
	OfferTimeout    time.Duration `yaml:"offer_timeout"`
	FreeWaitMin     int           `yaml:"free_wait_min"`
	DefaultPickupKm float64       `yaml:"default_pickup_km"`
	RescanInterval  time.Duration `yaml:"rescan_interval"`
}

type Serviceconfig struct {
	DispatchServicePort string `yaml:"dispatch_service"`
	LogLevel            string `yaml:"log_level"`
}

func New(log slog.Logger) *Config {
	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Warn("using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			log.Warn("using default key", "key", key, "default-key", def)
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			log.Warn("cannot use atoi, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvFloat := func(key string, def float64) float64 {
		valStr := os.Getenv(key)
		if valStr == "" {
			log.Warn("using default key", "key", key, "default-key", def)
			return def
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			log.Warn("cannot parse float, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvDuration := func(key string, def time.Duration) time.Duration {
		valStr := os.Getenv(key)
		if valStr == "" {
			log.Warn("using default key", "key", key, "default-key", def)
			return def
		}
		val, err := time.ParseDuration(valStr)
		if err != nil {
			log.Warn("cannot parse duration, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	cnf := &Config{
		RabbitMq: &RabbitMqconfig{
			Host:               getEnv("RABBITMQ_HOST", "localhost"),
			Port:               getEnvInt("RABBITMQ_PORT", 5672),
			User:               getEnv("RABBITMQ_USER", "guest"),
			Password:           getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:              getEnv("RABBITMQ_VHOST", ""),
			OrdersQueue:        getEnv("QUEUE_ORDERS", "orders"),
			ConfirmationsQueue: getEnv("QUEUE_CONFIRMATIONS", "confirmations"),
		},
		Redis: &Redisconfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			GeoKey:   getEnv("REDIS_GEO_KEY", "drivers_geo"),
		},
		Storage: &Storageconfig{
			Dir: getEnv("STORAGE_DIR", "data"),
		},
		Auth: &Authconfig{
			AccessSecret: getEnv("AUTH_ACCESS_SECRET", "flytaxi-dev-secret"),
			TokenTTL:     getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Dispatch: &Dispatchconfig{
			OfferTimeout:    getEnvDuration("OFFER_TIMEOUT", 120*time.Second),
			FreeWaitMin:     getEnvInt("FREE_WAIT_MIN", 3),
			DefaultPickupKm: getEnvFloat("DEFAULT_PICKUP_KM", 5.0),
			RescanInterval:  getEnvDuration("RESCAN_INTERVAL", 30*time.Second),
		},
		Srv: &Serviceconfig{
			DispatchServicePort: getEnv("DISPATCH_SERVICE_PORT", "3000"),
			LogLevel:            getEnv("LOG_LEVEL", "INFO"),
		},
	}

	return cnf
}
