package config

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Nats      NatsConfig
	Kafka     KafkaConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Upload    UploadConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	GatewayID  string // node identity; presence + relay routing key
	HTTPAddr   string
	HealthAddr string // gRPC health side port
	NodeID     int64  // snowflake node part
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NatsConfig struct {
	Enabled bool
	Servers []string
	Name    string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string // persisted-message events
}

type WebSocketConfig struct {
	SendQueueSize  int // per-connection outbound buffer
	MaxPayloadSize int // bytes, sends above this are rejected
	AuthTimeout    int // seconds to present credentials before kick
	PingInterval   int // seconds
	PongTimeout    int // seconds
	WriteTimeout   int // seconds
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

type UploadConfig struct {
	Dir     string
	BaseURL string
	MaxSize int64 // bytes
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
	Path    string
}

var (
	instance *AppConfig
	once     sync.Once
)

// Initialize reads config.yaml (./configs or .) with SYNCCHAT_* env
// overrides. Safe to call more than once; only the first call loads.
func Initialize() error {
	var initErr error
	once.Do(func() {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")

		viper.AutomaticEnv()
		viper.SetEnvPrefix("SYNCCHAT")

		setDefaults()

		if err := viper.ReadInConfig(); err != nil {
			// config file is optional; defaults + env carry a dev setup
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				initErr = errors.Wrap(err, "config file")
				return
			}
		}

		cfg := &AppConfig{}
		if err := viper.Unmarshal(cfg); err != nil {
			initErr = errors.Wrap(err, "config unmarshal")
			return
		}
		if err := cfg.Validate(); err != nil {
			initErr = errors.Wrap(err, "config validation")
			return
		}
		instance = cfg
	})
	return initErr
}

func Get() *AppConfig {
	return instance
}
