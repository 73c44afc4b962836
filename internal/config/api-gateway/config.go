package api_gateway_config

import (
	"time"

	"github.com/NordCoder/Hookery/internal/obs"
	kafkax "github.com/NordCoder/Hookery/internal/repository/kafka"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Auth configures caller resolution. With Enable false the X-User-Id header
// is trusted as is.
type Auth struct {
	Enable    bool   `mapstructure:"enable"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Events is the topic web hook lifecycle events are published to.
type Events struct {
	kafkax.ProducerConfig `mapstructure:",squash"`
	KeyField              string `mapstructure:"key_field"`
	Partitions            int    `mapstructure:"partitions"`
	ReplicationFactor     int    `mapstructure:"replication_factor"`
}

func (e Events) AsTopicSpec() kafkax.TopicSpec {
	return kafkax.TopicSpec{
		Name:              e.Topic,
		NumPartitions:     e.Partitions,
		ReplicationFactor: e.ReplicationFactor,
	}
}

type Config struct {
	App    App       `mapstructure:"app"`
	Server Server    `mapstructure:"server"`
	DB     pg.Config `mapstructure:"db"`
	OTEL   OTEL      `mapstructure:"otel"`
	Log    Log       `mapstructure:"log"`
	Auth   Auth      `mapstructure:"auth"`
	Events Events    `mapstructure:"events"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

func (c *Config) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.OTEL.ServiceName,
		Version:     c.App.Version,
		Env:         c.App.Env,
		SampleRatio: c.OTEL.SampleRatio,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
