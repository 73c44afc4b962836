package tools_config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/NordCoder/Hookery/internal/obs"
	kafkax "github.com/NordCoder/Hookery/internal/repository/kafka"
)

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (l Log) AsLoggerConfig(app string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, App: app}
}

type Migrator struct {
	DSN     string        `mapstructure:"dsn"`
	Table   string        `mapstructure:"table"`
	Timeout time.Duration `mapstructure:"timeout"`
	Log     Log           `mapstructure:"log"`
}

type KafkaInit struct {
	Brokers           []string      `mapstructure:"brokers"`
	Topics            []string      `mapstructure:"topics"`
	Partitions        int           `mapstructure:"partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Log               Log           `mapstructure:"log"`
}

func (k KafkaInit) TopicSpecs() []kafkax.TopicSpec {
	out := make([]kafkax.TopicSpec, 0, len(k.Topics))
	for _, t := range k.Topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, kafkax.TopicSpec{
			Name:              t,
			NumPartitions:     k.Partitions,
			ReplicationFactor: k.ReplicationFactor,
		})
	}
	return out
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadMigrator reads the migrator settings from MIGRATOR_* variables, e.g.
// MIGRATOR_DSN.
func LoadMigrator() (*Migrator, error) {
	v := newViper("migrator")
	v.SetDefault("dsn", "")
	v.SetDefault("table", "goose_db_version")
	v.SetDefault("timeout", "1m")

	var cfg Migrator
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, ErrConfig("MIGRATOR_DSN is empty")
	}
	return &cfg, nil
}

// LoadKafkaInit reads the topic bootstrap settings from KAFKA_INIT_* variables,
// e.g. KAFKA_INIT_BROKERS=kafka:9092 KAFKA_INIT_TOPICS=a,b.
func LoadKafkaInit() (*KafkaInit, error) {
	v := newViper("kafka_init")
	v.SetDefault("brokers", []string{"kafka:9092"})
	v.SetDefault("topics", []string{"hookery.web_hook.events"})
	v.SetDefault("partitions", 3)
	v.SetDefault("replication_factor", 1)
	v.SetDefault("timeout", "60s")

	var cfg KafkaInit
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrConfig("KAFKA_INIT_BROKERS is empty")
	}
	if len(cfg.TopicSpecs()) == 0 {
		return nil, ErrConfig("KAFKA_INIT_TOPICS is empty")
	}
	return &cfg, nil
}
