package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // analysis.timezone must resolve in slim containers

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Background BackgroundConfig `mapstructure:"background"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release or test
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // development or production
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	MediaURLExpiry  time.Duration `mapstructure:"media_url_expiry"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AdminConfig seeds the first admin account at startup when both fields
// are set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// KafkaConfig configures course event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	CourseTopic  string        `mapstructure:"course_topic"`
	ClientID     string        `mapstructure:"client_id"`
	RequiredAcks string        `mapstructure:"required_acks"` // all, one or none
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // course events are written one at a time
}

// RedisConfig configures the catalog cache. An empty address disables it.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type AnalysisConfig struct {
	PreferenceLookbackDays int    `mapstructure:"preference_lookback_days"`
	IssueLookbackDays      int    `mapstructure:"issue_lookback_days"`
	Timezone               string `mapstructure:"timezone"`
}

// Location resolves Timezone. LoadConfig has already validated it.
func (a AnalysisConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type BackgroundConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// LoadConfig reads config.yaml from path, overlays environment variables
// (server.address -> SERVER_ADDRESS) and validates the result.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.mode", "development")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "rehab_course")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.media_url_expiry", "15m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.course_topic", "course.generated")
	v.SetDefault("kafka.client_id", "rehab-course")
	v.SetDefault("kafka.required_acks", "all")
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.batch_timeout", "50ms")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalog_ttl", "10m")
	v.SetDefault("analysis.preference_lookback_days", 60)
	v.SetDefault("analysis.issue_lookback_days", 30)
	v.SetDefault("analysis.timezone", "Asia/Seoul")
	v.SetDefault("background.workers", 4)
	v.SetDefault("background.queue_size", 256)

	err = v.ReadInConfig()
	// A missing file is fine; defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Analysis.PreferenceLookbackDays <= 0 || c.Analysis.IssueLookbackDays <= 0 {
		return fmt.Errorf("config: analysis lookback days must be positive")
	}
	if _, err := time.LoadLocation(c.Analysis.Timezone); err != nil {
		return fmt.Errorf("config: analysis.timezone: %w", err)
	}
	if c.Background.Workers <= 0 || c.Background.QueueSize <= 0 {
		return fmt.Errorf("config: background workers and queue_size must be positive")
	}
	switch c.Kafka.RequiredAcks {
	case "all", "one", "none":
	default:
		return fmt.Errorf("config: kafka.required_acks must be all, one or none, got %q", c.Kafka.RequiredAcks)
	}
	if c.S3.MediaURLExpiry <= 0 {
		return fmt.Errorf("config: s3.media_url_expiry must be positive")
	}
	return nil
}
