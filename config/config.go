package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	DateBox  DateBoxConfig  `yaml:"datebox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                          string `yaml:"host"`
	Port                          int    `yaml:"port"`
	CalculationPerformedTopicName string `yaml:"calculation_performed_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DateBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	SnapshotTTLSeconds        int `yaml:"snapshot_ttl_seconds"`
	RateLimitPerUserPerMinute int `yaml:"rate_limit_per_user_per_minute"`

	ProfileServiceBaseURL string `yaml:"profile_service_base_url"`
	ProfileServiceAPIKey  string `yaml:"profile_service_api_key"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	// Worker aggregation (optional). Defaults: 60s interval, 7 days back,
	// 3 days aggregated concurrently.
	WorkerAggregateIntervalSeconds int `yaml:"worker_aggregate_interval_seconds"`
	WorkerLookbackDays             int `yaml:"worker_lookback_days"`
	WorkerConcurrency              int `yaml:"worker_concurrency"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
