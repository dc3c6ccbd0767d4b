package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	GearCheck GearCheckConfig `yaml:"gearcheck"`
}

// KafkaConfig: пустой host выключает публикацию событий.
type KafkaConfig struct {
	Host                 string `yaml:"host"`
	Port                 int    `yaml:"port"`
	GearCheckedTopicName string `yaml:"gear_checked_topic_name"`
}

// RedisConfig: при пустом host кэш и тема живут в памяти процесса.
type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type GearCheckConfig struct {
	HTTPAddr               string `yaml:"http_addr"`
	EnrichConcurrency      int    `yaml:"enrich_concurrency"`
	SidebarCacheTTLSeconds int    `yaml:"sidebar_cache_ttl_seconds"`
	SeedPath               string `yaml:"seed_path"`
	DefaultTheme           string `yaml:"default_theme"`

	AIMode               string `yaml:"ai_mode"` // "genai" | "proxy" | "fake"
	AIAPIKey             string `yaml:"ai_api_key"`
	AIModel              string `yaml:"ai_model"`
	AIBaseURL            string `yaml:"ai_base_url"`
	AIRateLimitPerMinute int    `yaml:"ai_rate_limit_per_minute"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
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

	// ключ из окружения перекрывает файл, чтобы не хранить его в репозитории
	if key := os.Getenv("GEARCHECK_AI_API_KEY"); key != "" {
		config.GearCheck.AIAPIKey = key
	}

	return &config, nil
}
