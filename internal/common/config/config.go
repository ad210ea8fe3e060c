package config

import "fmt"

type Config struct {
	App           AppConfig                `mapstructure:"app"`
	Server        ServerConfig             `mapstructure:"server"`
	Channels      map[string]ChannelConfig `mapstructure:"channels"`
	Providers     ProvidersConfig          `mapstructure:"providers"`
	Registry      RegistryConfig           `mapstructure:"registry"`
	Database      DatabaseConfig           `mapstructure:"database"`
	Cache         CacheConfig              `mapstructure:"cache"`
	Logging       LoggingConfig            `mapstructure:"logging"`
	Notifications NotificationConfig       `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// ChannelConfig carries the per-channel knobs, keyed by channel name
// (text, image, video).
type ChannelConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

type ProvidersConfig struct {
	HuggingFace  HuggingFaceConfig  `mapstructure:"huggingface"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Replicate    ReplicateConfig    `mapstructure:"replicate"`
	Pollinations PollinationsConfig `mapstructure:"pollinations"`
}

type HuggingFaceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

type GeminiConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type ReplicateConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// Pollinations is anonymous; only the endpoints are configurable.
type PollinationsConfig struct {
	ImageBaseURL string `mapstructure:"image_base_url"`
	TextBaseURL  string `mapstructure:"text_base_url"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // seconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	Topic struct {
		Enabled bool   `mapstructure:"enabled"`
		ARN     string `mapstructure:"arn"`
	} `mapstructure:"topic"`
}
