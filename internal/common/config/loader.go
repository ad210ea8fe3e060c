package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDERS_GEMINI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values with the
// corresponding environment variable.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "content-studio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/providers.json"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}

	if cfg.Channels == nil {
		cfg.Channels = map[string]ChannelConfig{}
	}
	// Free-tier endpoints stall for minutes without these bounds; video is
	// the channel that historically timed out.
	channelDefaults := map[string]int{
		"text":  15000,
		"image": 30000,
		"video": 60000,
	}
	for name, timeout := range channelDefaults {
		ch, ok := cfg.Channels[name]
		if !ok {
			ch = ChannelConfig{Enabled: true}
		}
		if ch.Timeout == 0 {
			ch.Timeout = timeout
		}
		cfg.Channels[name] = ch
	}

	if cfg.Providers.HuggingFace.BaseURL == "" {
		cfg.Providers.HuggingFace.BaseURL = "https://router.huggingface.co"
	}
	if cfg.Providers.Gemini.BaseURL == "" {
		cfg.Providers.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Providers.Replicate.BaseURL == "" {
		cfg.Providers.Replicate.BaseURL = "https://api.replicate.com"
	}
	if cfg.Providers.Pollinations.ImageBaseURL == "" {
		cfg.Providers.Pollinations.ImageBaseURL = "https://image.pollinations.ai"
	}
	if cfg.Providers.Pollinations.TextBaseURL == "" {
		cfg.Providers.Pollinations.TextBaseURL = "https://text.pollinations.ai"
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "generations"
	}
}

// overrideFromEnv covers secrets that must never live in the yaml files.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("HF_TOKEN"); v != "" {
		cfg.Providers.HuggingFace.Token = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("REPLICATE_API_TOKEN"); v != "" {
		cfg.Providers.Replicate.Token = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Postgres.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Database.Redis.Password = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	for name, ch := range cfg.Channels {
		if ch.Timeout < 0 {
			return fmt.Errorf("channels.%s.timeout must be non-negative", name)
		}
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email notifications are enabled")
	}
	if cfg.Notifications.Topic.Enabled && cfg.Notifications.Topic.ARN == "" {
		return fmt.Errorf("notifications.topic.arn is required when topic notifications are enabled")
	}
	return nil
}
