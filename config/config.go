package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Reminders ReminderConfig  `yaml:"reminders"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
	// MaxUploadMB bounds the size of an uploaded PDF
	MaxUploadMB int `yaml:"max_upload_mb"`
	RateLimit   int `yaml:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects and configures the key-value backend
type StorageConfig struct {
	Driver          string       `yaml:"driver"` // memory, sqlite, minio
	LoadConcurrency int          `yaml:"load_concurrency"`
	SQLite          SQLiteConfig `yaml:"sqlite"`
	Minio           MinioConfig  `yaml:"minio"`
}

type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ExtractorConfig struct {
	Provider       string          `yaml:"provider"` // anthropic, gemini
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	Anthropic      AnthropicConfig `yaml:"anthropic"`
	Gemini         GeminiConfig    `yaml:"gemini"`
}

type AnthropicConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Version   string `yaml:"version"`
	MaxTokens int    `yaml:"max_tokens"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ReminderConfig struct {
	// OutboxDir receives .eml drafts written by the sweep command
	OutboxDir string `yaml:"outbox_dir"`
	// From is the sender of rendered drafts; empty uses the recipient
	From string `yaml:"from"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.LoadConcurrency <= 0 {
		c.Storage.LoadConcurrency = 8
	}
	if c.Storage.SQLite.DSN == "" {
		c.Storage.SQLite.DSN = "agreements.db"
	}
	if c.Storage.Minio.Bucket == "" {
		c.Storage.Minio.Bucket = "agreements"
	}
	if c.Extractor.Provider == "" {
		c.Extractor.Provider = "anthropic"
	}
	if c.Extractor.TimeoutSeconds == 0 {
		c.Extractor.TimeoutSeconds = 60
	}
	if c.Extractor.Anthropic.APIURL == "" {
		c.Extractor.Anthropic.APIURL = "https://api.anthropic.com"
	}
	if c.Extractor.Anthropic.Model == "" {
		c.Extractor.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Extractor.Anthropic.Version == "" {
		c.Extractor.Anthropic.Version = "2023-06-01"
	}
	if c.Extractor.Anthropic.MaxTokens == 0 {
		c.Extractor.Anthropic.MaxTokens = 1000
	}
	if c.Extractor.Gemini.Model == "" {
		c.Extractor.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Reminders.OutboxDir == "" {
		c.Reminders.OutboxDir = "outbox"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
}

// applyEnv lets secrets come from the environment instead of the file
func (c *Config) applyEnv() {
	override(&c.Extractor.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	override(&c.Extractor.Gemini.APIKey, "GEMINI_API_KEY")
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	override(&c.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
