package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Server    ServerConfig              `mapstructure:"server"`
	Gateways  map[string]GatewayConfig  `mapstructure:"gateways"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Memory    MemoryConfig              `mapstructure:"memory"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Search    SearchConfig              `mapstructure:"search"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Ingest    IngestConfig              `mapstructure:"ingest"`
}

type AppConfig struct {
	Name       string `mapstructure:"name"`
	DataDir    string `mapstructure:"data_dir"`
	PromptsDir string `mapstructure:"prompts_dir"`
}

type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	ExcludedCategories []string `mapstructure:"excluded_categories"`
	DashboardMonths    int      `mapstructure:"dashboard_months"`
	TopCategories      int      `mapstructure:"top_categories"`
}

type GatewayConfig struct {
	Token   string `mapstructure:"token"`
	Enabled bool   `mapstructure:"enabled"`
}

type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	Enabled     bool    `mapstructure:"enabled"`
}

// MemoryConfig selects the conversation checkpoint backend: memory, sqlite or redis.
type MemoryConfig struct {
	Type          string        `mapstructure:"type"`
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	URL           string `mapstructure:"url"`
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	DBName        string `mapstructure:"dbname"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // google or duckduckgo
	APIKey     string        `mapstructure:"api_key"`
	CX         string        `mapstructure:"cx"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AgentConfig struct {
	MaxRetries    int `mapstructure:"max_retries"`
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
}

type IngestConfig struct {
	Schedule      string `mapstructure:"schedule"`
	RulesFile     string `mapstructure:"rules_file"`
	BatchSize     int    `mapstructure:"batch_size"`
	Watch         bool   `mapstructure:"watch"`
	NotifyGateway string `mapstructure:"notify_gateway"`
	NotifyChat    string `mapstructure:"notify_chat"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "finmate")
	v.SetDefault("app.data_dir", "./data")
	v.SetDefault("app.prompts_dir", "./prompts")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.excluded_categories", []string{"Transfer", "Credit Card Payment"})
	v.SetDefault("server.dashboard_months", 12)
	v.SetDefault("server.top_categories", 8)
	v.SetDefault("memory.type", "sqlite")
	v.SetDefault("memory.path", "finmate.db")
	v.SetDefault("memory.ttl", 24*time.Hour)
	v.SetDefault("database.migrations_dir", "file://migrations")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("search.provider", "google")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("agent.max_retries", 2)
	v.SetDefault("agent.max_tool_rounds", 10)
	v.SetDefault("ingest.schedule", "@hourly")
	v.SetDefault("ingest.batch_size", 100)
}

// LoadConfig reads the config file at path (JSON or YAML by extension) and
// layers FINMATE_* environment overrides on top. A missing file is not an
// error; defaults and the environment still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FINMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	applyLegacyEnv(&cfg)
	return &cfg, nil
}

// applyLegacyEnv honours the plain variable names the scripts have always used.
func applyLegacyEnv(cfg *Config) {
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Search.CX == "" {
		cfg.Search.CX = os.Getenv("CX")
	}
}

// GetDefaultProvider returns the first enabled provider in name order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns the named gateway config if it is enabled and has a token.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	gw, ok := c.Gateways[name]
	if ok && gw.Enabled && gw.Token != "" {
		return gw, true
	}
	return GatewayConfig{}, false
}

// PostgresDSN builds the ledger connection string from the database section.
func (c *Config) PostgresDSN() (string, error) {
	d := c.Database
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.DBName == "" {
		return "", fmt.Errorf("postgres not configured (database.url or database.host/dbname)")
	}
	port := d.Port
	if port == "" {
		port = "5432"
	}
	ssl := d.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, port, d.DBName, ssl), nil
}
