package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("missing provider api key")

const (
	DefaultProvider       = "openai"
	DefaultModel          = "gpt-3.5-turbo"
	DefaultStore          = "sqlite3"
	DefaultSQLiteDSN      = "chat_history.db"
	DefaultFaqPath        = "faq.json"
	DefaultServerAddress  = ":8090"
	DefaultSessionTTL     = 30 // minutes
	DefaultCompletionWait = 120
)

// DefaultSystemPrompt seeds every transcript.
const DefaultSystemPrompt = "Tu es un assistant pour une plateforme de financement participatif en Guinée. " +
	"Tu aides les utilisateurs (investisseurs ou porteurs de projet) à comprendre la plateforme Invest Together avec un langage très simple."

// DefaultContractPrompt is the fixed reply sent when a contract trigger is detected.
const DefaultContractPrompt = "Remplissez le formulaire ci-dessous pour générer votre contrat (financement, partenariat ou vente)."

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Assistant   AssistantConfig           `json:"assistant"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	Store             string `json:"store"`
	FaqPath           string `json:"faq_path"`
	WatchFaq          bool   `json:"watch_faq"`
	SessionTTL        int    `json:"session_ttl"`
	CompletionTimeout int    `json:"completion_timeout_seconds"`
	LogFile           string `json:"log_file"`
	Production        bool   `json:"production"`
}

type AssistantConfig struct {
	Provider        string   `json:"provider"`
	SystemPrompt    string   `json:"system_prompt"`
	ContractTrigger []string `json:"contract_triggers"`
	ContractPrompt  string   `json:"contract_prompt"`
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing file is not an error: defaults and environment variables apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if dbCfg, ok := cfg.Databases["sqlite3"]; ok && dbCfg.DSN != ":memory:" && !filepath.IsAbs(dbCfg.DSN) {
		dbCfg.DSN = filepath.Join(filepath.Dir(absPath), dbCfg.DSN)
		cfg.Databases["sqlite3"] = dbCfg
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	provider := c.Assistant.Provider
	switch provider {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("invalid provider: %s", provider)
	}
	provCfg := c.Providers[provider]
	if strings.TrimSpace(provCfg.APIKey) == "" {
		return fmt.Errorf("%w: set %s", ErrMissingCredential, apiKeyEnv(provider))
	}
	switch strings.ToLower(c.BasicConfig.Store) {
	case "sqlite", "sqlite3", "mysql", "redis":
	default:
		return fmt.Errorf("unsupported store: %s", c.BasicConfig.Store)
	}
	return nil
}

// Provider returns the settings of the active completion provider.
func (c *Config) Provider() ProviderConfig {
	return c.Providers[c.Assistant.Provider]
}

func apiKeyEnv(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func applyEnv(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for _, provider := range []string{"openai", "gemini", "claude"} {
		key := strings.TrimSpace(os.Getenv(apiKeyEnv(provider)))
		if key == "" {
			continue
		}
		provCfg := cfg.Providers[provider]
		provCfg.APIKey = key
		cfg.Providers[provider] = provCfg
	}
	if v := strings.TrimSpace(os.Getenv("INVESTCHAT_PROVIDER")); v != "" {
		cfg.Assistant.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("INVESTCHAT_MODEL")); v != "" {
		provider := cfg.Assistant.Provider
		if provider == "" {
			provider = DefaultProvider
		}
		provCfg := cfg.Providers[provider]
		provCfg.Model = v
		cfg.Providers[provider] = provCfg
	}
	if v := strings.TrimSpace(os.Getenv("INVESTCHAT_STORE")); v != "" {
		cfg.BasicConfig.Store = v
	}
	if v := strings.TrimSpace(os.Getenv("INVESTCHAT_FAQ")); v != "" {
		cfg.BasicConfig.FaqPath = v
	}
	if v := strings.TrimSpace(os.Getenv("INVESTCHAT_ADDR")); v != "" {
		cfg.BasicConfig.ServerAddress = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Assistant.Provider == "" {
		cfg.Assistant.Provider = DefaultProvider
	}
	provCfg := cfg.Providers[cfg.Assistant.Provider]
	if provCfg.Model == "" && cfg.Assistant.Provider == DefaultProvider {
		provCfg.Model = DefaultModel
	}
	cfg.Providers[cfg.Assistant.Provider] = provCfg
	if cfg.Assistant.SystemPrompt == "" {
		cfg.Assistant.SystemPrompt = DefaultSystemPrompt
	}
	if len(cfg.Assistant.ContractTrigger) == 0 {
		cfg.Assistant.ContractTrigger = []string{"contrat"}
	}
	if cfg.Assistant.ContractPrompt == "" {
		cfg.Assistant.ContractPrompt = DefaultContractPrompt
	}
	if cfg.BasicConfig.ServerAddress == "" {
		cfg.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if cfg.BasicConfig.Store == "" {
		cfg.BasicConfig.Store = DefaultStore
	}
	if cfg.BasicConfig.FaqPath == "" {
		cfg.BasicConfig.FaqPath = DefaultFaqPath
	}
	if cfg.BasicConfig.SessionTTL <= 0 {
		cfg.BasicConfig.SessionTTL = DefaultSessionTTL
	}
	if cfg.BasicConfig.CompletionTimeout <= 0 {
		cfg.BasicConfig.CompletionTimeout = DefaultCompletionWait
	}
	if cfg.Databases == nil {
		cfg.Databases = make(map[string]DatabaseConfig)
	}
	if _, ok := cfg.Databases["sqlite3"]; !ok {
		cfg.Databases["sqlite3"] = DatabaseConfig{DSN: DefaultSQLiteDSN}
	}
}
