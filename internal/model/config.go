package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MailboxConfig holds the IMAP account settings.
type MailboxConfig struct {
	// Address is the mailbox login, e.g. a Gmail address.
	Address string `mapstructure:"address" yaml:"address"`

	// Password is the app password. When empty it is resolved from
	// the system keyring instead.
	Password string `mapstructure:"password" yaml:"password"`

	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	TLS  bool   `mapstructure:"tls" yaml:"tls"`
}

// OllamaConfig holds the settings for a local Ollama server.
type OllamaConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	LLMModel       string `mapstructure:"llm_model" yaml:"llm_model"`
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`
}

// GeminiConfig holds the settings for the Gemini API.
type GeminiConfig struct {
	// APIKey is the Google API key. When empty it is resolved from
	// the system keyring instead.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	LLMModel       string `mapstructure:"llm_model" yaml:"llm_model"`
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`

	// BaseURL overrides the default API endpoint. Used in tests.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// ProviderConfig selects and configures the embedding/completion
// provider. Name must be "ollama" or "gemini".
type ProviderConfig struct {
	Name        string       `mapstructure:"name" yaml:"name"`
	Temperature float64      `mapstructure:"temperature" yaml:"temperature"`
	Ollama      OllamaConfig `mapstructure:"ollama" yaml:"ollama"`
	Gemini      GeminiConfig `mapstructure:"gemini" yaml:"gemini"`
}

// StoreConfig locates the persistent vector index.
type StoreConfig struct {
	// PersistDir is the directory holding the index database.
	PersistDir string `mapstructure:"persist_dir" yaml:"persist_dir"`

	// Collection is the named collection inside the store.
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	// RetrievalCount is the default number of emails retrieved as
	// context for a question.
	RetrievalCount int `mapstructure:"retrieval_count" yaml:"retrieval_count"`
}

// Config is the top-level application configuration. It is constructed
// once at process start and passed into every component constructor.
type Config struct {
	Mailbox  MailboxConfig  `mapstructure:"mailbox" yaml:"mailbox"`
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Query    QueryConfig    `mapstructure:"query" yaml:"query"`
}

// ConfigError reports every configuration problem found during
// validation.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:")
	for _, p := range e.Problems {
		sb.WriteString("\n  - ")
		sb.WriteString(p)
	}
	return sb.String()
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/mailmind/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailmind", "config.yaml")
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	return &Config{
		Mailbox: MailboxConfig{
			Host: "imap.gmail.com",
			Port: "993",
			TLS:  true,
		},
		Provider: ProviderConfig{
			Name:        "ollama",
			Temperature: 0.2,
			Ollama: OllamaConfig{
				BaseURL:        "http://localhost:11434",
				LLMModel:       "llama3.1:8b",
				EmbeddingModel: "llama3.1:8b",
			},
			Gemini: GeminiConfig{
				LLMModel:       "gemini-2.0-flash-exp",
				EmbeddingModel: "text-embedding-004",
			},
		},
		Store: StoreConfig{
			PersistDir: "mail_index",
			Collection: "emails",
		},
		Query: QueryConfig{
			RetrievalCount: 50,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default
// configuration.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mailbox.host", "imap.gmail.com")
	v.SetDefault("mailbox.port", "993")
	v.SetDefault("mailbox.tls", true)
	v.SetDefault("provider.name", "ollama")
	v.SetDefault("provider.temperature", 0.2)
	v.SetDefault("provider.ollama.base_url", "http://localhost:11434")
	v.SetDefault("provider.ollama.llm_model", "llama3.1:8b")
	v.SetDefault("provider.ollama.embedding_model", "llama3.1:8b")
	v.SetDefault("provider.gemini.llm_model", "gemini-2.0-flash-exp")
	v.SetDefault("provider.gemini.embedding_model", "text-embedding-004")
	v.SetDefault("store.persist_dir", "mail_index")
	v.SetDefault("store.collection", "emails")
	v.SetDefault("query.retrieval_count", 50)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mailbox", cfg.Mailbox)
	v.Set("provider", cfg.Provider)
	v.Set("store", cfg.Store)
	v.Set("query", cfg.Query)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Validate checks that the configuration is complete enough to run the
// pipeline. Secrets are expected to be resolved (config file or
// keyring) before Validate is called. All problems are reported at
// once as a *ConfigError.
func (c *Config) Validate() error {
	var problems []string

	if c.Mailbox.Address == "" {
		problems = append(problems, "mailbox.address is required")
	}
	if c.Mailbox.Password == "" {
		problems = append(problems, "mailbox.password is required (config file or keyring)")
	}
	if c.Mailbox.Host == "" {
		problems = append(problems, "mailbox.host is required")
	}

	switch c.Provider.Name {
	case "":
		problems = append(problems, `provider.name is required (must be "ollama" or "gemini")`)
	case "ollama":
		if c.Provider.Ollama.BaseURL == "" {
			problems = append(problems, "provider.ollama.base_url is required when provider.name=ollama")
		}
		if c.Provider.Ollama.LLMModel == "" {
			problems = append(problems, "provider.ollama.llm_model is required when provider.name=ollama")
		}
		if c.Provider.Ollama.EmbeddingModel == "" {
			problems = append(problems, "provider.ollama.embedding_model is required when provider.name=ollama")
		}
	case "gemini":
		if c.Provider.Gemini.APIKey == "" {
			problems = append(problems, "provider.gemini.api_key is required when provider.name=gemini (config file or keyring)")
		}
	default:
		problems = append(problems, fmt.Sprintf(
			`provider.name must be "ollama" or "gemini", got %q`, c.Provider.Name,
		))
	}

	if c.Store.PersistDir == "" {
		problems = append(problems, "store.persist_dir is required")
	}
	if c.Store.Collection == "" {
		problems = append(problems, "store.collection is required")
	}
	if c.Query.RetrievalCount < 1 {
		problems = append(problems, "query.retrieval_count must be positive")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
