// Package config loads layered settings: built-in defaults, an optional
// cazamitos.yaml, a .env file and CAZAMITOS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cazamitos/cazamitos/internal/api"
	"github.com/cazamitos/cazamitos/internal/blobstore"
	"github.com/cazamitos/cazamitos/internal/llm"
	"github.com/cazamitos/cazamitos/internal/logging"
	"github.com/cazamitos/cazamitos/internal/quiz"
)

// EnvPrefix prefixes every environment override, e.g. CAZAMITOS_BLOB_BACKEND.
const EnvPrefix = "CAZAMITOS"

// Config is the full application configuration.
type Config struct {
	LLM       llm.Config       `mapstructure:"llm"`
	Quiz      quiz.Config      `mapstructure:"quiz"`
	Server    api.Config       `mapstructure:"server"`
	Blob      blobstore.Config `mapstructure:"blob"`
	Results   ResultsConfig    `mapstructure:"results"`
	Materials MaterialsConfig  `mapstructure:"materials"`
	Log       logging.Config   `mapstructure:"log"`
	Store     StoreConfig      `mapstructure:"store"`

	// CredentialsFile holds the API key saved from the terminal client.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// ResultsConfig selects where the quiz client sends finished records.
type ResultsConfig struct {
	// Endpoint is the full URL of a remote submission route. Empty means
	// records are appended in process through the blob backend.
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type MaterialsConfig struct {
	Dir string `mapstructure:"dir"`
}

type StoreConfig struct {
	// Path of the SQLite AI request log. Empty uses the XDG data dir.
	Path string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	credentials, _ := CredentialsPath()
	return Config{
		LLM:             llm.DefaultConfig(),
		Quiz:            quiz.DefaultConfig(),
		Server:          api.DefaultConfig(),
		Blob:            blobstore.DefaultConfig(),
		Results:         ResultsConfig{Timeout: 10 * time.Second},
		Materials:       MaterialsConfig{Dir: filepath.Join("public", "materials")},
		Log:             logging.DefaultConfig(),
		CredentialsFile: credentials,
	}
}

// Load reads configuration. An explicit path must exist; otherwise
// cazamitos.yaml is looked up in the working directory and the user
// config dir, and its absence is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cazamitos")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyCredentials(creds)
	cfg.LLM.Discover()

	return &cfg, nil
}

// ApplyCredentials uses a stored key when the configuration carries none
// for the selected provider.
func (c *Config) ApplyCredentials(creds *Credentials) {
	if creds == nil || creds.APIKey == "" || c.LLM.APIKey() != "" {
		return
	}
	if creds.Provider != "" {
		c.LLM.Provider = creds.Provider
	}
	c.LLM.SetAPIKey(creds.APIKey)
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Quiz.QuestionCount < 1 {
		errs = append(errs, fmt.Errorf("quiz.question_count must be at least 1, got %d", c.Quiz.QuestionCount))
	}
	if c.Quiz.OptionCount < 2 {
		errs = append(errs, fmt.Errorf("quiz.option_count must be at least 2, got %d", c.Quiz.OptionCount))
	}
	switch c.Blob.Backend {
	case "fs", "minio", "memory":
	default:
		errs = append(errs, fmt.Errorf("blob.backend must be fs, minio or memory, got %q", c.Blob.Backend))
	}
	if !strings.HasSuffix(c.Blob.Key, ".json") {
		errs = append(errs, fmt.Errorf("blob.key must end in .json, got %q", c.Blob.Key))
	}
	switch c.Server.Mode {
	case "release", "debug":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be release or debug, got %q", c.Server.Mode))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// ConfigDir is $XDG_CONFIG_HOME/cazamitos, falling back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "cazamitos"), nil
}

func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"llm.provider":               d.LLM.Provider,
		"llm.gemini.api_key":         d.LLM.Gemini.APIKey,
		"llm.gemini.model":           d.LLM.Gemini.Model,
		"llm.openai.api_key":         d.LLM.OpenAI.APIKey,
		"llm.openai.model":           d.LLM.OpenAI.Model,
		"llm.openai.base_url":        d.LLM.OpenAI.BaseURL,
		"llm.anthropic.api_key":      d.LLM.Anthropic.APIKey,
		"llm.anthropic.model":        d.LLM.Anthropic.Model,
		"llm.openrouter.api_key":     d.LLM.OpenRouter.APIKey,
		"llm.openrouter.model":       d.LLM.OpenRouter.Model,
		"llm.openrouter.base_url":    d.LLM.OpenRouter.BaseURL,
		"llm.retry.max_attempts":     d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":     d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":         d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":       d.LLM.Retry.Multiplier,
		"quiz.question_count":        d.Quiz.QuestionCount,
		"quiz.option_count":          d.Quiz.OptionCount,
		"quiz.language":              d.Quiz.Language,
		"quiz.timeout":               d.Quiz.Timeout,
		"quiz.max_tokens":            d.Quiz.MaxTokens,
		"quiz.commentary_max_tokens": d.Quiz.CommentaryMaxTokens,
		"quiz.temperature":           d.Quiz.Temperature,
		"server.addr":                d.Server.Addr,
		"server.mode":                d.Server.Mode,
		"server.cors_origins":        d.Server.CORSOrigins,
		"server.rate_limit":          d.Server.RateLimit,
		"server.read_timeout":        d.Server.ReadTimeout,
		"server.write_timeout":       d.Server.WriteTimeout,
		"server.shutdown_timeout":    d.Server.ShutdownTimeout,
		"blob.backend":               d.Blob.Backend,
		"blob.key":                   d.Blob.Key,
		"blob.dir":                   d.Blob.Dir,
		"blob.minio.endpoint":        d.Blob.Minio.Endpoint,
		"blob.minio.access_key":      d.Blob.Minio.AccessKey,
		"blob.minio.secret_key":      d.Blob.Minio.SecretKey,
		"blob.minio.bucket":          d.Blob.Minio.Bucket,
		"blob.minio.region":          d.Blob.Minio.Region,
		"blob.minio.use_ssl":         d.Blob.Minio.UseSSL,
		"results.endpoint":           d.Results.Endpoint,
		"results.timeout":            d.Results.Timeout,
		"materials.dir":              d.Materials.Dir,
		"log.level":                  d.Log.Level,
		"log.file":                   d.Log.File,
		"log.max_size_mb":            d.Log.MaxSizeMB,
		"log.max_backups":            d.Log.MaxBackups,
		"log.max_age_days":           d.Log.MaxAgeDays,
		"log.compress":               d.Log.Compress,
		"log.console":                d.Log.Console,
		"store.path":                 d.Store.Path,
		"credentials_file":           d.CredentialsFile,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
