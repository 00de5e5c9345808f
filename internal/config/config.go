// Package config resolves settings from built-in defaults, an optional YAML
// file, NIBRAS_* environment variables and command-line flags, in that
// order of precedence, and validates the result.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/nibras/internal/reminder"
)

// EnvPrefix prefixes every environment variable; "__" separates nesting
// levels, so NIBRAS_STORAGE__DSN sets storage.dsn.
const EnvPrefix = "NIBRAS_"

// Config is the resolved application configuration.
type Config struct {
	Corpus   CorpusConfig   `koanf:"corpus"`
	Storage  StorageConfig  `koanf:"storage"`
	AI       AIConfig       `koanf:"ai"`
	Quiz     QuizConfig     `koanf:"quiz"`
	Search   LimitConfig    `koanf:"search"`
	Related  LimitConfig    `koanf:"related"`
	Reminder ReminderConfig `koanf:"reminder"`
	Support  SupportConfig  `koanf:"support"`
	Log      LogConfig      `koanf:"log"`
}

type CorpusConfig struct {
	Path    string `koanf:"path" validate:"required"`
	GitURL  string `koanf:"git_url"`
	RepoDir string `koanf:"repo_dir" validate:"required_with=GitURL"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=sqlite redis"`
	DSN         string `koanf:"dsn" validate:"required_if=Driver sqlite"`
	RedisAddr   string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB     int    `koanf:"redis_db" validate:"gte=0"`
	RedisPrefix string `koanf:"redis_prefix"`
}

type AIConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model" validate:"required"`
	MaxHistory int           `koanf:"max_history" validate:"gte=1"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

type QuizConfig struct {
	QuestionCount int `koanf:"question_count" validate:"gte=1,lte=42"`
}

type LimitConfig struct {
	Limit int `koanf:"limit" validate:"gte=1"`
}

type ReminderConfig struct {
	DefaultTime     string        `koanf:"default_time" validate:"hhmm"`
	DefaultTimezone string        `koanf:"default_timezone" validate:"timezone"`
	Window          time.Duration `koanf:"window" validate:"gt=0"`
}

type SupportConfig struct {
	Interval int `koanf:"interval" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

func defaults() map[string]any {
	return map[string]any{
		"corpus.path":               "data/hadiths.json",
		"corpus.git_url":            "",
		"corpus.repo_dir":           "repos",
		"storage.driver":            "sqlite",
		"storage.dsn":               "nibras.db",
		"storage.redis_addr":        "",
		"storage.redis_db":          0,
		"storage.redis_prefix":      "nibras:",
		"ai.base_url":               "https://openrouter.ai/api/v1",
		"ai.api_key":                "",
		"ai.model":                  "google/gemini-2.0-flash-001",
		"ai.max_history":            8,
		"ai.timeout":                "30s",
		"quiz.question_count":       5,
		"search.limit":              10,
		"related.limit":             5,
		"reminder.default_time":     "08:00",
		"reminder.default_timezone": "Asia/Riyadh",
		"reminder.window":           "3m",
		"support.interval":          30,
		"log.level":                 "info",
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"corpus":    "corpus.path",
	"git-url":   "corpus.git_url",
	"repo-dir":  "corpus.repo_dir",
	"storage":   "storage.driver",
	"db":        "storage.dsn",
	"redis":     "storage.redis_addr",
	"ai-url":    "ai.base_url",
	"ai-model":  "ai.model",
	"questions": "quiz.question_count",
	"limit":     "search.limit",
	"log-level": "log.level",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("corpus", d["corpus.path"].(string), "Path to the corpus JSON document")
	fs.String("git-url", "", "Git repository to fetch the corpus from")
	fs.String("repo-dir", d["corpus.repo_dir"].(string), "Directory for git checkouts")
	fs.String("storage", d["storage.driver"].(string), "Progress storage driver (sqlite or redis)")
	fs.String("db", d["storage.dsn"].(string), "Path to the SQLite database file")
	fs.String("redis", "", "Redis address for the redis storage driver")
	fs.String("ai-url", d["ai.base_url"].(string), "Base URL of the chat-completion API")
	fs.String("ai-model", d["ai.model"].(string), "Chat-completion model")
	fs.Int("questions", d["quiz.question_count"].(int), "Questions per quiz")
	fs.Int("limit", d["search.limit"].(int), "Maximum search results")
	fs.String("log-level", d["log.level"].(string), "Log level (debug, info, warn, error)")
}

// Load resolves the configuration. fs must have been passed through
// RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envCB := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envCB), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flagCB := func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagCB), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, ok := reminder.ParseTime(fl.Field().String())
		return ok
	}); err != nil {
		return fmt.Errorf("failed to register validation: %w", err)
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
