package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "MISSIONREADY_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	ollamaAPIKeyEnv    = "OLLAMA_API_KEY"
	ollamaModelEnv     = "OLLAMA_MODEL"
	embeddingAPIKeyEnv = "EMBEDDING_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Batch         BatchConfig        `yaml:"batch"`
	Sections      []SectionRule      `yaml:"sections"`
	Severities    map[string]string  `yaml:"severities"`
	DateFormats   []string           `yaml:"dateFormats"`
	Embedding     EmbeddingConfig    `yaml:"embedding"`
	Ollama        OllamaConfig       `yaml:"ollama"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// BatchConfig drives discovery and extraction of one batch run.
type BatchConfig struct {
	BaseDirs           []string `yaml:"baseDirs"`
	OutputDir          string   `yaml:"outputDir"`
	SkipReportPath     string   `yaml:"skipReportPath"`
	Workers            int      `yaml:"workers"`
	FileTimeoutSeconds int      `yaml:"fileTimeoutSeconds"`
}

// FileTimeout resolves the per-file extraction deadline.
func (b BatchConfig) FileTimeout() time.Duration {
	if b.FileTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.FileTimeoutSeconds) * time.Second
}

// SectionRule is one row of the ranked slide-title classification table.
// Rules are evaluated exact > prefix > containment, priority breaking ties.
type SectionRule struct {
	Pattern  string `yaml:"pattern"`
	Section  string `yaml:"section"`
	Priority int    `yaml:"priority"`
}

// EmbeddingConfig describes the embedding inference service.
type EmbeddingConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// OllamaConfig defines how to contact the draw-synthesis chat API.
type OllamaConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig enables recurring re-scans of the base directories.
// A zero interval means one-shot execution.
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// Interval resolves the re-scan period; zero disables the scheduler.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sections) == 0 {
		cfg.Sections = defaultConfig().Sections
	}
	if len(cfg.Severities) == 0 {
		cfg.Severities = defaultConfig().Severities
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = defaultConfig().DateFormats
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(ollamaAPIKeyEnv); v != "" {
		c.Ollama.APIKey = v
	}

	if v := os.Getenv(ollamaModelEnv); v != "" {
		c.Ollama.Model = v
	}

	if v := os.Getenv(embeddingAPIKeyEnv); v != "" {
		c.Embedding.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if len(override.Batch.BaseDirs) > 0 {
		base.Batch.BaseDirs = override.Batch.BaseDirs
	}
	if override.Batch.OutputDir != "" {
		base.Batch.OutputDir = override.Batch.OutputDir
	}
	if override.Batch.SkipReportPath != "" {
		base.Batch.SkipReportPath = override.Batch.SkipReportPath
	}
	if override.Batch.Workers > 0 {
		base.Batch.Workers = override.Batch.Workers
	}
	if override.Batch.FileTimeoutSeconds > 0 {
		base.Batch.FileTimeoutSeconds = override.Batch.FileTimeoutSeconds
	}

	if len(override.Sections) > 0 {
		base.Sections = override.Sections
	}
	if len(override.Severities) > 0 {
		base.Severities = override.Severities
	}
	if len(override.DateFormats) > 0 {
		base.DateFormats = override.DateFormats
	}

	if override.Embedding.InferenceURL != "" {
		base.Embedding.InferenceURL = override.Embedding.InferenceURL
	}
	if override.Embedding.APIKey != "" {
		base.Embedding.APIKey = override.Embedding.APIKey
	}

	if override.Ollama.Endpoint != "" {
		base.Ollama.Endpoint = override.Ollama.Endpoint
	}
	if override.Ollama.Model != "" {
		base.Ollama.Model = override.Ollama.Model
	}
	if override.Ollama.APIKey != "" {
		base.Ollama.APIKey = override.Ollama.APIKey
	}
	if override.Ollama.SystemPrompt != "" {
		base.Ollama.SystemPrompt = override.Ollama.SystemPrompt
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.IntervalMinutes > 0 {
		base.Scheduler.IntervalMinutes = override.Scheduler.IntervalMinutes
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{DSN: ""},
		Batch: BatchConfig{
			BaseDirs:           []string{"uploaded_conops"},
			OutputDir:          "parsed_output",
			SkipReportPath:     "parsed_output/skip_report.json",
			Workers:            4,
			FileTimeoutSeconds: 30,
		},
		Sections: []SectionRule{
			{Pattern: "mission", Section: "mission", Priority: 100},
			{Pattern: "commander", Section: "commanders_intent", Priority: 90},
			{Pattern: "intent", Section: "commanders_intent", Priority: 80},
			{Pattern: "situation", Section: "situation", Priority: 80},
			{Pattern: "execution", Section: "execution", Priority: 80},
			{Pattern: "timeline", Section: "timeline", Priority: 80},
			{Pattern: "task organization", Section: "task_organization", Priority: 70},
			{Pattern: "risk", Section: "risk_summary", Priority: 70},
			{Pattern: "logistics", Section: "logistics", Priority: 60},
			{Pattern: "sustainment", Section: "logistics", Priority: 50},
			{Pattern: "communications", Section: "communications", Priority: 60},
			{Pattern: "signal", Section: "communications", Priority: 50},
			{Pattern: "safety", Section: "safety", Priority: 60},
		},
		Severities: map[string]string{
			"l":              "low",
			"el":             "low",
			"low":            "low",
			"extremely low":  "low",
			"m":              "medium",
			"med":            "medium",
			"medium":         "medium",
			"moderate":       "medium",
			"h":              "high",
			"high":           "high",
			"eh":             "critical",
			"ehigh":          "critical",
			"e-high":         "critical",
			"extremely high": "critical",
			"critical":       "critical",
		},
		DateFormats: []string{
			"2006-01-02",
			"20060102",
			"01/02/2006",
			"1/2/2006",
			"2 Jan 2006",
			"Jan 2, 2006",
			"January 2, 2006",
		},
		Embedding: EmbeddingConfig{InferenceURL: "", APIKey: ""},
		Ollama: OllamaConfig{
			Endpoint:     "https://ollama.com/v1/chat/completions",
			Model:        "gpt-oss:120b",
			APIKey:       "",
			SystemPrompt: "Respond only with valid JSON.",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Scheduler: SchedulerConfig{IntervalMinutes: 0},
	}
}
