package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL = "http://localhost:8000/api"

	configPathEnv     = "STOCKNEWS_CONFIG"
	apiURLEnv         = "STOCKNEWS_API_URL"
	logLevelEnv       = "STOCKNEWS_LOG_LEVEL"
	tokenFileEnv      = "STOCKNEWS_TOKEN_FILE"
	sessionStoreEnv   = "STOCKNEWS_SESSION_STORE"
	redisAddrEnv      = "REDIS_ADDR"
	redisPasswordEnv  = "REDIS_PASSWORD"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	amqpURLEnv        = "AMQP_URL"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds every setting of the client and its host application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	API           APIConfig          `yaml:"api"`
	Session       SessionConfig      `yaml:"session"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Watch         WatchConfig        `yaml:"watch"`
	Notifications NotificationConfig `yaml:"notifications"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
}

// LoggingConfig selects the level and an optional rotating log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// APIConfig locates the backend. RequestTimeout bounds each CLI call through
// the caller's context; the client itself enforces none.
type APIConfig struct {
	BaseURL        string        `yaml:"baseUrl"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// SessionConfig chooses where tokens are persisted between runs.
type SessionConfig struct {
	Store string      `yaml:"store"`
	File  string      `yaml:"file"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig describes the Redis token store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ArchiveConfig points to the SQLite file recording delivered alerts.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig drives the scan-and-alert loop.
type WatchConfig struct {
	Interval     time.Duration `yaml:"interval"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Watchlists   []int64       `yaml:"watchlists"`
	Severities   []string      `yaml:"severities"`
	PageSize     int           `yaml:"pageSize"`
	MarkRead     bool          `yaml:"markRead"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Channels []string       `yaml:"channels"`
	Telegram TelegramConfig `yaml:"telegram"`
	AMQP     AMQPConfig     `yaml:"amqp"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// AMQPConfig describes where scan-completed events are published.
type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

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
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiURLEnv); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(sessionStoreEnv); v != "" {
		c.Session.Store = strings.ToLower(v)
	}

	if v := os.Getenv(tokenFileEnv); v != "" {
		c.Session.File = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Session.Redis.Addr = v
	}

	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Session.Redis.Password = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(amqpURLEnv); v != "" {
		c.Notifications.AMQP.URL = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.RequestTimeout > 0 {
		base.API.RequestTimeout = override.API.RequestTimeout
	}

	if override.Session.Store != "" {
		base.Session.Store = strings.ToLower(override.Session.Store)
	}
	if override.Session.File != "" {
		base.Session.File = override.Session.File
	}
	if override.Session.Redis.Addr != "" {
		base.Session.Redis = override.Session.Redis
		if base.Session.Redis.Prefix == "" {
			base.Session.Redis.Prefix = defaultConfig().Session.Redis.Prefix
		}
	}

	if override.Archive.Path != "" {
		base.Archive.Path = override.Archive.Path
	}

	if override.Watch.Interval > 0 {
		base.Watch.Interval = override.Watch.Interval
	}
	if override.Watch.PollInterval > 0 {
		base.Watch.PollInterval = override.Watch.PollInterval
	}
	if len(override.Watch.Watchlists) > 0 {
		base.Watch.Watchlists = override.Watch.Watchlists
	}
	if len(override.Watch.Severities) > 0 {
		base.Watch.Severities = override.Watch.Severities
	}
	if override.Watch.PageSize > 0 {
		base.Watch.PageSize = override.Watch.PageSize
	}
	if override.Watch.MarkRead {
		base.Watch.MarkRead = true
	}

	if len(override.Notifications.Channels) > 0 {
		base.Notifications.Channels = override.Notifications.Channels
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.AMQP.URL != "" {
		base.Notifications.AMQP.URL = override.Notifications.AMQP.URL
	}
	if override.Notifications.AMQP.Queue != "" {
		base.Notifications.AMQP.Queue = override.Notifications.AMQP.Queue
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		API:     APIConfig{BaseURL: defaultBaseURL, RequestTimeout: 30 * time.Second},
		Session: SessionConfig{
			Store: StoreFile,
			File:  defaultTokenFile(),
			Redis: RedisConfig{Addr: "localhost:6379", Prefix: "stocknews:session:"},
		},
		Archive: ArchiveConfig{Path: "stocknews-alerts.db"},
		Watch: WatchConfig{
			Interval:     time.Hour,
			PollInterval: 2 * time.Second,
			Severities:   []string{"HIGH"},
			PageSize:     50,
		},
		Notifications: NotificationConfig{
			Channels: []string{"log"},
			AMQP:     AMQPConfig{Queue: "stocknews.scan.completed"},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You summarize stock news alerts for a trader in three sentences.",
		},
	}
}

func defaultTokenFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "stocknews" + string(os.PathSeparator) + "session.yaml"
	}
	return ".stocknews-session.yaml"
}

// ParseWatchlistIDs converts a comma separated list such as "3,7".
func ParseWatchlistIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
