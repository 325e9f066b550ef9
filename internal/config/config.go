// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	AdminSecret    string        `yaml:"admin_secret"` // HMAC secret for admin JWTs; empty disables auth
	RequestTimeout time.Duration `yaml:"request_timeout"`
	StaticDir      string        `yaml:"static_dir"` // optional override of the embedded web page
}

type BotConfig struct {
	Token   string `yaml:"token"`
	Workers int    `yaml:"workers"` // polling workers
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"` // e.g. whatsapp:+14155238886
	BaseURL    string `yaml:"base_url"`
	WebhookURL string `yaml:"webhook_url"` // public URL Twilio posts to; signs requests against it
}

type GenerationConfig struct {
	Provider       string        `yaml:"provider"` // replicate | gemini | noop
	Timeout        time.Duration `yaml:"timeout"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"` // per provider attempt; leaves room for the fallback
	NegativePrompt string        `yaml:"negative_prompt"`
	AspectRatio    string        `yaml:"aspect_ratio"`
	DurationSecs   int           `yaml:"duration_secs"`

	ReplicateToken   string `yaml:"replicate_token"`
	ReplicateBaseURL string `yaml:"replicate_base_url"`
	Model            string `yaml:"model"`
	FallbackModel    string `yaml:"fallback_model"`

	GeminiKey   string `yaml:"gemini_key"`
	GeminiURL   string `yaml:"gemini_url"`
	GeminiModel string `yaml:"gemini_model"`
}

type DispatcherConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

type ReaperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Retention  time.Duration `yaml:"retention"`
	StuckAfter time.Duration `yaml:"stuck_after"`
}

type IntakeConfig struct {
	MinPromptLength int           `yaml:"min_prompt_length"`
	RateLimit       int           `yaml:"rate_limit"` // messages per window per requester
	RateWindow      time.Duration `yaml:"rate_window"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"` // optional archive of evicted jobs
	MaxConns int32  `yaml:"max_conns"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Bot        BotConfig        `yaml:"bot"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Generation GenerationConfig `yaml:"generation"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Reaper     ReaperConfig     `yaml:"reaper"`
	Intake     IntakeConfig     `yaml:"intake"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`

	Runtime RuntimeConfig `yaml:"-"`
}

const DefaultNegativePrompt = "deformed, distorted, disfigured, poor quality, bad anatomy, ugly, anachronism, blurry, low resolution, noisy, text, watermark, logo"

// LoadConfig reads the YAML file at path. ${VAR} references are expanded
// from the environment before parsing so secrets can stay out of the file.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5001
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Twilio.BaseURL == "" {
		c.Twilio.BaseURL = "https://api.twilio.com/2010-04-01"
	}

	g := &c.Generation
	g.Provider = strings.ToLower(strings.TrimSpace(g.Provider))
	if g.Provider == "" {
		g.Provider = "replicate"
	}
	if g.Timeout <= 0 {
		g.Timeout = 5 * time.Minute
	}
	if g.AttemptTimeout <= 0 || g.AttemptTimeout > g.Timeout {
		g.AttemptTimeout = g.Timeout * 3 / 5
	}
	if g.NegativePrompt == "" {
		g.NegativePrompt = DefaultNegativePrompt
	}
	if g.AspectRatio == "" {
		g.AspectRatio = "16:9"
	}
	if g.DurationSecs <= 0 {
		g.DurationSecs = 5
	}
	if g.ReplicateBaseURL == "" {
		g.ReplicateBaseURL = "https://api.replicate.com/v1"
	}
	if g.Model == "" {
		g.Model = "lightricks/ltx-video:06f05417d7503beaeb59c4b2f84b8ef19a0e22b02cd5eca36a7c8e91dcaeb2ad"
	}
	if g.FallbackModel == "" {
		g.FallbackModel = "anotherjesse/zeroscope-v2-xl:9f747673945c62801b13b84701c783929c0ee784e4748ec062204894dda1a351"
	}
	if g.GeminiModel == "" {
		g.GeminiModel = "veo-2.0-generate-001"
	}

	if c.Dispatcher.TickInterval <= 0 {
		c.Dispatcher.TickInterval = 2 * time.Second
	}
	if c.Reaper.Interval <= 0 {
		c.Reaper.Interval = 5 * time.Minute
	}
	if c.Reaper.Retention <= 0 {
		c.Reaper.Retention = time.Hour
	}
	if c.Reaper.StuckAfter <= 0 {
		c.Reaper.StuckAfter = 2 * c.Generation.Timeout
	}
	if c.Intake.MinPromptLength <= 0 {
		c.Intake.MinPromptLength = 10
	}
	if c.Intake.RateLimit <= 0 {
		c.Intake.RateLimit = 20
	}
	if c.Intake.RateWindow <= 0 {
		c.Intake.RateWindow = time.Minute
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 4
	}
}

func (c *Config) validate() error {
	switch c.Generation.Provider {
	case "replicate":
		if c.Generation.ReplicateToken == "" && !c.Runtime.Dev {
			return errors.New("generation.replicate_token is required for provider replicate")
		}
	case "gemini":
		if c.Generation.GeminiKey == "" {
			return errors.New("generation.gemini_key is required for provider gemini")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown generation.provider %q", c.Generation.Provider)
	}
	if (c.Twilio.AccountSID == "") != (c.Twilio.AuthToken == "") {
		return errors.New("twilio.account_sid and twilio.auth_token must be set together")
	}
	if c.Twilio.AccountSID != "" && c.Twilio.FromNumber == "" {
		return errors.New("twilio.from_number is required when twilio is configured")
	}
	return nil
}
