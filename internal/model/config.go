package model

import "time"

// Config is the complete newsguard configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	OCR         OCRConfig         `yaml:"ocr" mapstructure:"ocr"`
	Override    OverrideConfig    `yaml:"override" mapstructure:"override"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // wraps OCR and classification
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORSOrigins    []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RateLimitConfig limits requests per client address and paces article
// fetches per host
type RateLimitConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables
	Burst             int        `yaml:"burst" mapstructure:"burst"`
	Hosts             []HostRate `yaml:"hosts,omitempty" mapstructure:"hosts"` // outbound pacing by article host
}

// HostRate pins the fetch rate for one article host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// HostRates returns the pinned rates keyed by host
func (c RateLimitConfig) HostRates() map[string]float64 {
	rates := make(map[string]float64, len(c.Hosts))
	for _, h := range c.Hosts {
		if h.Host != "" {
			rates[h.Host] = h.RequestsPerSecond
		}
	}
	return rates
}

// ClassifierConfig selects and configures the classification backend
type ClassifierConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"`     // linear, remote, openai, ollama
	ModelPath string        `yaml:"model_path" mapstructure:"model_path"` // linear artifact (JSON)
	Endpoint  string        `yaml:"endpoint" mapstructure:"endpoint"`     // remote service or OpenAI base URL
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model     string        `yaml:"model" mapstructure:"model"` // OpenAI or Ollama model name
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OCRConfig configures the OCR engine
type OCRConfig struct {
	Languages   []string `yaml:"languages" mapstructure:"languages"`
	PageSegMode int      `yaml:"page_seg_mode" mapstructure:"page_seg_mode"` // 0 keeps the tesseract default
	MaxPixels   int64    `yaml:"max_pixels" mapstructure:"max_pixels"`       // larger images are rejected, 0 disables
}

// OverrideConfig configures the reputable-source override
type OverrideConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Threshold float64  `yaml:"threshold" mapstructure:"threshold"` // FAKE confidence below this is flipped
	Sources   []string `yaml:"sources" mapstructure:"sources"`
	Domains   []string `yaml:"domains" mapstructure:"domains"` // matched against article URLs
}

// CacheConfig configures the prediction cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // empty keeps the cache in memory only
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig configures outbound article fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultReputableSources lists outlets trusted by the override
var DefaultReputableSources = []string{
	"washington post",
	"new york times",
	"reuters",
	"associated press",
	"bbc",
	"the guardian",
	"wall street journal",
	"bloomberg",
	"npr",
	"cnn",
	"forbes",
	"the economist",
	"financial times",
	"usa today",
	"los angeles times",
}

// DefaultReputableDomains are the outlets' hosts, subdomains included
var DefaultReputableDomains = []string{
	"washingtonpost.com",
	"nytimes.com",
	"reuters.com",
	"apnews.com",
	"bbc.co.uk",
	"bbc.com",
	"theguardian.com",
	"wsj.com",
	"bloomberg.com",
	"npr.org",
	"cnn.com",
	"forbes.com",
	"economist.com",
	"ft.com",
	"usatoday.com",
	"latimes.com",
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   2 * time.Minute,
			RequestTimeout: 90 * time.Second,
			MaxBodyBytes:   20 << 20,
			CORSOrigins:    []string{"*"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Classifier: ClassifierConfig{
			Provider:  "linear",
			ModelPath: "models/fake_news_model.json",
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			MaxPixels: 40_000_000,
		},
		Override: OverrideConfig{
			Enabled:   true,
			Threshold: 0.85,
			Sources:   append([]string(nil), DefaultReputableSources...),
			Domains:   append([]string(nil), DefaultReputableDomains...),
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "Newsguard/0.1 (+https://github.com/ppiankov/newsguard)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
