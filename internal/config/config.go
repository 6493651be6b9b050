package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/maxai/internal/provider/anthropic"
	"github.com/zhouzirui/maxai/internal/provider/gemini"
	"github.com/zhouzirui/maxai/internal/provider/openaicompat"
)

// Placeholder values shipped in sample .env files. They count as "not configured".
var placeholderKeys = map[string]struct{}{
	"YOUR_GEMINI_API_KEY": {},
	"YOUR_API_KEY":        {},
}

// IsPlaceholder reports whether a secret is empty or one of the known sample values.
func IsPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	_, ok := placeholderKeys[value]
	return ok
}

// Supported inference providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderArk       = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Storage StorageConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Server: server}
	if err := env.Parse(&cfg.AI); err != nil {
		return nil, fmt.Errorf("parse ai config: %w", err)
	}
	if err := env.Parse(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parse log config: %w", err)
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if err := cfg.AI.validate(); err != nil {
		return nil, err
	}
	cfg.AI.resolve()

	return cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	var raw struct {
		Port    string   `env:"PORT" envDefault:"8080"`
		Origins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	}
	if err := env.Parse(&raw); err != nil {
		return ServerConfig{}, fmt.Errorf("parse server config: %w", err)
	}

	port := strings.TrimSpace(raw.Port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: raw.Origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: raw.Origins}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string        `env:"AI_PROVIDER" envDefault:"gemini"`
	Model       string        `env:"AI_MODEL"`
	BaseURL     string        `env:"AI_BASE_URL"`
	Timeout     time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	Temperature *float64      `env:"AI_TEMPERATURE"`
	MaxTokens   *int          `env:"AI_MAX_TOKENS"`

	// Ark credentials, used only when Provider is "ark".
	ArkAPIKey    string `env:"ARK_API_KEY"`
	ArkAccessKey string `env:"ARK_ACCESS_KEY"`
	ArkSecretKey string `env:"ARK_SECRET_KEY"`
	ArkRegion    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	// Per-provider keys; resolve copies the selected one into APIKey.
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// APIKey is the credential for the selected provider (not used by ark).
	APIKey        string
	credentialEnv string
}

// Default models per provider, used when AI_MODEL is empty. Ark has none: its
// model is a deployment endpoint ID.
var defaultModels = map[string]string{
	ProviderGemini:    "gemini-1.5-pro",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-sonnet-latest",
}

// resolve picks the provider's credential variable and default model.
func (c *AIConfig) resolve() {
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}

	switch c.Provider {
	case ProviderGemini:
		c.APIKey, c.credentialEnv = c.GeminiAPIKey, "GEMINI_API_KEY"
		if IsPlaceholder(c.APIKey) {
			// Older deployments used the Vite-prefixed name.
			if vite := strings.TrimSpace(os.Getenv("VITE_GEMINI_API_KEY")); vite != "" {
				c.APIKey, c.credentialEnv = vite, "VITE_GEMINI_API_KEY"
			}
		}
	case ProviderOpenAI:
		c.APIKey, c.credentialEnv = c.OpenAIAPIKey, "OPENAI_API_KEY"
	case ProviderAnthropic:
		c.APIKey, c.credentialEnv = c.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	case ProviderArk:
		c.credentialEnv = "ARK_API_KEY"
	}
}

func (c AIConfig) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderArk:
	default:
		return fmt.Errorf("invalid AI_PROVIDER value: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid AI_TIMEOUT value: %s", c.Timeout)
	}
	if c.MaxTokens != nil && *c.MaxTokens < 1 {
		return fmt.Errorf("invalid AI_MAX_TOKENS value: %d", *c.MaxTokens)
	}
	return nil
}

// Configured 表示是否提供了有效的（非占位符）凭证。
func (c AIConfig) Configured() bool {
	if c.Provider == ProviderArk {
		if !IsPlaceholder(c.ArkAPIKey) {
			return true
		}
		return !IsPlaceholder(c.ArkAccessKey) && !IsPlaceholder(c.ArkSecretKey)
	}
	return !IsPlaceholder(c.APIKey)
}

// CredentialEnv names the variable that supplied the credential, or the one to set
// when none did.
func (c AIConfig) CredentialEnv() string {
	if c.credentialEnv != "" {
		return c.credentialEnv
	}
	switch c.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderArk:
		return "ARK_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%s is missing or still set to a placeholder", c.CredentialEnv())
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	switch c.Provider {
	case ProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			Temperature: temperature,
			MaxTokens:   c.MaxTokens,
		}), nil
	case ProviderOpenAI:
		return openaicompat.New(openaicompat.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			Temperature: temperature,
			MaxTokens:   c.MaxTokens,
		}), nil
	case ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			Temperature: temperature,
			MaxTokens:   c.MaxTokens,
		}), nil
	case ProviderArk:
		if c.Model == "" {
			return nil, fmt.Errorf("AI_MODEL is required for provider %q", c.Provider)
		}
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
		}
		if c.Timeout > 0 {
			timeout := c.Timeout
			cfg.Timeout = &timeout
		}
		return ark.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", c.Provider)
	}
}

// StorageConfig holds the Firebase web-app credentials. Nothing is persisted yet; the
// values are only validated and reported at startup.
type StorageConfig struct {
	APIKey            string `env:"FIREBASE_API_KEY"`
	AuthDomain        string `env:"FIREBASE_AUTH_DOMAIN"`
	ProjectID         string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket     string `env:"FIREBASE_STORAGE_BUCKET"`
	MessagingSenderID string `env:"FIREBASE_MESSAGING_SENDER_ID"`
	AppID             string `env:"FIREBASE_APP_ID"`
}

// Enabled 表示是否提供了存储平台凭证。
func (c StorageConfig) Enabled() bool {
	return !IsPlaceholder(c.APIKey) && c.ProjectID != ""
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
	File   string `env:"LOG_FILE"`
}
