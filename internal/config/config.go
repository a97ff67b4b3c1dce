package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server      ServerConfig
	AI          AIConfig
	Translation TranslationConfig
	Speech      SpeechConfig
	Assets      AssetsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	translation, err := loadTranslationConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		AI:          ai,
		Translation: translation,
		Speech:      speech,
		Assets:      loadAssetsConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	// SecureCookies 控制会话 cookie 是否只在 HTTPS 下发送。
	SecureCookies bool
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	secure := false
	if raw := strings.TrimSpace(os.Getenv("COOKIE_SECURE")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("invalid COOKIE_SECURE value: %w", err)
		}
		secure = parsed
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins, SecureCookies: secure}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins, SecureCookies: secure}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	TopP         *float64
	GeminiAPIKey string
	GeminiModel  string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey != ""
	}
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建 Ark 模型实例。采样温度与输出长度由调用方按次传入。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, fmt.Errorf("provider %q is not served by Ark", c.Provider)
	}
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		TopP:      topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderGemini {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:     provider,
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		TopP:         topP,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
	}, nil
}

// TranslationConfig 描述 Azure Translator 配置。
type TranslationConfig struct {
	Key      string
	Region   string
	Endpoint string
	Timeout  int
}

// Enabled 表示翻译服务凭证是否完整。
func (c TranslationConfig) Enabled() bool {
	return c.Key != "" && c.Region != ""
}

func loadTranslationConfig() (TranslationConfig, error) {
	timeout, err := parseOptionalIntEnv("TRANSLATE_TIMEOUT")
	if err != nil {
		return TranslationConfig{}, err
	}
	timeoutSeconds := 10
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	// 默认复用语音服务的订阅密钥，与旧版部署保持一致
	key := getEnvOrDefault("AZURE_TRANSLATOR_KEY", strings.TrimSpace(os.Getenv("AZURE_SPEECH_KEY")))
	region := getEnvOrDefault("AZURE_TRANSLATOR_REGION", strings.TrimSpace(os.Getenv("AZURE_REGION")))

	return TranslationConfig{
		Key:      key,
		Region:   region,
		Endpoint: getEnvOrDefault("AZURE_TRANSLATOR_ENDPOINT", "https://api.cognitive.microsofttranslator.com"),
		Timeout:  timeoutSeconds,
	}, nil
}

// SpeechConfig 描述语音合成相关配置
type SpeechConfig struct {
	Key          string
	Region       string
	Endpoint     string
	OutputFormat string
	Timeout      int
	Enabled      bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30 // 默认30秒
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	key := strings.TrimSpace(os.Getenv("AZURE_SPEECH_KEY"))
	region := strings.TrimSpace(os.Getenv("AZURE_REGION"))

	return SpeechConfig{
		Key:          key,
		Region:       region,
		Endpoint:     getEnvOrDefault("AZURE_SPEECH_ENDPOINT", ""),
		OutputFormat: getEnvOrDefault("AZURE_SPEECH_OUTPUT_FORMAT", "audio-16khz-32kbitrate-mono-mp3"),
		Timeout:      timeoutSeconds,
		Enabled:      key != "" && region != "",
	}, nil
}

// AssetsConfig 描述静态资源目录。
type AssetsConfig struct {
	StaticDir         string
	AudioDir          string
	AudioURLPrefix    string
	BooksDir          string
	AlphabetDir       string
	AlphabetURLPrefix string
}

func loadAssetsConfig() AssetsConfig {
	return AssetsConfig{
		StaticDir:         getEnvOrDefault("STATIC_DIR", "static"),
		AudioDir:          getEnvOrDefault("AUDIO_DIR", "static"),
		AudioURLPrefix:    getEnvOrDefault("AUDIO_URL_PREFIX", "/static"),
		BooksDir:          getEnvOrDefault("BOOKS_DIR", "static/pdf/books"),
		AlphabetDir:       getEnvOrDefault("ALPHABET_DIR", "static/img/alphabets"),
		AlphabetURLPrefix: getEnvOrDefault("ALPHABET_URL_PREFIX", "/static/img/alphabets"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
