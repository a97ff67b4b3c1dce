package speech

import (
	"fmt"
	"strings"

	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
)

// resolveCredentials 返回规范化后的订阅密钥与区域，缺失时给出明确错误。
func resolveCredentials(cfg *speechmodel.SpeechConfig) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("Azure 语音配置未初始化")
	}

	key := strings.TrimSpace(cfg.SubscriptionKey)
	region := strings.TrimSpace(cfg.Region)

	if key == "" || region == "" {
		return "", "", fmt.Errorf("Azure 语音配置缺少 AZURE_SPEECH_KEY 或 AZURE_REGION")
	}

	return key, region, nil
}

// resolveEndpoint 优先使用显式配置的地址。
func resolveEndpoint(cfg *speechmodel.SpeechConfig, region string) string {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
}
