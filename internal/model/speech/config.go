package speech

// SpeechConfig 语音合成服务配置
type SpeechConfig struct {
	// Azure Speech 配置
	SubscriptionKey string `json:"subscriptionKey"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint,omitempty"` // 为空时按 region 拼接

	// 输出配置
	OutputFormat   string `json:"outputFormat"`
	AudioDir       string `json:"audioDir"`
	AudioURLPrefix string `json:"audioUrlPrefix"`

	// 通用配置
	Timeout int `json:"timeout"` // seconds
}
