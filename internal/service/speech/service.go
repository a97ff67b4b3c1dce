package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aadu/tina-aunty/backend/internal/config"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
)

var ErrEmptyText = errors.New("text is required")

const defaultOutputFormat = "audio-16khz-32kbitrate-mono-mp3"

// Service 语音输出协调器：选择音色、构造合成请求、落盘音频文件。
type Service struct {
	config      *speechmodel.SpeechConfig
	synthesizer Synthesizer
	artifacts   *ArtifactStore
}

// NewService 创建语音服务实例，默认使用 Azure TTS。
func NewService(config *speechmodel.SpeechConfig) *Service {
	return NewServiceWithSynthesizer(config, NewAzureTTSClient(config))
}

// NewServiceFromConfig 根据环境配置创建 Azure 语音服务。
func NewServiceFromConfig(speechCfg config.SpeechConfig, assetsCfg config.AssetsConfig) *Service {
	return NewService(&speechmodel.SpeechConfig{
		SubscriptionKey: speechCfg.Key,
		Region:          speechCfg.Region,
		Endpoint:        speechCfg.Endpoint,
		OutputFormat:    speechCfg.OutputFormat,
		AudioDir:        assetsCfg.AudioDir,
		AudioURLPrefix:  assetsCfg.AudioURLPrefix,
		Timeout:         speechCfg.Timeout,
	})
}

// NewServiceWithSynthesizer wires a custom synthesis collaborator.
func NewServiceWithSynthesizer(config *speechmodel.SpeechConfig, synthesizer Synthesizer) *Service {
	if config == nil {
		config = &speechmodel.SpeechConfig{}
	}
	return &Service{
		config:      config,
		synthesizer: synthesizer,
		artifacts:   NewArtifactStore(config.AudioDir, config.AudioURLPrefix),
	}
}

// BuildRequest applies the fixed voice presentation for the session language.
func (s *Service) BuildRequest(sessionID string, language session.Language, text string) *speechmodel.TTSRequest {
	format := strings.TrimSpace(s.config.OutputFormat)
	if format == "" {
		format = defaultOutputFormat
	}

	return &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     ResolveVoice(language),
		Locale:    DefaultLocale,
		Style:     VoiceStyle,
		Rate:      VoiceRate,
		Pitch:     VoicePitch,
		Format:    format,
	}
}

// Speak synthesizes text and stores it as a new audio artifact. Failures are
// returned to the caller; there is no fallback audio.
func (s *Service) Speak(ctx context.Context, sessionID string, language session.Language, text string) (*speechmodel.SpeakResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if s.synthesizer == nil {
		return nil, fmt.Errorf("speech synthesizer unavailable")
	}

	req := s.BuildRequest(sessionID, language, text)
	resp, err := s.synthesizer.SynthesizeSpeech(ctx, req)
	if err != nil {
		log.Printf("[tts] synthesis failed for session=%s: %v", sessionID, err)
		return nil, err
	}

	url, err := s.artifacts.Save(resp.AudioData)
	if err != nil {
		log.Printf("[tts] failed to persist audio for session=%s: %v", sessionID, err)
		return nil, err
	}

	return &speechmodel.SpeakResult{Status: speechmodel.StatusSpoken, URL: url}, nil
}
