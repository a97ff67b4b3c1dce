package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
)

// Synthesizer is the external speech synthesis collaborator.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// AzureTTSClient posts SSML to the Azure Speech REST endpoint.
type AzureTTSClient struct {
	config     *speechmodel.SpeechConfig
	httpClient *http.Client
}

// NewAzureTTSClient 创建 Azure TTS 客户端
func NewAzureTTSClient(config *speechmodel.SpeechConfig) *AzureTTSClient {
	timeout := 30 * time.Second
	if config != nil && config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	return &AzureTTSClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SynthesizeSpeech renders the request as SSML and returns the audio bytes.
func (c *AzureTTSClient) SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	key, region, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	ssml, err := BuildSSML(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSML: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, resolveEndpoint(c.config, region), strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to build TTS request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", req.Format)
	httpReq.Header.Set("X-ConnectionId", strings.ReplaceAll(requestID, "-", ""))
	httpReq.Header.Set("User-Agent", "tina-aunty-backend")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	var audio bytes.Buffer
	if _, err := io.Copy(&audio, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read TTS audio: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API error %d: %s", resp.StatusCode, strings.TrimSpace(audio.String()))
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("TTS audio is empty")
	}

	log.Printf("[tts] synthesized %d bytes with voice %s", audio.Len(), req.Voice)

	return &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio.Bytes(),
		Format:    req.Format,
		RequestID: requestID,
		CreatedAt: time.Now(),
	}, nil
}

// BuildSSML renders voice, style and prosody around the escaped text.
func BuildSSML(req *speechmodel.TTSRequest) (string, error) {
	locale := req.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	var text bytes.Buffer
	if err := xml.EscapeText(&text, []byte(req.Text)); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xmlns:mstts='https://www.w3.org/2001/mstts' xml:lang='%s'>", escapeAttr(locale))
	fmt.Fprintf(&b, "<voice name='%s'>", escapeAttr(req.Voice))
	fmt.Fprintf(&b, "<mstts:express-as style='%s'>", escapeAttr(req.Style))
	fmt.Fprintf(&b, "<prosody rate='%s' pitch='%s'>", escapeAttr(req.Rate), escapeAttr(req.Pitch))
	b.Write(text.Bytes())
	b.WriteString("</prosody></mstts:express-as></voice></speak>")
	return b.String(), nil
}

func escapeAttr(value string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}
