package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aadu/tina-aunty/backend/internal/config"
)

// TargetEnglish is the Translator language code for English.
const TargetEnglish = "en"

var ErrTranslationFailed = errors.New("translation failed")

// Translator is the external translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// AzureTranslator calls the Microsoft Translator v3 REST API.
type AzureTranslator struct {
	httpClient *http.Client
	key        string
	region     string
	endpoint   string
}

// NewAzureTranslator creates a translator client from configuration.
func NewAzureTranslator(cfg config.TranslationConfig) *AzureTranslator {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &AzureTranslator{
		httpClient: &http.Client{Timeout: timeout},
		key:        cfg.Key,
		region:     cfg.Region,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
	}
}

type translateRequestItem struct {
	Text string `json:"text"`
}

type translateResponseItem struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate converts text into targetLang, auto-detecting the source language.
func (t *AzureTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal([]translateRequestItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate request: %w", err)
	}

	query := url.Values{}
	query.Set("api-version", "3.0")
	query.Set("to", targetLang)
	endpoint := t.endpoint + "/translate?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build translate request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", t.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", t.region)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrTranslationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrTranslationFailed, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var items []translateResponseItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrTranslationFailed, err)
	}
	if len(items) == 0 || len(items[0].Translations) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrTranslationFailed)
	}

	return items[0].Translations[0].Text, nil
}
