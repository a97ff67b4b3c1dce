// Package mock provides test doubles for collaborator interfaces using function fields.
package mock

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
	"github.com/aadu/tina-aunty/backend/internal/service/speech"
	"github.com/aadu/tina-aunty/backend/internal/service/translate"
)

// Interface compliance checks.
var (
	_ model.ChatModel      = (*ChatModel)(nil)
	_ translate.Translator = (*Translator)(nil)
	_ speech.Synthesizer   = (*Synthesizer)(nil)
)

// ChatModel is a test double for model.ChatModel.
// Set GenerateFn before calling Generate. Every call is recorded.
type ChatModel struct {
	GenerateFn func(ctx context.Context, input []*schema.Message, opts *model.Options) (*schema.Message, error)

	mu    sync.Mutex
	calls []ChatCall
}

// ChatCall records the messages and resolved options of one Generate call.
type ChatCall struct {
	Input   []*schema.Message
	Options *model.Options
}

// Generate records the call and delegates to GenerateFn.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{Input: append([]*schema.Message(nil), input...), Options: options})
	m.mu.Unlock()

	return m.GenerateFn(ctx, input, options)
}

// Stream wraps Generate in a single-chunk stream.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools is a no-op.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

// Calls returns a copy of the recorded calls.
func (m *ChatModel) Calls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCall(nil), m.calls...)
}

// Reply returns a GenerateFn that always answers with content.
func Reply(content string) func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
	return func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

// Fail returns a GenerateFn that always fails with err.
func Fail(err error) func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
	return func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return nil, err
	}
}

// Translator is a test double for translate.Translator.
type Translator struct {
	TranslateFn func(ctx context.Context, text, targetLang string) (string, error)

	mu    sync.Mutex
	texts []string
}

// Translate records the input and delegates to TranslateFn.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	t.mu.Lock()
	t.texts = append(t.texts, text)
	t.mu.Unlock()
	return t.TranslateFn(ctx, text, targetLang)
}

// Texts returns every text passed to Translate, in order.
func (t *Translator) Texts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.texts...)
}

// Synthesizer is a test double for speech.Synthesizer.
type Synthesizer struct {
	SynthesizeFn func(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)

	mu       sync.Mutex
	requests []speechmodel.TTSRequest
}

// SynthesizeSpeech records the request and delegates to SynthesizeFn.
func (s *Synthesizer) SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, *req)
	s.mu.Unlock()
	return s.SynthesizeFn(ctx, req)
}

// Requests returns the recorded synthesis requests.
func (s *Synthesizer) Requests() []speechmodel.TTSRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speechmodel.TTSRequest(nil), s.requests...)
}
