package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const (
	timeoutSystemPrompt = "You are a helpful assistant that decides if the user is requesting a timeout (e.g., going to toilet, being called by mom or any other requirement to take an indefinite break). Reply only 'true' or 'false'."
	timeoutUserPrompt   = "Is the following a timeout request? '{message}'"

	classifierMaxTokens = 5
)

// TimeoutDetector classifies single utterances as break requests. It never
// sees the session transcript.
type TimeoutDetector struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewTimeoutDetector compiles the classifier chain. A nil chat model yields a
// detector that always answers false.
func NewTimeoutDetector(ctx context.Context, chatModel model.ChatModel) (*TimeoutDetector, error) {
	if chatModel == nil {
		return &TimeoutDetector{}, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(timeoutSystemPrompt),
		schema.UserMessage(timeoutUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile timeout classifier chain: %w", err)
	}

	return &TimeoutDetector{classifier: runnable}, nil
}

// Enabled 返回分类器是否可用。
func (d *TimeoutDetector) Enabled() bool {
	return d != nil && d.classifier != nil
}

// IsTimeoutRequest runs a deterministic, short classification. Errors and
// anything without "true" in the reply count as false.
func (d *TimeoutDetector) IsTimeoutRequest(ctx context.Context, utterance string) bool {
	if !d.Enabled() {
		return false
	}

	msg, err := d.classifier.Invoke(ctx,
		map[string]any{"message": utterance},
		compose.WithChatModelOption(
			model.WithTemperature(0),
			model.WithMaxTokens(classifierMaxTokens),
		),
	)
	if err != nil {
		log.Printf("[intent] timeout check failed: %v", err)
		return false
	}
	if msg == nil {
		return false
	}
	return ParseVerdict(msg.Content)
}

// ParseVerdict reports whether "true" appears anywhere in the reply,
// ignoring case.
func ParseVerdict(content string) bool {
	return strings.Contains(strings.ToLower(content), "true")
}
