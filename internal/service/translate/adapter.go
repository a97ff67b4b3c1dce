package translate

import (
	"context"
	"log"
	"strings"

	"github.com/aadu/tina-aunty/backend/internal/model/session"
)

// Adapter normalizes utterances to English before they reach the model.
type Adapter struct {
	translator Translator
}

// NewAdapter wraps a translator. A nil translator makes every non-English
// utterance pass through untranslated.
func NewAdapter(translator Translator) *Adapter {
	return &Adapter{translator: translator}
}

// ToEnglish returns text unchanged for English sessions without calling the
// collaborator. For other languages it fails open: any translation error
// yields the original text.
func (a *Adapter) ToEnglish(ctx context.Context, language session.Language, text string) string {
	if language == session.English {
		return text
	}

	if a == nil || a.translator == nil {
		log.Printf("[translate] translator unavailable, passing %s text through", language)
		return text
	}

	translated, err := a.translator.Translate(ctx, text, TargetEnglish)
	if err != nil {
		log.Printf("[translate] %s -> en failed, using original text: %v", language, err)
		return text
	}
	if strings.TrimSpace(translated) == "" {
		log.Printf("[translate] %s -> en returned empty text, using original text", language)
		return text
	}
	return translated
}
