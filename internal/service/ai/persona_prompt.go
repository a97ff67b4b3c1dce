package ai

import (
	"fmt"

	"github.com/aadu/tina-aunty/backend/internal/model/session"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
)

// PersonaPromptManager builds the Tina Aunty persona instruction per topic.
type PersonaPromptManager struct {
	topics topic.Store
}

// NewPersonaPromptManager creates a prompt manager backed by the topic catalog.
func NewPersonaPromptManager(topics topic.Store) *PersonaPromptManager {
	return &PersonaPromptManager{topics: topics}
}

// BuildPersonaInstruction fills the persona template. Topics missing from the
// catalog get no topic clause.
func (pm *PersonaPromptManager) BuildPersonaInstruction(childName string, language session.Language, topicID topic.ID, bookName string) string {
	base := fmt.Sprintf("You are Tina Aunty, a cheerful, loving teacher for %s. Respond in %s. ", childName, language)

	if pm.topics == nil {
		return base
	}
	entry, ok := pm.topics.FindByID(topicID)
	if !ok {
		return base
	}
	return base + entry.Instruction(bookName)
}
