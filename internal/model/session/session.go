package session

import (
	"strings"
	"time"

	"github.com/aadu/tina-aunty/backend/internal/model/topic"
)

// Language is one of the supported conversation languages.
type Language string

const (
	English   Language = "English"
	Hindi     Language = "Hindi"
	Bengali   Language = "Bengali"
	Malayalam Language = "Malayalam"
	Tamil     Language = "Tamil"
	Telugu    Language = "Telugu"
	Kannada   Language = "Kannada"
)

const (
	DefaultChildName = "Child"
	DefaultLanguage  = English
	FirstPage        = 1
)

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{English, Hindi, Bengali, Malayalam, Tamil, Telugu, Kannada}
}

// ParseLanguage resolves client input case-insensitively. Empty or unknown
// values fall back to English with ok=false for unknown ones.
func ParseLanguage(raw string) (Language, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultLanguage, true
	}
	for _, lang := range Languages() {
		if strings.EqualFold(trimmed, string(lang)) {
			return lang, true
		}
	}
	return DefaultLanguage, false
}

// Session captures one child's active tutoring conversation.
type Session struct {
	ID          string    `json:"id"`
	ChildName   string    `json:"childName"`
	Topic       topic.ID  `json:"topic"`
	BookName    string    `json:"bookName,omitempty"`
	Language    Language  `json:"language"`
	CurrentPage int       `json:"currentPage"`
	Transcript  []Turn    `json:"transcript"`
	StartedAt   time.Time `json:"startedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a copy whose transcript does not alias the receiver's.
func (s Session) Clone() Session {
	cloned := s
	cloned.Transcript = append([]Turn(nil), s.Transcript...)
	return cloned
}

// IsEnglish reports whether utterances can skip translation.
func (s Session) IsEnglish() bool {
	return s.Language == English
}
