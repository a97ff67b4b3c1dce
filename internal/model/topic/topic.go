package topic

import (
	"fmt"
	"strings"
)

// ID identifies a tutoring topic.
type ID string

const (
	ABCD         ID = "ABCD"
	Numbers1to10 ID = "Numbers1to10"
	Rhymes       ID = "Rhymes"
	Books        ID = "Books"
	HeartToHeart ID = "HeartToHeart"
)

// DefaultBook is used when the Books topic starts without a book selection.
const DefaultBook = "Gruffalo.pdf"

// Topic captures the catalog attributes exposed to the frontend and the prompt builder.
type Topic struct {
	ID          ID     `json:"id"`
	Label       string `json:"label"`
	Clause      string `json:"-"`
	NeedsBook   bool   `json:"needsBook"`
	Description string `json:"description,omitempty"`
}

// Instruction 返回话题对应的行为约束；Books 话题会填入书名。
func (t Topic) Instruction(bookName string) string {
	if t.NeedsBook {
		return fmt.Sprintf(t.Clause, bookName)
	}
	return t.Clause
}

// Seed provides the fixed topic catalog.
func Seed() []Topic {
	return []Topic{
		{
			ID:          ABCD,
			Label:       "ABCD",
			Clause:      "We are learning ABCD. Go one letter at a time. Say the letter and a word for it.",
			Description: "One letter at a time, with a word for every letter.",
		},
		{
			ID:          Numbers1to10,
			Label:       "Numbers 1-10",
			Clause:      "We are learning numbers. Make it playful and age-appropriate.",
			Description: "Playful counting practice.",
		},
		{
			ID:          Rhymes,
			Label:       "Rhymes",
			Clause:      "Only sing rhymes like Twinkle Twinkle or Baby Shark. Don't talk about any books.",
			Description: "Well-known nursery rhymes only.",
		},
		{
			ID:          Books,
			Label:       "Books",
			Clause:      "We are reading the book '%s'. Only read one page at a time and say 'Let's read Page X'. Ask the child questions and wait for a reply.",
			NeedsBook:   true,
			Description: "Read a picture book page by page.",
		},
		{
			ID:          HeartToHeart,
			Label:       "Talk Heart to Heart",
			Clause:      "This is a free conversation with the child. Listen, respond gently and make the child feel loved.",
			Description: "Gentle open conversation.",
		},
	}
}

// Parse resolves client input to a topic ID. Empty input means ABCD; the
// original labels ("Numbers 1-10", "Talk Heart to Heart") are accepted.
// Unrecognized values are returned verbatim with ok=false.
func Parse(raw string) (ID, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ABCD, true
	}

	key := normalize(trimmed)
	for _, item := range Seed() {
		if key == normalize(string(item.ID)) || key == normalize(item.Label) {
			return item.ID, true
		}
	}
	return ID(trimmed), false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(" ", "", "-", "", "_", "")
	return replacer.Replace(s)
}
