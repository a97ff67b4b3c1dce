package visual

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aadu/tina-aunty/backend/internal/model/topic"
)

var (
	standaloneLetter = regexp.MustCompile(`\b([A-Z])\b`)
	letterForWord    = regexp.MustCompile(`(?i)([A-Z])\s+is\s+for\s+(\w+)`)
	sentenceEnd      = regexp.MustCompile(`[.!?]`)
)

// AssetLookup reports whether an image asset exists.
type AssetLookup interface {
	Exists(name string) bool
}

// Whiteboard is the short text the client writes on screen for a reply.
type Whiteboard struct {
	Letter string `json:"letter,omitempty"`
	Word   string `json:"word,omitempty"`
	Text   string `json:"text"`
}

// Resolver 从回复文本中提取可视化提示。
type Resolver struct {
	assets    AssetLookup
	urlPrefix string
}

func NewResolver(assets AssetLookup, urlPrefix string) *Resolver {
	return &Resolver{assets: assets, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// VisualAid returns the alphabet image for the first standalone capital
// letter in text. Only ABCD sessions get images, and only the first letter
// is considered even if its image is missing.
func (r *Resolver) VisualAid(topicID topic.ID, text string) (string, bool) {
	if r == nil || topicID != topic.ABCD {
		return "", false
	}

	match := standaloneLetter.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	name := match[1] + ".png"
	if r.assets == nil || !r.assets.Exists(name) {
		return "", false
	}
	return fmt.Sprintf("%s/%s", r.urlPrefix, name), true
}

// ExtractWhiteboard pulls "X is for Word" out of a reply, falling back to the
// first sentence.
func ExtractWhiteboard(text string) Whiteboard {
	if m := letterForWord.FindStringSubmatch(text); m != nil {
		letter := strings.ToUpper(m[1])
		return Whiteboard{
			Letter: letter,
			Word:   m[2],
			Text:   fmt.Sprintf("%s is for %s", letter, m[2]),
		}
	}
	return Whiteboard{Text: firstSentence(text)}
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if loc := sentenceEnd.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[1]])
	}
	return text
}
