package intent

import (
	"regexp"
	"strings"
)

var returnPhrase = regexp.MustCompile(`(?i)i['’]?m back|i am back|returned|here again`)

// IsReturnPhrase detects a child announcing they are back from a break.
func IsReturnPhrase(utterance string) bool {
	return returnPhrase.MatchString(utterance)
}

// IsFarewell detects a goodbye.
func IsFarewell(utterance string) bool {
	return strings.Contains(strings.ToLower(utterance), "bye")
}
