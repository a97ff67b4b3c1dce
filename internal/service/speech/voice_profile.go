package speech

import (
	"github.com/aadu/tina-aunty/backend/internal/model/session"
)

// Fixed presentation parameters for Tina Aunty's voice.
const (
	DefaultVoice  = "en-IN-NeerjaNeural"
	DefaultLocale = "en-IN"
	VoiceStyle    = "cheerful"
	VoiceRate     = "medium"
	VoicePitch    = "+15%"
)

var languageVoices = map[session.Language]string{
	session.English:   "en-IN-NeerjaNeural",
	session.Hindi:     "hi-IN-SwaraNeural",
	session.Bengali:   "bn-IN-TanishaaNeural",
	session.Malayalam: "ml-IN-SobhanaNeural",
	session.Tamil:     "ta-IN-PallaviNeural",
	session.Telugu:    "te-IN-ShrutiNeural",
	session.Kannada:   "kn-IN-SapnaNeural",
}

// ResolveVoice 根据会话语言选择音色，未知语言回退到默认音色。
func ResolveVoice(language session.Language) string {
	if voice, ok := languageVoices[language]; ok {
		return voice
	}
	return DefaultVoice
}
