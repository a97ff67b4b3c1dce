package speech

// TTSRequest 语音合成请求。Style/Rate/Pitch 为展示参数，由协调器固定填充。
type TTSRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Voice     string `json:"voice"`  // Azure neural voice name
	Locale    string `json:"locale"` // xml:lang of the SSML document
	Style     string `json:"style"`  // express-as style
	Rate      string `json:"rate"`   // prosody rate
	Pitch     string `json:"pitch"`  // prosody pitch offset
	Format    string `json:"format"` // Azure output format name
}
