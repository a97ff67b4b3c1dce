package dialogue

import "fmt"

// Cues are the fixed phrases the client speaks on its own timers and events.
type Cues struct {
	Greeting    string `json:"greeting"`
	Idle        string `json:"idle"`
	TimeoutAck  string `json:"timeoutAck"`
	WelcomeBack string `json:"welcomeBack"`
	Farewell    string `json:"farewell"`
}

const (
	idleCue        = "Are you still there, my little friend? Tina Aunty is waiting to hear you."
	timeoutAckCue  = "Okay, take your time. Tina Aunty will wait for you."
	welcomeBackCue = "Welcome back! Let's continue where we left off."
)

// NewCues personalizes the cue phrases for a child.
func NewCues(childName string) Cues {
	return Cues{
		Greeting:    fmt.Sprintf("Hi %s! Tina Aunty is here to learn with you.", childName),
		Idle:        idleCue,
		TimeoutAck:  timeoutAckCue,
		WelcomeBack: welcomeBackCue,
		Farewell:    fmt.Sprintf("Bye-bye %s! Tina Aunty will see you next time!", childName),
	}
}
