package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aadu/tina-aunty/backend/internal/model/session"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	sessionservice "github.com/aadu/tina-aunty/backend/internal/service/session"
	"github.com/aadu/tina-aunty/backend/internal/service/translate"
	"github.com/aadu/tina-aunty/backend/internal/service/visual"
)

const (
	RepromptMessage = "Tina Aunty didn't hear that. Can you try again?"
	ApologyMessage  = "Oops! Tina Aunty had a hiccup!"
	ResetMessage    = "Session reset."

	welcomeTemplate = "Welcome %s! Tina Aunty is ready to chat about %s!"

	replyTemperature float32 = 0.6
	replyMaxTokens           = 300
)

var ErrSessionIDRequired = errors.New("session id is required")

// Completer produces the assistant reply for a full transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []session.Turn, temperature float32, maxTokens int) (string, error)
}

// TimeoutClassifier decides whether a single utterance asks for a break.
type TimeoutClassifier interface {
	IsTimeoutRequest(ctx context.Context, utterance string) bool
}

// PromptBuilder renders the persona instruction that opens every transcript.
type PromptBuilder interface {
	BuildPersonaInstruction(childName string, language session.Language, topicID topic.ID, bookName string) string
}

// Deps collects the engine collaborators. Translator, Timeouts and Visuals
// may be nil.
type Deps struct {
	Store      sessionservice.Store
	Topics     topic.Store
	Prompts    PromptBuilder
	Translator *translate.Adapter
	Completer  Completer
	Timeouts   TimeoutClassifier
	Visuals    *visual.Resolver
	Now        func() time.Time
}

// Engine drives the tutoring conversation for each session identity.
// Callers must not run two operations for the same identity concurrently.
type Engine struct {
	store      sessionservice.Store
	topics     topic.Store
	prompts    PromptBuilder
	translator *translate.Adapter
	completer  Completer
	timeouts   TimeoutClassifier
	visuals    *visual.Resolver
	now        func() time.Time
}

// StartParams is the raw client selection for a new session.
type StartParams struct {
	ChildName string
	Topic     string
	BookName  string
	Language  string
}

// StartResult is returned from StartSession.
type StartResult struct {
	Message string
	Session session.Session
	Cues    Cues
}

// TurnResult is one assistant reply plus its visual hints.
type TurnResult struct {
	Response   string
	ImageURL   string
	Whiteboard visual.Whiteboard
	// Fallback 为 true 表示补全失败，Response 为固定致歉语。
	Fallback bool
}

func NewEngine(deps Deps) *Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:      deps.Store,
		topics:     deps.Topics,
		prompts:    deps.Prompts,
		translator: deps.Translator,
		completer:  deps.Completer,
		timeouts:   deps.Timeouts,
		visuals:    deps.Visuals,
		now:        now,
	}
}

// StartSession replaces any session under id with a fresh one whose
// transcript holds only the persona instruction.
func (e *Engine) StartSession(ctx context.Context, id string, params StartParams) (*StartResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrSessionIDRequired
	}

	sess := e.newSession(id, params)
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Printf("[dialogue] session started id=%s topic=%s language=%s", id, sess.Topic, sess.Language)

	return &StartResult{
		Message: fmt.Sprintf(welcomeTemplate, sess.ChildName, e.topicLabel(sess.Topic)),
		Session: sess,
		Cues:    NewCues(sess.ChildName),
	}, nil
}

func (e *Engine) newSession(id string, params StartParams) session.Session {
	childName := strings.TrimSpace(params.ChildName)
	if childName == "" {
		childName = session.DefaultChildName
	}

	topicID, known := topic.Parse(params.Topic)
	if !known {
		log.Printf("[dialogue] unknown topic %q, no topic clause applied", params.Topic)
	}

	language, known := session.ParseLanguage(params.Language)
	if !known {
		log.Printf("[dialogue] unsupported language %q, using %s", params.Language, language)
	}

	bookName := strings.TrimSpace(params.BookName)
	if topicID == topic.Books && bookName == "" {
		bookName = topic.DefaultBook
	}

	instruction := ""
	if e.prompts != nil {
		instruction = e.prompts.BuildPersonaInstruction(childName, language, topicID, bookName)
	}

	now := e.now()
	return session.Session{
		ID:          id,
		ChildName:   childName,
		Topic:       topicID,
		BookName:    bookName,
		Language:    language,
		CurrentPage: session.FirstPage,
		Transcript:  []session.Turn{session.SystemTurn(instruction)},
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

func (e *Engine) topicLabel(id topic.ID) string {
	if e.topics != nil {
		if entry, ok := e.topics.FindByID(id); ok {
			return entry.Label
		}
	}
	return string(id)
}

// Turn handles one child utterance. The transcript grows by exactly one user
// and one assistant turn unless the utterance is blank.
func (e *Engine) Turn(ctx context.Context, id, utterance string) (*TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return &TurnResult{Response: RepromptMessage}, nil
	}

	sess, err := e.loadOrStart(ctx, id)
	if err != nil {
		return nil, err
	}

	text := e.translator.ToEnglish(ctx, sess.Language, utterance)
	sess.Transcript = append(sess.Transcript, session.UserTurn(text))

	result := &TurnResult{}
	reply, err := e.complete(ctx, sess.Transcript)
	if err != nil {
		log.Printf("[dialogue] completion failed id=%s: %v", id, err)
		reply = ApologyMessage
		result.Fallback = true
	}

	sess.Transcript = append(sess.Transcript, session.AssistantTurn(reply))
	sess.UpdatedAt = e.now()
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	result.Response = reply
	if url, ok := e.visuals.VisualAid(sess.Topic, reply); ok {
		result.ImageURL = url
	}
	result.Whiteboard = visual.ExtractWhiteboard(reply)
	return result, nil
}

func (e *Engine) complete(ctx context.Context, transcript []session.Turn) (string, error) {
	if e.completer == nil {
		return "", fmt.Errorf("completion service unavailable")
	}
	return e.completer.Complete(ctx, transcript, replyTemperature, replyMaxTokens)
}

// loadOrStart returns the stored session, starting a default one when the
// identity has none yet.
func (e *Engine) loadOrStart(ctx context.Context, id string) (session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return session.Session{}, ErrSessionIDRequired
	}

	sess, err := e.store.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, sessionservice.ErrSessionNotFound) {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	log.Printf("[dialogue] no session for id=%s, starting default session", id)
	started, err := e.StartSession(ctx, id, StartParams{})
	if err != nil {
		return session.Session{}, err
	}
	return started.Session, nil
}

// CheckTimeout classifies an utterance as a break request. The session, if
// any, only supplies the language; it is never modified.
func (e *Engine) CheckTimeout(ctx context.Context, id, utterance string) (bool, error) {
	if strings.TrimSpace(utterance) == "" || e.timeouts == nil {
		return false, nil
	}

	language := session.DefaultLanguage
	if strings.TrimSpace(id) != "" {
		sess, err := e.store.Get(ctx, id)
		switch {
		case err == nil:
			language = sess.Language
		case !errors.Is(err, sessionservice.ErrSessionNotFound):
			return false, fmt.Errorf("failed to load session: %w", err)
		}
	}

	text := e.translator.ToEnglish(ctx, language, utterance)
	return e.timeouts.IsTimeoutRequest(ctx, text), nil
}

// Reset discards the session so the next start begins from nothing.
func (e *Engine) Reset(ctx context.Context, id string) (string, error) {
	if err := e.store.Delete(ctx, id); err != nil {
		return "", fmt.Errorf("failed to delete session: %w", err)
	}
	log.Printf("[dialogue] session reset id=%s", id)
	return ResetMessage, nil
}

// Session returns a copy of the current session.
func (e *Engine) Session(ctx context.Context, id string) (session.Session, error) {
	return e.store.Get(ctx, id)
}
