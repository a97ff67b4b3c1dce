package dialogue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadu/tina-aunty/backend/internal/mock"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	"github.com/aadu/tina-aunty/backend/internal/service/ai"
	"github.com/aadu/tina-aunty/backend/internal/service/assets"
	"github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/service/intent"
	sessionservice "github.com/aadu/tina-aunty/backend/internal/service/session"
	"github.com/aadu/tina-aunty/backend/internal/service/translate"
	"github.com/aadu/tina-aunty/backend/internal/service/visual"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// events records collaborator calls across fakes in order.
type events struct {
	mu   sync.Mutex
	list []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.list = append(e.list, s)
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.list...)
}

type fixture struct {
	engine     *dialogue.Engine
	store      *sessionservice.MemoryStore
	chat       *mock.ChatModel
	classifier *mock.ChatModel
	translator *mock.Translator
	events     *events
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: sessionservice.NewMemoryStore(), events: &events{}}

	f.chat = &mock.ChatModel{GenerateFn: func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		f.events.add("complete")
		return schema.AssistantMessage("A is for Apple. Can you say A?", nil), nil
	}}
	f.classifier = &mock.ChatModel{GenerateFn: mock.Reply("false")}
	f.translator = &mock.Translator{TranslateFn: func(_ context.Context, text, _ string) (string, error) {
		f.events.add("translate")
		return "translated: " + text, nil
	}}

	detector, err := intent.NewTimeoutDetector(context.Background(), f.classifier)
	require.NoError(t, err)

	topics := topic.NewMemoryStore(topic.Seed())
	library := assets.NewLibraryFS(fstest.MapFS{"A.png": {Data: []byte("png")}}, fstest.MapFS{})

	f.engine = dialogue.NewEngine(dialogue.Deps{
		Store:      f.store,
		Topics:     topics,
		Prompts:    ai.NewPersonaPromptManager(topics),
		Translator: translate.NewAdapter(f.translator),
		Completer:  ai.NewServiceWithModel(f.chat),
		Timeouts:   detector,
		Visuals:    visual.NewResolver(library, "/static/img/alphabets"),
		Now:        func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) start(t *testing.T, id string, params dialogue.StartParams) *dialogue.StartResult {
	t.Helper()
	res, err := f.engine.StartSession(context.Background(), id, params)
	require.NoError(t, err)
	return res
}

func (f *fixture) session(t *testing.T, id string) session.Session {
	t.Helper()
	sess, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	t.Run("transcript holds only the persona instruction", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res := f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "ABCD", Language: "English"})

		assert.Equal(t, "Welcome Mia! Tina Aunty is ready to chat about ABCD!", res.Message)
		sess := f.session(t, "s1")
		require.Len(t, sess.Transcript, 1)
		assert.Equal(t, session.RoleSystem, sess.Transcript[0].Role)
		assert.Equal(t,
			"You are Tina Aunty, a cheerful, loving teacher for Mia. Respond in English. We are learning ABCD. Go one letter at a time. Say the letter and a word for it.",
			sess.Transcript[0].Content)
		assert.Equal(t, session.FirstPage, sess.CurrentPage)
		assert.Equal(t, fixedNow, sess.StartedAt)
		assert.Empty(t, f.chat.Calls(), "start must not call the model")
	})

	t.Run("cue phrases are personalized", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res := f.start(t, "s1", dialogue.StartParams{ChildName: "Ravi"})

		assert.Equal(t, "Hi Ravi! Tina Aunty is here to learn with you.", res.Cues.Greeting)
		assert.Equal(t, "Bye-bye Ravi! Tina Aunty will see you next time!", res.Cues.Farewell)
		assert.Equal(t, "Okay, take your time. Tina Aunty will wait for you.", res.Cues.TimeoutAck)
	})

	t.Run("defaults for blank selections", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.start(t, "s1", dialogue.StartParams{Topic: "Books", Language: "Klingon"})

		sess := f.session(t, "s1")
		assert.Equal(t, session.DefaultChildName, sess.ChildName)
		assert.Equal(t, topic.Books, sess.Topic)
		assert.Equal(t, topic.DefaultBook, sess.BookName)
		assert.Equal(t, session.English, sess.Language)
		assert.Contains(t, sess.Transcript[0].Content, "We are reading the book 'Gruffalo.pdf'.")
	})

	t.Run("original labels are accepted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res := f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "Numbers 1-10"})

		assert.Equal(t, "Welcome Mia! Tina Aunty is ready to chat about Numbers 1-10!", res.Message)
		assert.Equal(t, topic.Numbers1to10, f.session(t, "s1").Topic)
	})

	t.Run("unknown topic keeps base persona only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res := f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "Dinosaurs"})

		assert.Equal(t, "Welcome Mia! Tina Aunty is ready to chat about Dinosaurs!", res.Message)
		assert.Equal(t,
			"You are Tina Aunty, a cheerful, loving teacher for Mia. Respond in English. ",
			f.session(t, "s1").Transcript[0].Content)
	})

	t.Run("restart replaces the previous session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia"})
		_, err := f.engine.Turn(ctx, "s1", "hello")
		require.NoError(t, err)
		require.Len(t, f.session(t, "s1").Transcript, 3)

		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "Rhymes"})

		sess := f.session(t, "s1")
		assert.Len(t, sess.Transcript, 1)
		assert.Equal(t, topic.Rhymes, sess.Topic)
	})

	t.Run("identity is required", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.engine.StartSession(context.Background(), " ", dialogue.StartParams{})
		assert.ErrorIs(t, err, dialogue.ErrSessionIDRequired)
	})
}

func TestTurn(t *testing.T) {
	t.Parallel()

	t.Run("english turn skips translation and sends the whole transcript", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "ABCD"})

		res, err := f.engine.Turn(ctx, "s1", "What comes first?")
		require.NoError(t, err)

		assert.Equal(t, "A is for Apple. Can you say A?", res.Response)
		assert.False(t, res.Fallback)
		assert.Empty(t, f.translator.Texts())

		calls := f.chat.Calls()
		require.Len(t, calls, 1)
		require.Len(t, calls[0].Input, 2)
		assert.Equal(t, schema.System, calls[0].Input[0].Role)
		assert.Equal(t, schema.User, calls[0].Input[1].Role)
		assert.Equal(t, "What comes first?", calls[0].Input[1].Content)
		require.NotNil(t, calls[0].Options.Temperature)
		assert.InDelta(t, 0.6, float64(*calls[0].Options.Temperature), 1e-6)
		require.NotNil(t, calls[0].Options.MaxTokens)
		assert.Equal(t, 300, *calls[0].Options.MaxTokens)

		sess := f.session(t, "s1")
		require.Len(t, sess.Transcript, 3)
		assert.Equal(t, session.UserTurn("What comes first?"), sess.Transcript[1])
		assert.Equal(t, session.AssistantTurn("A is for Apple. Can you say A?"), sess.Transcript[2])
	})

	t.Run("history accumulates across turns", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia"})

		for _, msg := range []string{"one", "two", "three"} {
			_, err := f.engine.Turn(ctx, "s1", msg)
			require.NoError(t, err)
		}

		assert.Len(t, f.session(t, "s1").Transcript, 7)
		calls := f.chat.Calls()
		require.Len(t, calls, 3)
		assert.Len(t, calls[2].Input, 6)
		assert.Equal(t, "three", calls[2].Input[5].Content)
	})

	t.Run("non-english utterance is translated before completion", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.start(t, "s1", dialogue.StartParams{ChildName: "Aarav", Language: "Hindi"})

		_, err := f.engine.Turn(ctx, "s1", "नमस्ते")
		require.NoError(t, err)

		assert.Equal(t, []string{"नमस्ते"}, f.translator.Texts())
		assert.Equal(t, []string{"translate", "complete"}, f.events.all())
		sess := f.session(t, "s1")
		assert.Equal(t, session.UserTurn("translated: नमस्ते"), sess.Transcript[1])
		assert.Contains(t, sess.Transcript[0].Content, "Respond in Hindi.")
	})

	t.Run("translation failure keeps the original text", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.translator.TranslateFn = func(context.Context, string, string) (string, error) {
			return "", errors.New("translator down")
		}
		f.start(t, "s1", dialogue.StartParams{ChildName: "Aarav", Language: "Hindi"})

		res, err := f.engine.Turn(ctx, "s1", "नमस्ते")
		require.NoError(t, err)

		assert.False(t, res.Fallback)
		assert.Equal(t, session.UserTurn("नमस्ते"), f.session(t, "s1").Transcript[1])
		require.Len(t, f.chat.Calls(), 1)
	})

	t.Run("completion failure records the apology", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.chat.GenerateFn = mock.Fail(errors.New("provider unavailable"))
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia"})

		res, err := f.engine.Turn(ctx, "s1", "hello")
		require.NoError(t, err)

		assert.True(t, res.Fallback)
		assert.Equal(t, dialogue.ApologyMessage, res.Response)
		sess := f.session(t, "s1")
		require.Len(t, sess.Transcript, 3)
		assert.Equal(t, session.AssistantTurn("Oops! Tina Aunty had a hiccup!"), sess.Transcript[2])
	})

	t.Run("blank utterance re-prompts without side effects", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.start(t, "s1", dialogue.StartParams{ChildName: "Aarav", Language: "Hindi"})

		for _, blank := range []string{"", "   ", "\n\t"} {
			res, err := f.engine.Turn(ctx, "s1", blank)
			require.NoError(t, err)
			assert.Equal(t, "Tina Aunty didn't hear that. Can you try again?", res.Response)
		}

		assert.Len(t, f.session(t, "s1").Transcript, 1)
		assert.Empty(t, f.translator.Texts())
		assert.Empty(t, f.chat.Calls())
	})

	t.Run("turn without a session starts a default one", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.engine.Turn(context.Background(), "fresh", "hi")
		require.NoError(t, err)

		sess := f.session(t, "fresh")
		assert.Equal(t, session.DefaultChildName, sess.ChildName)
		assert.Equal(t, topic.ABCD, sess.Topic)
		assert.Len(t, sess.Transcript, 3)
	})

	t.Run("abcd replies carry visual hints", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "ABCD"})

		res, err := f.engine.Turn(context.Background(), "s1", "next letter")
		require.NoError(t, err)

		assert.Equal(t, "/static/img/alphabets/A.png", res.ImageURL)
		assert.Equal(t, visual.Whiteboard{Letter: "A", Word: "Apple", Text: "A is for Apple"}, res.Whiteboard)
	})

	t.Run("other topics get no image", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "Rhymes"})

		res, err := f.engine.Turn(context.Background(), "s1", "sing")
		require.NoError(t, err)
		assert.Empty(t, res.ImageURL)
	})

	t.Run("sessions are isolated per identity", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.start(t, "a", dialogue.StartParams{ChildName: "Mia"})
		f.start(t, "b", dialogue.StartParams{ChildName: "Ravi", Topic: "Rhymes"})

		_, err := f.engine.Turn(ctx, "a", "hello")
		require.NoError(t, err)

		assert.Len(t, f.session(t, "a").Transcript, 3)
		assert.Len(t, f.session(t, "b").Transcript, 1)
	})
}

func TestCheckTimeout(t *testing.T) {
	t.Parallel()

	t.Run("classifier verdict is returned and transcript untouched", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.classifier.GenerateFn = mock.Reply("True")
		f.start(t, "s1", dialogue.StartParams{ChildName: "Mia"})

		isTimeout, err := f.engine.CheckTimeout(ctx, "s1", "I need to go to the toilet")
		require.NoError(t, err)

		assert.True(t, isTimeout)
		assert.Len(t, f.session(t, "s1").Transcript, 1)
		assert.Empty(t, f.chat.Calls())
		calls := f.classifier.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "Is the following a timeout request? 'I need to go to the toilet'", calls[0].Input[1].Content)
	})

	t.Run("non-english utterance is translated first", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.start(t, "s1", dialogue.StartParams{ChildName: "Aarav", Language: "Hindi"})

		isTimeout, err := f.engine.CheckTimeout(context.Background(), "s1", "मुझे बाथरूम जाना है")
		require.NoError(t, err)

		assert.False(t, isTimeout)
		assert.Equal(t, []string{"मुझे बाथरूम जाना है"}, f.translator.Texts())
		calls := f.classifier.Calls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].Input[1].Content, "translated: ")
	})

	t.Run("no session means english", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.engine.CheckTimeout(context.Background(), "nobody", "bye")
		require.NoError(t, err)

		assert.Empty(t, f.translator.Texts())
		_, err = f.store.Get(context.Background(), "nobody")
		assert.ErrorIs(t, err, sessionservice.ErrSessionNotFound)
	})

	t.Run("classifier failure is not a timeout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.classifier.GenerateFn = mock.Fail(errors.New("boom"))

		isTimeout, err := f.engine.CheckTimeout(context.Background(), "s1", "toilet")
		require.NoError(t, err)
		assert.False(t, isTimeout)
	})
}

func TestReset(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, "s1", dialogue.StartParams{ChildName: "Mia", Topic: "Rhymes"})

	msg, err := f.engine.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Session reset.", msg)

	_, err = f.engine.Session(ctx, "s1")
	assert.ErrorIs(t, err, sessionservice.ErrSessionNotFound)

	msg, err = f.engine.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, dialogue.ResetMessage, msg)
}
