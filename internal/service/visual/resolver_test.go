package visual_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	"github.com/aadu/tina-aunty/backend/internal/service/assets"
	"github.com/aadu/tina-aunty/backend/internal/service/visual"
)

func newResolver() *visual.Resolver {
	alphabets := fstest.MapFS{
		"A.png": {Data: []byte("a")},
		"B.png": {Data: []byte("b")},
	}
	return visual.NewResolver(assets.NewLibraryFS(alphabets, fstest.MapFS{}), "/static/img/alphabets/")
}

func TestVisualAid(t *testing.T) {
	t.Parallel()
	r := newResolver()

	url, ok := r.VisualAid(topic.ABCD, "B is for Ball! Can you say B?")
	assert.True(t, ok)
	assert.Equal(t, "/static/img/alphabets/B.png", url)

	t.Run("only ABCD sessions get images", func(t *testing.T) {
		_, ok := r.VisualAid(topic.Rhymes, "A is for Apple")
		assert.False(t, ok)
	})

	t.Run("only the first letter is considered", func(t *testing.T) {
		_, ok := r.VisualAid(topic.ABCD, "Z is for Zebra, and A is for Apple")
		assert.False(t, ok)
	})

	t.Run("letters inside words are ignored", func(t *testing.T) {
		_, ok := r.VisualAid(topic.ABCD, "Apple and Ball")
		assert.False(t, ok)
	})

	t.Run("nil resolver", func(t *testing.T) {
		var nilResolver *visual.Resolver
		_, ok := nilResolver.VisualAid(topic.ABCD, "A")
		assert.False(t, ok)
	})
}

func TestExtractWhiteboard(t *testing.T) {
	t.Parallel()

	wb := visual.ExtractWhiteboard("Great job! a is for apple, crunchy and red.")
	assert.Equal(t, visual.Whiteboard{Letter: "A", Word: "apple", Text: "A is for apple"}, wb)

	wb = visual.ExtractWhiteboard("  Twinkle twinkle little star. How I wonder what you are!")
	assert.Equal(t, visual.Whiteboard{Text: "Twinkle twinkle little star."}, wb)

	wb = visual.ExtractWhiteboard("Let's count together")
	assert.Equal(t, "Let's count together", wb.Text)
}
