package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "the hobbit", Fold("  The   HOBBIT "))
	assert.Equal(t, Fold("STRASSE"), Fold("straße"))
	assert.Equal(t, "fi", Fold("ﬁ"))
}

func TestPlain_ConvertsHTML(t *testing.T) {
	got := Plain("<p>A <strong>hobbit</strong> goes on an adventure.</p>")
	assert.Equal(t, "A hobbit goes on an adventure.", got)
}

func TestPlain_LeavesTextAlone(t *testing.T) {
	assert.Equal(t, "Just text", Plain("  Just text "))
}

func TestSnippet(t *testing.T) {
	s := "In a hole in the ground there lived a hobbit."
	assert.Equal(t, s, Snippet(s, 200))

	short := Snippet(s, 20)
	assert.Equal(t, "In a hole in the…", short)
}
