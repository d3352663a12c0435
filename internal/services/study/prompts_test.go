package study

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_CountsRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "héé", truncate("héééé", 3))
}

func TestNotesPrompt_TruncatesContext(t *testing.T) {
	body := strings.Repeat("x", contextLimit+10)
	prompt := notesPrompt("Topic", body)

	assert.True(t, strings.HasPrefix(prompt, "Generate structured, easy-to-read notes in Markdown format for the section titled \"Topic\"."))
	assert.Contains(t, prompt, "Context:\n---\n"+strings.Repeat("x", contextLimit)+"\n---")
	assert.NotContains(t, prompt, strings.Repeat("x", contextLimit+1))
}

func TestScriptPrompt_UsesLargeContextLimit(t *testing.T) {
	body := strings.Repeat("y", contextLimit+10)
	assert.Contains(t, scriptPrompt("Topic", body), body)
}

func TestRephrasePrompt(t *testing.T) {
	prompt := rephrasePrompt("Entropy grows.")
	assert.Contains(t, prompt, "Original Text:\n---\nEntropy grows.\n---")
	assert.True(t, strings.HasSuffix(prompt, "Simplified Version (in Markdown format):"))
}

func TestCleanHTML(t *testing.T) {
	md, err := CleanHTML(`<html><head><style>p{}</style></head><body>
		<header>Site</header><article><h2>Heading</h2><p>Some <strong>bold</strong> text.</p></article>
		<footer>Copyright</footer></body></html>`)
	assert.NoError(t, err)
	assert.Contains(t, md, "## Heading")
	assert.Contains(t, md, "**bold**")
	assert.NotContains(t, md, "Copyright")
	assert.NotContains(t, md, "Site")
}

func TestConformsTo(t *testing.T) {
	assert.True(t, conformsTo(courseDocumentSchema, `{"courseTitle": "a", "sectionTitle": "b", "notes": "c"}`))
	assert.False(t, conformsTo(courseDocumentSchema, `{"courseTitle": "a"}`))
	assert.False(t, conformsTo(courseDocumentSchema, `not json`))
}
