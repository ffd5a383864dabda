package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/locale"
)

func testAssembler(t *testing.T) *Assembler {
	t.Helper()
	catalog, err := locale.Load()
	require.NoError(t, err)
	return NewAssembler(catalog)
}

func TestSplitTextShortInputIsUntouched(t *testing.T) {
	chunks := SplitText("hello world", 100)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitTextReassemblesLosslessly(t *testing.T) {
	texts := []string{
		strings.Repeat("word ", 2000),
		strings.Repeat("line one\nline two\n", 800),
		strings.Repeat("x", 9000),
		strings.Repeat("привіт світ ", 1500),
	}
	for _, text := range texts {
		chunks := SplitText(text, 4071)
		assert.Equal(t, text, strings.Join(chunks, ""))
		for i, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 4071, "chunk %d", i)
			assert.NotEmpty(t, c)
		}
	}
}

func TestSplitTextPrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("a", 3000) + "\n" + strings.Repeat("b", 3000)
	chunks := SplitText(text, 4071)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 3000)+"\n", chunks[0])
	assert.Equal(t, strings.Repeat("b", 3000), chunks[1])
}

func TestSplitTextFallsBackToSpaceBoundary(t *testing.T) {
	text := strings.Repeat("a", 3000) + " " + strings.Repeat("b", 3000)
	chunks := SplitText(text, 4071)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 3000)+" ", chunks[0])
}

func TestSplitTextHardCutsWithoutBoundaries(t *testing.T) {
	chunks := SplitText(strings.Repeat("x", 5000), 4071)
	require.Len(t, chunks, 2)
	assert.Equal(t, 4071, len([]rune(chunks[0])))
	assert.Equal(t, 929, len([]rune(chunks[1])))
}

func TestSplitTextIgnoresEarlyBoundaries(t *testing.T) {
	// The only newline sits before the halfway point, so it must not be
	// used as a split.
	text := "ab\n" + strings.Repeat("c", 5000)
	chunks := SplitText(text, 4071)
	require.Len(t, chunks, 2)
	assert.Equal(t, 4071, len([]rune(chunks[0])))
}

func TestSplitTextNeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("ї", 5000)
	for _, c := range SplitText(text, 4071) {
		assert.True(t, strings.HasPrefix(c, "ї"))
		assert.Equal(t, 0, strings.Count(c, "�"))
	}
}

func TestInlineMessagesShortText(t *testing.T) {
	a := testAssembler(t)
	msgs := a.InlineMessages("en", []extract.Entry{{Key: "scan.png", Text: "hello"}})
	require.Len(t, msgs, 2)
	assert.Equal(t, "📄 scan.png", msgs[0])
	assert.Equal(t, "hello", msgs[1])
}

func TestInlineMessagesEmptyTextNotice(t *testing.T) {
	a := testAssembler(t)
	msgs := a.InlineMessages("en", []extract.Entry{{Key: "scan.png", Text: "  \n\t "}})
	require.Len(t, msgs, 2)
	assert.Equal(t, "No text found in this file.", msgs[1])
}

func TestInlineMessagesFailedEntryNotice(t *testing.T) {
	a := testAssembler(t)
	msgs := a.InlineMessages("en", []extract.Entry{{Key: "scan.png", Err: assert.AnError}})
	require.Len(t, msgs, 2)
	assert.Equal(t, "Could not process file scan.png.", msgs[1])
}

func TestInlineMessagesChunksLongTextWithTrueTotals(t *testing.T) {
	a := testAssembler(t)
	text := strings.Repeat("x", 5000)
	msgs := a.InlineMessages("en", []extract.Entry{{Key: "big.pdf", Text: text}})

	require.Len(t, msgs, 3)
	assert.Equal(t, "📄 big.pdf", msgs[0])
	assert.True(t, strings.HasPrefix(msgs[1], "Part 1/2\n"))
	assert.True(t, strings.HasPrefix(msgs[2], "Part 2/2\n"))

	for _, m := range msgs {
		assert.LessOrEqual(t, len([]rune(m)), MaxMessageLength)
	}

	// Stripping the part headers reassembles the original text.
	var rebuilt strings.Builder
	for _, m := range msgs[1:] {
		_, chunk, ok := strings.Cut(m, "\n")
		require.True(t, ok)
		rebuilt.WriteString(chunk)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestInlineMessagesMixedEntriesKeepOrder(t *testing.T) {
	a := testAssembler(t)
	msgs := a.InlineMessages("en", []extract.Entry{
		{Key: "a.png", Text: "first"},
		{Key: "b.png", Err: assert.AnError},
		{Key: "c.png", Text: "third"},
	})
	require.Len(t, msgs, 6)
	assert.Equal(t, "📄 a.png", msgs[0])
	assert.Equal(t, "first", msgs[1])
	assert.Equal(t, "📄 b.png", msgs[2])
	assert.Equal(t, "Could not process file b.png.", msgs[3])
	assert.Equal(t, "📄 c.png", msgs[4])
	assert.Equal(t, "third", msgs[5])
}

func TestInlineMessagesLocalized(t *testing.T) {
	a := testAssembler(t)
	msgs := a.InlineMessages("uk", []extract.Entry{{Key: "scan.png", Text: " "}})
	require.Len(t, msgs, 2)
	assert.Equal(t, "Текст у файлі не знайдено.", msgs[1])
}
