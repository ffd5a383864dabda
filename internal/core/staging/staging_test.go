package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/session"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(filepath.Join(t.TempDir(), "staging"), 0)
	require.NoError(t, err)
	return p
}

func testSession() *session.UserSession {
	return &session.UserSession{
		UserID:        42,
		State:         session.StateAwaitingOCRLanguage,
		InterfaceLang: "en",
		OCRLang:       "ukr",
	}
}

func TestNewPipelineCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	p, err := NewPipeline(root, 0)
	require.NoError(t, err)

	info, err := os.Stat(p.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStageRejectsOversizedUpload(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	_, _, err := p.Stage(sess, "big.pdf", MaxFileSize+1, strings.NewReader("x"))
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "big.pdf")

	// A rejection must leave the session exactly as it was.
	assert.Empty(t, sess.StagingDir)
	assert.Empty(t, sess.Files)
	assert.Equal(t, session.StateAwaitingOCRLanguage, sess.State)
}

func TestStageRejectsUnsupportedFormat(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	for _, name := range []string{"notes.txt", "archive.zip", "noext", "script.sh"} {
		_, _, err := p.Stage(sess, name, 10, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
	assert.Empty(t, sess.StagingDir)
	assert.Empty(t, sess.Files)
}

func TestStageAcceptsEveryAllowedFormat(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	for ext := range AllowedFormats {
		_, _, err := p.Stage(sess, "doc."+ext, 10, strings.NewReader("x"))
		assert.NoError(t, err, ext)
	}
	assert.Len(t, sess.Files, len(AllowedFormats))
}

func TestStageFirstFileSwitchesToDeliveryChoice(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	staged, first, err := p.Stage(sess, "scan.png", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, session.StateAwaitingDeliveryChoice, sess.State)
	assert.Equal(t, "scan.png", staged.OriginalName)
	assert.Equal(t, extract.KindImage, staged.Kind)

	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// The staging dir lives under the pipeline root and belongs to the user.
	assert.True(t, strings.HasPrefix(staged.Path, p.Root()))
	assert.Contains(t, sess.StagingDir, "ocr_bot_42_")

	_, second, err := p.Stage(sess, "next.pdf", 5, strings.NewReader("x"))
	require.NoError(t, err)
	assert.False(t, second)
}

func TestStageResolvesNameCollisions(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	a, _, err := p.Stage(sess, "scan.png", 1, strings.NewReader("a"))
	require.NoError(t, err)
	b, _, err := p.Stage(sess, "scan.png", 1, strings.NewReader("b"))
	require.NoError(t, err)
	c, _, err := p.Stage(sess, "scan.png", 1, strings.NewReader("c"))
	require.NoError(t, err)

	assert.Equal(t, "scan.png", a.SafeName)
	assert.Equal(t, "scan_1.png", b.SafeName)
	assert.Equal(t, "scan_2.png", c.SafeName)

	// All three files coexist with their own content.
	for i, f := range sess.Files {
		data, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, string(rune('a'+i)), string(data))
	}
}

func TestStageSanitizedCollision(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	// Distinct originals that sanitize to the same safe name.
	a, _, err := p.Stage(sess, "###.pdf", 1, strings.NewReader("a"))
	require.NoError(t, err)
	b, _, err := p.Stage(sess, "файл.pdf", 1, strings.NewReader("b"))
	require.NoError(t, err)

	assert.Equal(t, "file.pdf", a.SafeName)
	assert.Equal(t, "file_1.pdf", b.SafeName)
}

func TestCleanupRemovesStagingAndResetsCycle(t *testing.T) {
	p := testPipeline(t)
	sess := testSession()

	_, _, err := p.Stage(sess, "scan.png", 1, strings.NewReader("a"))
	require.NoError(t, err)
	sess.Delivery = session.DeliveryFile
	dir := sess.StagingDir

	require.NoError(t, Cleanup(sess))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, sess.StagingDir)
	assert.Empty(t, sess.Files)
	assert.Equal(t, session.DeliveryUnset, sess.Delivery)
	assert.Equal(t, session.StateAwaitingOCRLanguage, sess.State)

	// Language preferences survive the reset.
	assert.Equal(t, "en", sess.InterfaceLang)
	assert.Equal(t, "ukr", sess.OCRLang)
}

func TestCleanupWithoutStagedFilesIsSafe(t *testing.T) {
	sess := testSession()
	assert.NoError(t, Cleanup(sess))
	assert.Equal(t, session.StateAwaitingOCRLanguage, sess.State)
}
