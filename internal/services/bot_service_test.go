package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vharkusha/textract-bot/internal/core/assemble"
	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/core/jobs"
	"github.com/vharkusha/textract-bot/internal/core/staging"
	"github.com/vharkusha/textract-bot/internal/locale"
	"github.com/vharkusha/textract-bot/internal/session"
)

type botFixture struct {
	store     *session.Store
	messenger *fakeMessenger
	extractor *fakeExtractor
	pool      *jobs.Pool
	bot       *BotService
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	catalog, err := locale.Load()
	require.NoError(t, err)

	pipeline, err := staging.NewPipeline(filepath.Join(t.TempDir(), "staging"), 0)
	require.NoError(t, err)

	f := &botFixture{
		store:     session.NewStore("ukr"),
		messenger: &fakeMessenger{},
		extractor: &fakeExtractor{},
		pool:      jobs.NewPool(jobs.Config{Concurrency: 1, QueueSize: 4}),
	}
	delivery := NewDeliveryService(f.store, catalog, f.messenger, f.extractor, assemble.NewAssembler(catalog), f.pool)
	f.pool.RegisterHandler(delivery)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.pool.Start(ctx))
	t.Cleanup(func() {
		cancel()
		f.pool.Stop()
	})

	f.bot = NewBotService(f.store, conversation.NewRouter(catalog), pipeline, delivery, catalog, f.messenger)
	return f
}

// onboarded moves user 1 past onboarding with the English interface.
func (f *botFixture) onboarded() {
	f.store.Update(1, func(s *session.UserSession) {
		s.InterfaceLang = locale.LangEnglish
		s.State = session.StateAwaitingOCRLanguage
	})
}

func (f *botFixture) waitForMessage(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, m := range f.messenger.messages() {
			if m == want {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "expected message %q, got %v", want, f.messenger.messages())
}

func TestHandleStartSendsOnboardingPrompt(t *testing.T) {
	f := newBotFixture(t)
	f.bot.HandleStart(context.Background(), 1)
	f.waitForMessage(t, "Оберіть мову інтерфейсу:")
}

func TestHandleDocumentFirstUploadPromptsDeliveryChoice(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	f.bot.HandleDocument(context.Background(), 1, "scan.png", 3, strings.NewReader("img"))
	f.waitForMessage(t, "File received. How should I deliver the extracted text?")

	// The delivery keyboard rides on the prompt.
	f.messenger.mu.Lock()
	assert.Contains(t, f.messenger.kinds, conversation.KeyboardDelivery)
	f.messenger.mu.Unlock()

	f.store.View(1, func(s *session.UserSession) {
		require.Len(t, s.Files, 1)
		assert.Equal(t, session.StateAwaitingDeliveryChoice, s.State)
	})
}

func TestHandleDocumentFollowUpUploadsAreSilent(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	f.bot.HandleDocument(context.Background(), 1, "a.png", 1, strings.NewReader("a"))
	f.bot.HandleDocument(context.Background(), 1, "b.png", 1, strings.NewReader("b"))
	f.bot.HandleDocument(context.Background(), 1, "c.png", 1, strings.NewReader("c"))

	require.Eventually(t, func() bool {
		var n int
		f.store.View(1, func(s *session.UserSession) { n = len(s.Files) })
		return n == 3
	}, 5*time.Second, 10*time.Millisecond)

	assert.Len(t, f.messenger.messages(), 1)
}

func TestHandleDocumentRejectsOversized(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	f.bot.HandleDocument(context.Background(), 1, "big.pdf", staging.MaxFileSize+1, strings.NewReader(""))
	f.waitForMessage(t, "File big.pdf is too large. The maximum size is 10 MB.")

	f.store.View(1, func(s *session.UserSession) {
		assert.Empty(t, s.Files)
		assert.Equal(t, session.StateAwaitingOCRLanguage, s.State)
	})
}

func TestHandleDocumentRejectsUnsupportedFormat(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	f.bot.HandleDocument(context.Background(), 1, "notes.txt", 4, strings.NewReader("text"))
	f.waitForMessage(t, "File format of notes.txt is not supported.")
}

func TestHandleNonDocumentAsksForDocument(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	f.bot.HandleNonDocument(context.Background(), 1)
	f.waitForMessage(t, "Please send the file as a document.")
}

func TestDeliveryChoiceRunsFullCycle(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()
	f.extractor.entries = []extract.Entry{{Key: "scan.png", Text: "extracted"}}

	f.bot.HandleDocument(context.Background(), 1, "scan.png", 3, strings.NewReader("img"))
	f.waitForMessage(t, "File received. How should I deliver the extracted text?")

	f.bot.HandleText(context.Background(), 1, "As a message")

	f.waitForMessage(t, "extracted")
	f.waitForMessage(t, "Choose the text recognition language:")

	f.store.View(1, func(s *session.UserSession) {
		assert.Empty(t, s.Files)
		assert.Empty(t, s.StagingDir)
	})
}

func TestHandleTextKeepsPerUserOrder(t *testing.T) {
	f := newBotFixture(t)
	f.onboarded()

	// Enter multi-select, add two languages, confirm: the outcome depends
	// on strict arrival-order processing.
	f.bot.HandleText(context.Background(), 1, "Multiple languages")
	f.bot.HandleText(context.Background(), 1, "English")
	f.bot.HandleText(context.Background(), 1, "French")
	f.bot.HandleText(context.Background(), 1, "Confirm")

	f.waitForMessage(t, "Selected languages: english, french")
	f.store.View(1, func(s *session.UserSession) {
		assert.Equal(t, "eng+fra", s.OCRLang)
	})
}
