package services

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/core/assemble"
	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/core/jobs"
	"github.com/vharkusha/textract-bot/internal/core/staging"
	"github.com/vharkusha/textract-bot/internal/locale"
	"github.com/vharkusha/textract-bot/internal/session"
)

// JobTypeDeliverResults is the queue job that runs one extraction and
// delivery cycle for a user.
const JobTypeDeliverResults = "deliver_results"

// Extractor runs text extraction over a batch of staged files. Results come
// back one entry per input, in input order.
type Extractor interface {
	ExtractAll(ctx context.Context, files []extract.File, lang string) []extract.Entry
}

// DeliveryService owns the end of a cycle: extract text from everything the
// user staged, deliver it the way they asked, then tear the staging area down
// and put the user back at the main menu. Staged files are cleaned up exactly
// once per cycle whether the cycle succeeds, fails or panics; the only path
// that skips cleanup is the early "nothing uploaded" reply, where there is
// nothing to clean.
type DeliveryService struct {
	store     *session.Store
	catalog   *locale.Catalog
	messenger Messenger
	extractor Extractor
	assembler *assemble.Assembler
	pool      *jobs.Pool
	logger    zerolog.Logger
}

func NewDeliveryService(
	store *session.Store,
	catalog *locale.Catalog,
	messenger Messenger,
	extractor Extractor,
	assembler *assemble.Assembler,
	pool *jobs.Pool,
) *DeliveryService {
	return &DeliveryService{
		store:     store,
		catalog:   catalog,
		messenger: messenger,
		extractor: extractor,
		assembler: assembler,
		pool:      pool,
		logger:    log.With().Str("component", "delivery_service").Logger(),
	}
}

// Type implements jobs.Handler.
func (s *DeliveryService) Type() string { return JobTypeDeliverResults }

// Handle implements jobs.Handler.
func (s *DeliveryService) Handle(ctx context.Context, job *jobs.Job) error {
	s.RunCycle(ctx, job.UserID)
	return nil
}

// Enqueue schedules a delivery cycle for the user. If the queue is full the
// user gets the generic failure notice and their cycle is torn down so they
// are not left stuck mid-conversation.
func (s *DeliveryService) Enqueue(userID int64) {
	if _, err := s.pool.Enqueue(JobTypeDeliverResults, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("enqueue failed")
		lang := s.interfaceLang(userID)
		s.sendText(userID, s.catalog.Text(lang, "processing_error"), conversation.KeyboardSpec{})
		s.finishCycle(userID, lang)
	}
}

// RunCycle executes one full extraction and delivery pass for the user.
func (s *DeliveryService) RunCycle(ctx context.Context, userID int64) {
	var (
		files    []extract.File
		ocrLang  string
		delivery session.DeliveryChoice
		lang     string
	)
	s.store.View(userID, func(sess *session.UserSession) {
		lang = sess.InterfaceLang
		ocrLang = sess.OCRLang
		delivery = sess.Delivery
		for _, f := range sess.Files {
			files = append(files, extract.File{
				Name: f.OriginalName,
				Path: f.Path,
				Kind: f.Kind,
			})
		}
	})

	if len(files) == 0 {
		s.sendText(userID, s.catalog.Text(lang, "please_upload_file"), conversation.KeyboardSpec{})
		return
	}

	// Deferred in this order so a panic is reported to the user before the
	// menu is re-displayed by finishCycle.
	defer s.finishCycle(userID, lang)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Int64("user_id", userID).Msg("delivery cycle panicked")
			s.sendText(userID, s.catalog.Text(lang, "processing_error"), conversation.KeyboardSpec{})
		}
	}()

	s.sendText(userID, s.catalog.Text(lang, "processing_started"), conversation.KeyboardSpec{})
	if err := s.messenger.SendTyping(ctx, userID); err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Msg("typing action failed")
	}

	entries := s.extractor.ExtractAll(ctx, files, ocrLang)
	if extract.AllEmpty(entries) {
		s.sendText(userID, s.catalog.Text(lang, "no_text_extracted"), conversation.KeyboardSpec{})
		return
	}

	var err error
	if delivery == session.DeliveryFile {
		err = s.deliverFiles(ctx, userID, lang, entries)
	} else {
		err = s.deliverInline(ctx, userID, lang, entries)
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("delivery failed")
		s.sendText(userID, s.catalog.Text(lang, "processing_error"), conversation.KeyboardSpec{})
	}
}

func (s *DeliveryService) deliverInline(ctx context.Context, userID int64, lang string, entries []extract.Entry) error {
	for _, msg := range s.assembler.InlineMessages(lang, entries) {
		if err := s.messenger.SendText(ctx, userID, msg, conversation.KeyboardSpec{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *DeliveryService) deliverFiles(ctx context.Context, userID int64, lang string, entries []extract.Entry) error {
	outDir, err := os.MkdirTemp("", "ocr_output_"+uuid.NewString()+"_")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			s.logger.Warn().Err(err).Str("dir", outDir).Msg("output dir removal failed")
		}
	}()

	outputs, err := s.assembler.WriteFiles(entries, outDir)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		if out.Err != nil {
			s.sendText(userID, s.catalog.Textf(lang, "file_processing_error", out.Key), conversation.KeyboardSpec{})
			continue
		}
		if err := s.messenger.SendDocument(ctx, userID, out.Path, out.Name); err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Str("file", out.Name).Msg("document send failed")
			s.sendText(userID, s.catalog.Textf(lang, "file_read_error", out.Key), conversation.KeyboardSpec{})
		}
	}
	return nil
}

// finishCycle removes the staging area, resets the session for the next
// cycle and puts the recognition language menu back on screen.
func (s *DeliveryService) finishCycle(userID int64, lang string) {
	s.store.Update(userID, func(sess *session.UserSession) {
		if err := staging.Cleanup(sess); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("staging cleanup failed")
		}
	})
	s.sendText(userID, s.catalog.Text(lang, "choose_alphabet"), conversation.KeyboardSpec{
		Kind: conversation.KeyboardMain,
		Lang: lang,
	})
}

func (s *DeliveryService) interfaceLang(userID int64) string {
	lang := locale.DefaultLanguage
	s.store.View(userID, func(sess *session.UserSession) {
		lang = sess.InterfaceLang
	})
	return lang
}

// sendText delivers fire-and-forget notices. It deliberately does not use
// the job context: teardown notices must still reach the user after a job
// timeout.
func (s *DeliveryService) sendText(userID int64, text string, kb conversation.KeyboardSpec) {
	if err := s.messenger.SendText(context.Background(), userID, text, kb); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("send failed")
	}
}
