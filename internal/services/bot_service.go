package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/core/staging"
	"github.com/vharkusha/textract-bot/internal/locale"
	"github.com/vharkusha/textract-bot/internal/session"
)

// BotService glues inbound chat events to the conversation router and the
// staging pipeline. Events for one user are executed strictly in arrival
// order on a per-user goroutine; events for different users run concurrently.
type BotService struct {
	store     *session.Store
	router    *conversation.Router
	staging   *staging.Pipeline
	delivery  *DeliveryService
	catalog   *locale.Catalog
	messenger Messenger
	logger    zerolog.Logger

	mu        sync.Mutex
	executors map[int64]chan func()
}

func NewBotService(
	store *session.Store,
	router *conversation.Router,
	stagingPipeline *staging.Pipeline,
	delivery *DeliveryService,
	catalog *locale.Catalog,
	messenger Messenger,
) *BotService {
	return &BotService{
		store:     store,
		router:    router,
		staging:   stagingPipeline,
		delivery:  delivery,
		catalog:   catalog,
		messenger: messenger,
		logger:    log.With().Str("component", "bot_service").Logger(),
		executors: make(map[int64]chan func()),
	}
}

// dispatch queues fn on the user's serial executor, creating the executor on
// first contact. The channel is buffered so bursts from one user do not stall
// the transport's update loop.
func (s *BotService) dispatch(userID int64, fn func()) {
	s.mu.Lock()
	ch, ok := s.executors[userID]
	if !ok {
		ch = make(chan func(), 16)
		s.executors[userID] = ch
		go func() {
			for f := range ch {
				f()
			}
		}()
	}
	s.mu.Unlock()
	ch <- fn
}

// HandleStart processes the /start command.
func (s *BotService) HandleStart(ctx context.Context, userID int64) {
	s.dispatch(userID, func() {
		var replies []conversation.Reply
		s.store.Update(userID, func(sess *session.UserSession) {
			replies = s.router.Start(sess)
		})
		s.sendReplies(ctx, userID, replies)
	})
}

// HandleText routes a plain text message through the conversation router and
// kicks off a delivery cycle when the router asks for one.
func (s *BotService) HandleText(ctx context.Context, userID int64, text string) {
	s.dispatch(userID, func() {
		var (
			replies []conversation.Reply
			action  conversation.Action
		)
		s.store.Update(userID, func(sess *session.UserSession) {
			replies, action = s.router.HandleText(sess, text)
		})
		s.sendReplies(ctx, userID, replies)
		if action == conversation.ActionStartDelivery {
			s.delivery.Enqueue(userID)
		}
	})
}

// HandleDocument stages an incoming document. Oversized or unsupported files
// are rejected with a localized notice and leave the session untouched. The
// prompt asking how to deliver results is sent only for the first file of a
// cycle; follow-up uploads are staged silently.
func (s *BotService) HandleDocument(ctx context.Context, userID int64, name string, size int64, r io.Reader) {
	s.dispatch(userID, func() {
		var (
			lang     string
			first    bool
			stageErr error
		)
		s.store.Update(userID, func(sess *session.UserSession) {
			lang = sess.InterfaceLang
			_, first, stageErr = s.staging.Stage(sess, name, size, r)
		})

		switch {
		case errors.Is(stageErr, staging.ErrFileTooLarge):
			s.sendText(ctx, userID, s.catalog.Textf(lang, "file_too_large", name), conversation.KeyboardSpec{})
		case errors.Is(stageErr, staging.ErrUnsupportedFormat):
			s.sendText(ctx, userID, s.catalog.Textf(lang, "unsupported_format", name), conversation.KeyboardSpec{})
		case stageErr != nil:
			s.logger.Error().Err(stageErr).Int64("user_id", userID).Str("file", name).Msg("staging failed")
			s.sendText(ctx, userID, s.catalog.Text(lang, "processing_error"), conversation.KeyboardSpec{})
		case first:
			s.sendText(ctx, userID, s.catalog.Text(lang, "file_uploaded"), conversation.KeyboardSpec{
				Kind: conversation.KeyboardDelivery,
				Lang: lang,
			})
		}
	})
}

// HandleNonDocument answers attachments sent outside the document slot, for
// example compressed photos.
func (s *BotService) HandleNonDocument(ctx context.Context, userID int64) {
	s.dispatch(userID, func() {
		var lang string
		s.store.View(userID, func(sess *session.UserSession) {
			lang = sess.InterfaceLang
		})
		s.sendText(ctx, userID, s.catalog.Text(lang, "not_document"), conversation.KeyboardSpec{})
	})
}

func (s *BotService) sendReplies(ctx context.Context, userID int64, replies []conversation.Reply) {
	for _, r := range replies {
		s.sendText(ctx, userID, r.Text, r.Keyboard)
	}
}

func (s *BotService) sendText(ctx context.Context, userID int64, text string, kb conversation.KeyboardSpec) {
	if err := s.messenger.SendText(ctx, userID, text, kb); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("send failed")
	}
}
