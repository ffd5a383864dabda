package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/core/staging"
	"github.com/vharkusha/textract-bot/internal/locale"
)

// Handler receives decoded inbound events. Implemented by the bot service;
// the adapter never touches sessions directly.
type Handler interface {
	HandleStart(ctx context.Context, userID int64)
	HandleText(ctx context.Context, userID int64, text string)
	HandleDocument(ctx context.Context, userID int64, name string, size int64, r io.Reader)
	HandleNonDocument(ctx context.Context, userID int64)
}

// Client connects the bot to Telegram over long polling and implements the
// outbound Messenger side for the services layer.
type Client struct {
	api        *tgbotapi.BotAPI
	catalog    *locale.Catalog
	handler    Handler
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(token string, catalog *locale.Catalog) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Client{
		api:        api,
		catalog:    catalog,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     log.With().Str("component", "telegram").Logger(),
	}, nil
}

// SetHandler wires the inbound event sink. Must be called before Run.
func (c *Client) SetHandler(h Handler) { c.handler = h }

// Username returns the bot account name reported by Telegram.
func (c *Client) Username() string { return c.api.Self.UserName }

// Run consumes updates until ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.api.GetUpdatesChan(u)

	c.logger.Info().Str("username", c.Username()).Msg("long polling started")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.handleUpdate(ctx, update)
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	userID := msg.Chat.ID

	switch {
	case msg.IsCommand():
		if msg.Command() == "start" {
			c.handler.HandleStart(ctx, userID)
		}
	case msg.Document != nil:
		c.handleDocument(ctx, userID, msg.Document)
	case len(msg.Photo) > 0, msg.Video != nil, msg.Audio != nil, msg.Voice != nil, msg.Sticker != nil:
		c.handler.HandleNonDocument(ctx, userID)
	case msg.Text != "":
		c.handler.HandleText(ctx, userID, msg.Text)
	}
}

func (c *Client) handleDocument(ctx context.Context, userID int64, doc *tgbotapi.Document) {
	size := int64(doc.FileSize)
	// Oversized files are rejected on size alone before the reader is
	// touched, so skip the download entirely.
	if size > staging.MaxFileSize {
		c.handler.HandleDocument(ctx, userID, doc.FileName, size, bytes.NewReader(nil))
		return
	}

	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		c.logger.Error().Err(err).Int64("user_id", userID).Str("file", doc.FileName).Msg("file lookup failed")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("download request build failed")
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Int64("user_id", userID).Str("file", doc.FileName).Msg("download failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("file", doc.FileName).Msg("download rejected")
		return
	}

	c.handler.HandleDocument(ctx, userID, doc.FileName, size, resp.Body)
}

// SendText implements services.Messenger.
func (c *Client) SendText(_ context.Context, userID int64, text string, kb conversation.KeyboardSpec) error {
	msg := tgbotapi.NewMessage(userID, text)
	if markup := renderKeyboard(c.catalog, kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := c.api.Send(msg)
	return err
}

// SendDocument implements services.Messenger.
func (c *Client) SendDocument(_ context.Context, userID int64, path, filename string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(userID, tgbotapi.FileReader{Name: filename, Reader: f})
	_, err = c.api.Send(doc)
	return err
}

// SendTyping implements services.Messenger.
func (c *Client) SendTyping(_ context.Context, userID int64) error {
	_, err := c.api.Request(tgbotapi.NewChatAction(userID, tgbotapi.ChatTyping))
	return err
}
