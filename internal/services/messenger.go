package services

import (
	"context"

	"github.com/vharkusha/textract-bot/internal/core/conversation"
)

// Messenger is the outbound side of the chat transport. The services layer
// only ever needs these three operations, so handlers and delivery stay
// testable without a live bot connection.
type Messenger interface {
	// SendText delivers a plain text message, optionally attaching a reply
	// keyboard described by kb.
	SendText(ctx context.Context, userID int64, text string, kb conversation.KeyboardSpec) error

	// SendDocument uploads the file at path to the user under filename.
	SendDocument(ctx context.Context, userID int64, path, filename string) error

	// SendTyping shows the "typing" chat action while work is in flight.
	SendTyping(ctx context.Context, userID int64) error
}
