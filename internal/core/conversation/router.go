// Package conversation implements the per-user conversation state machine.
//
// The router is pure logic: given the current session and an incoming text,
// it mutates the session and decides which replies and keyboard intents to
// emit. Input resolution follows a fixed priority order, evaluated top to
// bottom with first match winning; that order is the correctness contract
// for ambiguous input (a string that is both a language name and a menu
// label always resolves the same way).
package conversation

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/locale"
	"github.com/vharkusha/textract-bot/internal/session"
)

// Action tells the caller whether routing triggered work beyond sending
// replies.
type Action int

const (
	ActionNone Action = iota

	// ActionStartDelivery means a delivery method was chosen and the
	// delivery cycle should run for this user.
	ActionStartDelivery
)

// Router routes free text through the conversation state machine.
type Router struct {
	catalog *locale.Catalog
	logger  zerolog.Logger
}

func NewRouter(catalog *locale.Catalog) *Router {
	return &Router{
		catalog: catalog,
		logger:  log.With().Str("component", "router").Logger(),
	}
}

// Start handles the begin command: (re-)enter the interface-language
// sub-flow. An already running extraction is unaffected.
func (r *Router) Start(s *session.UserSession) []Reply {
	r.logger.Info().Int64("user_id", s.UserID).Msg("user started the bot")
	s.State = session.StateAwaitingInterfaceLanguage
	return []Reply{{
		Text:     r.catalog.Text(locale.DefaultLanguage, "choose_interface_language"),
		Keyboard: KeyboardSpec{Kind: KeyboardInterface},
	}}
}

// HandleText routes one incoming text message. The caller holds the
// session's lock for the duration of the call.
func (r *Router) HandleText(s *session.UserSession, text string) ([]Reply, Action) {
	lang := s.InterfaceLang
	text = strings.TrimSpace(text)

	// 1. Interface-language sub-flow gates everything. Stray input here is
	// silently ignored so a random message during onboarding cannot
	// desynchronize the flow.
	if s.State == session.StateAwaitingInterfaceLanguage {
		return r.handleInterfaceChoice(s, text), ActionNone
	}

	// 2. Explicit re-entry into the interface-language sub-flow. Matched
	// across all languages: this button is the one most likely pressed
	// from a keyboard rendered before a language switch.
	if r.catalog.IsLabel(text, "btn_interface_language") {
		s.State = session.StateAwaitingInterfaceLanguage
		return []Reply{{
			Text:     r.catalog.Text(lang, "choose_interface_language"),
			Keyboard: KeyboardSpec{Kind: KeyboardInterface},
		}}, ActionNone
	}

	// 3. Delivery-method labels. Checked before menu navigation, matching
	// the original handler registration order.
	if replies, action, handled := r.handleDeliveryChoice(s, text); handled {
		return replies, action
	}

	if text == r.catalog.Text(lang, "btn_info") {
		return []Reply{{
			Text:     r.catalog.Text(lang, "info_message"),
			Keyboard: KeyboardSpec{Kind: KeyboardMain, Lang: lang},
		}}, ActionNone
	}

	// 4. Multi-select mode: confirm or accumulate. Falls through to menu
	// labels when neither matches.
	if s.State == session.StateMultiSelecting {
		if replies, handled := r.handleMultiSelect(s, text); handled {
			return replies, ActionNone
		}
	}

	// 5. Single-language shortcuts and the full language list. Note these
	// are only reachable outside multi-select mode: the multi-select
	// branch above already consumes language names.
	if replies, handled := r.handleSingleLanguage(s, text); handled {
		return replies, ActionNone
	}

	// 6. Menu navigation.
	if replies, handled := r.handleMenuButtons(s, text); handled {
		return replies, ActionNone
	}

	// 7. Catch-all: re-display the keyboard for the current state. Never a
	// hard error.
	return r.fallback(s), ActionNone
}

func (r *Router) handleInterfaceChoice(s *session.UserSession, text string) []Reply {
	switch text {
	case locale.LabelUkrainian:
		s.InterfaceLang = locale.LangUkrainian
	case locale.LabelEnglish:
		s.InterfaceLang = locale.LangEnglish
	default:
		// Intentionally silent: no state change, no reply.
		return nil
	}

	s.State = session.StateAwaitingOCRLanguage
	lang := s.InterfaceLang
	r.logger.Info().Int64("user_id", s.UserID).Str("lang", lang).Msg("interface language set")
	return []Reply{
		{
			Text:     r.catalog.Text(lang, "interface_language_set"),
			Keyboard: KeyboardSpec{Kind: KeyboardMain, Lang: lang},
		},
		{
			Text:     r.catalog.Text(lang, "start_message"),
			Keyboard: KeyboardSpec{Kind: KeyboardMain, Lang: lang},
		},
	}
}

func (r *Router) handleDeliveryChoice(s *session.UserSession, text string) ([]Reply, Action, bool) {
	lang := s.InterfaceLang

	var choice session.DeliveryChoice
	switch text {
	case r.catalog.Text(lang, "btn_message"):
		choice = session.DeliveryInline
	case r.catalog.Text(lang, "btn_text_file"):
		choice = session.DeliveryFile
	default:
		return nil, ActionNone, false
	}

	if len(s.Files) == 0 {
		r.logger.Warn().Int64("user_id", s.UserID).Msg("delivery chosen without uploaded files")
		return []Reply{{
			Text: r.catalog.Text(lang, "please_upload_file"),
		}}, ActionNone, true
	}

	s.Delivery = choice
	s.State = session.StateAwaitingOCRLanguage
	r.logger.Info().
		Int64("user_id", s.UserID).
		Str("delivery", map[session.DeliveryChoice]string{session.DeliveryInline: "message", session.DeliveryFile: "file"}[choice]).
		Msg("delivery method selected")
	return nil, ActionStartDelivery, true
}

func (r *Router) handleMultiSelect(s *session.UserSession, text string) ([]Reply, bool) {
	lang := s.InterfaceLang

	if text == r.catalog.Text(lang, "btn_confirm") {
		s.State = session.StateAwaitingOCRLanguage
		if len(s.PendingLangs) == 0 {
			r.logger.Warn().Int64("user_id", s.UserID).Msg("confirmed without selecting any language")
			return []Reply{{
				Text: r.catalog.Text(lang, "no_language_selected"),
			}}, true
		}

		s.OCRLang = strings.Join(s.PendingLangs, "+")
		names := make([]string, 0, len(s.PendingLangs))
		for _, code := range s.PendingLangs {
			if name, ok := r.catalog.LanguageName(lang, code); ok {
				names = append(names, name)
			}
		}
		r.logger.Info().Int64("user_id", s.UserID).Str("ocr_lang", s.OCRLang).Msg("multiple OCR languages selected")
		return []Reply{{
			Text: r.catalog.Textf(lang, "selected_languages", strings.Join(names, ", ")),
		}}, true
	}

	if code, ok := r.catalog.LanguageCode(lang, text); ok {
		s.AddPendingLang(code)
		return []Reply{{
			Text:     r.catalog.Textf(lang, "language_added", text),
			Keyboard: KeyboardSpec{Kind: KeyboardLanguages, Lang: lang, WithConfirm: true},
		}}, true
	}

	return nil, false
}

func (r *Router) handleSingleLanguage(s *session.UserSession, text string) ([]Reply, bool) {
	lang := s.InterfaceLang

	code := ""
	switch text {
	case r.catalog.Text(lang, "btn_ukrainian"):
		code = "ukr"
	case r.catalog.Text(lang, "btn_english"):
		code = "eng"
	default:
		if c, ok := r.catalog.LanguageCode(lang, text); ok {
			code = c
		}
	}
	if code == "" {
		return nil, false
	}

	s.OCRLang = code
	r.logger.Info().Int64("user_id", s.UserID).Str("ocr_lang", code).Msg("OCR language selected")
	return []Reply{{
		Text: r.catalog.Textf(lang, "language_selected", text),
	}}, true
}

func (r *Router) handleMenuButtons(s *session.UserSession, text string) ([]Reply, bool) {
	lang := s.InterfaceLang

	switch text {
	case r.catalog.Text(lang, "btn_other_language"):
		return []Reply{{
			Text:     r.catalog.Text(lang, "choose_language"),
			Keyboard: KeyboardSpec{Kind: KeyboardLanguages, Lang: lang, WithConfirm: s.State == session.StateMultiSelecting},
		}}, true

	case r.catalog.Text(lang, "btn_multiple_languages"):
		s.EnterMultiSelect()
		return []Reply{{
			Text:     r.catalog.Text(lang, "choose_multiple_languages"),
			Keyboard: KeyboardSpec{Kind: KeyboardLanguages, Lang: lang, WithConfirm: true},
		}}, true

	case r.catalog.Text(lang, "btn_back_to_menu"):
		if s.State == session.StateMultiSelecting {
			s.State = session.StateAwaitingOCRLanguage
		}
		return []Reply{{
			Text:     r.catalog.Text(lang, "choose_alphabet"),
			Keyboard: KeyboardSpec{Kind: KeyboardMain, Lang: lang},
		}}, true
	}

	return nil, false
}

func (r *Router) fallback(s *session.UserSession) []Reply {
	lang := s.InterfaceLang

	switch s.State {
	case session.StateAwaitingDeliveryChoice:
		return []Reply{{
			Text:     r.catalog.Text(lang, "please_choose_delivery"),
			Keyboard: KeyboardSpec{Kind: KeyboardDelivery, Lang: lang},
		}}
	case session.StateMultiSelecting:
		return []Reply{{
			Text:     r.catalog.Text(lang, "please_choose_language"),
			Keyboard: KeyboardSpec{Kind: KeyboardLanguages, Lang: lang, WithConfirm: true},
		}}
	default:
		return []Reply{{
			Text:     r.catalog.Text(lang, "please_choose_alphabet"),
			Keyboard: KeyboardSpec{Kind: KeyboardMain, Lang: lang},
		}}
	}
}
