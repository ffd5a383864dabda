package telegram

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/locale"
)

// renderKeyboard turns a layout intent from the router into concrete
// Telegram reply-keyboard markup. Returns nil when no keyboard is attached.
func renderKeyboard(catalog *locale.Catalog, spec conversation.KeyboardSpec) interface{} {
	var rows [][]tgbotapi.KeyboardButton
	switch spec.Kind {
	case conversation.KeyboardInterface:
		rows = [][]tgbotapi.KeyboardButton{
			buttonRow(locale.LabelUkrainian, locale.LabelEnglish),
		}
	case conversation.KeyboardMain:
		rows = [][]tgbotapi.KeyboardButton{
			buttonRow(
				catalog.Text(spec.Lang, "btn_ukrainian"),
				catalog.Text(spec.Lang, "btn_english"),
				catalog.Text(spec.Lang, "btn_other_language"),
			),
			buttonRow(catalog.Text(spec.Lang, "btn_multiple_languages")),
			buttonRow(
				catalog.Text(spec.Lang, "btn_info"),
				catalog.Text(spec.Lang, "btn_interface_language"),
			),
		}
	case conversation.KeyboardLanguages:
		if spec.WithConfirm {
			rows = append(rows, buttonRow(catalog.Text(spec.Lang, "btn_confirm")))
		}
		rows = append(rows, buttonRow(catalog.Text(spec.Lang, "btn_back_to_menu")))
		for _, name := range languageNames(catalog, spec.Lang) {
			rows = append(rows, buttonRow(name))
		}
	case conversation.KeyboardDelivery:
		rows = [][]tgbotapi.KeyboardButton{
			buttonRow(
				catalog.Text(spec.Lang, "btn_message"),
				catalog.Text(spec.Lang, "btn_text_file"),
			),
		}
	default:
		return nil
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func buttonRow(labels ...string) []tgbotapi.KeyboardButton {
	row := make([]tgbotapi.KeyboardButton, 0, len(labels))
	for _, l := range labels {
		row = append(row, tgbotapi.NewKeyboardButton(l))
	}
	return row
}

// languageNames lists the recognizable languages as button captions, title
// cased and alphabetically ordered so the keyboard is stable across runs.
func languageNames(catalog *locale.Catalog, lang string) []string {
	langs := catalog.OCRLanguages(lang)
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, titleCase(name))
	}
	sort.Strings(names)
	return names
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
