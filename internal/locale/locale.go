// Package locale holds the validated translation catalog for the bot.
//
// The catalog is loaded once at startup from the embedded translations.json
// and validated against the required language and key sets. A broken catalog
// is a startup failure, never a runtime surprise.
package locale

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed translations.json
var embedded []byte

// Interface language codes.
const (
	LangUkrainian = "uk"
	LangEnglish   = "en"

	// DefaultLanguage is used until the user confirms an interface language.
	DefaultLanguage = LangUkrainian
)

// Interface-language selector labels. These are deliberately not part of the
// catalog: they must be readable before any interface language is set.
const (
	LabelUkrainian = "Українська 🇺🇦"
	LabelEnglish   = "English 🇬🇧"
)

var requiredLanguages = []string{LangUkrainian, LangEnglish}

var requiredKeys = []string{
	"btn_ukrainian", "btn_english", "btn_other_language", "btn_multiple_languages",
	"btn_info", "btn_interface_language", "btn_back_to_menu", "btn_confirm",
	"btn_message", "btn_text_file", "choose_interface_language", "interface_language_set",
	"start_message", "info_message", "choose_alphabet", "choose_language",
	"language_selected", "selected_languages", "no_language_selected", "language_added",
	"choose_multiple_languages", "please_choose_alphabet", "please_choose_language",
	"not_document", "file_too_large", "unsupported_format", "file_uploaded",
	"please_upload_file", "please_choose_delivery", "file_header", "no_text_found",
	"message_part", "file_read_error", "file_processing_error",
	"processing_started", "processing_error", "no_text_extracted",
}

type entry struct {
	Strings      map[string]string `json:"strings"`
	OCRLanguages map[string]string `json:"ocr_languages"`
}

// Catalog is an immutable, validated translation table.
type Catalog struct {
	langs map[string]entry
	// labels indexes every translation of every key across all languages,
	// so the router can ask "is this text the label for key X in any
	// language" without scanning the table per message.
	labels map[string]map[string]struct{}
}

// Load parses and validates the embedded catalog.
func Load() (*Catalog, error) {
	return New(embedded)
}

// New parses and validates a catalog from raw JSON.
func New(data []byte) (*Catalog, error) {
	var langs map[string]entry
	if err := json.Unmarshal(data, &langs); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}

	for _, lang := range requiredLanguages {
		e, ok := langs[lang]
		if !ok {
			return nil, fmt.Errorf("translations: missing language %q", lang)
		}
		var missing []string
		for _, key := range requiredKeys {
			if _, ok := e.Strings[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("translations: language %q missing keys %v", lang, missing)
		}
		if len(e.OCRLanguages) == 0 {
			return nil, fmt.Errorf("translations: language %q has no ocr_languages", lang)
		}
	}

	labels := make(map[string]map[string]struct{})
	for _, e := range langs {
		for key, text := range e.Strings {
			set, ok := labels[key]
			if !ok {
				set = make(map[string]struct{})
				labels[key] = set
			}
			set[text] = struct{}{}
		}
	}

	return &Catalog{langs: langs, labels: labels}, nil
}

// Text returns the translation of key for the given interface language.
// Unknown languages fall back to the default; an unknown key is returned
// verbatim so the UI degrades instead of breaking.
func (c *Catalog) Text(lang, key string) string {
	e, ok := c.langs[lang]
	if !ok {
		e = c.langs[DefaultLanguage]
	}
	text, ok := e.Strings[key]
	if !ok {
		log.Warn().Str("key", key).Str("lang", lang).Msg("translation key not found")
		return key
	}
	return text
}

// Textf returns the translation of key formatted with args.
func (c *Catalog) Textf(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(c.Text(lang, key), args...)
}

// OCRLanguages returns the display-name to tesseract-code mapping for the
// given interface language. Display names are stored lowercase.
func (c *Catalog) OCRLanguages(lang string) map[string]string {
	e, ok := c.langs[lang]
	if !ok {
		e = c.langs[DefaultLanguage]
	}
	return e.OCRLanguages
}

// LanguageCode resolves a user-typed OCR language name, case-insensitively.
func (c *Catalog) LanguageCode(lang, name string) (string, bool) {
	code, ok := c.OCRLanguages(lang)[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// LanguageName returns the display name for an OCR language code, if any.
func (c *Catalog) LanguageName(lang, code string) (string, bool) {
	for name, cc := range c.OCRLanguages(lang) {
		if cc == code {
			return name, true
		}
	}
	return "", false
}

// IsLabel reports whether text is the translation of key in any supported
// language, regardless of the current interface language.
func (c *Catalog) IsLabel(text, key string) bool {
	set, ok := c.labels[key]
	if !ok {
		return false
	}
	_, ok = set[text]
	return ok
}

// Languages returns the interface language codes present in the catalog.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.langs))
	for lang := range c.langs {
		out = append(out, lang)
	}
	return out
}
