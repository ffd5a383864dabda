// Package assemble turns aggregated extraction results into deliverable
// form: inline transport-sized messages or on-disk text files.
package assemble

import (
	"strings"

	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/locale"
)

const (
	// MaxMessageLength is the transport's message-size cap, in characters.
	MaxMessageLength = 4096

	// HeaderReserve is taken off the cap to leave room for the
	// "part i/total" prefix on split messages.
	HeaderReserve = 25
)

// Assembler renders extraction entries using the localized catalog.
type Assembler struct {
	catalog *locale.Catalog
}

func NewAssembler(catalog *locale.Catalog) *Assembler {
	return &Assembler{catalog: catalog}
}

// InlineMessages renders entries as a flat sequence of messages: a header
// line per file, then the text, chunked when it exceeds the transport cap.
// Empty or whitespace-only text becomes a "no text found" notice; a failed
// entry becomes a per-file error notice. No message is ever blank.
func (a *Assembler) InlineMessages(lang string, entries []extract.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, a.catalog.Textf(lang, "file_header", e.Key))

		switch {
		case e.Err != nil:
			out = append(out, a.catalog.Textf(lang, "file_processing_error", e.Key))

		case strings.TrimSpace(e.Text) == "":
			out = append(out, a.catalog.Text(lang, "no_text_found"))

		case len([]rune(e.Text)) <= MaxMessageLength:
			out = append(out, e.Text)

		default:
			// The part total is known before anything is emitted, so
			// headers carry the true count.
			chunks := SplitText(e.Text, MaxMessageLength-HeaderReserve)
			for i, chunk := range chunks {
				header := a.catalog.Textf(lang, "message_part", i+1, len(chunks))
				out = append(out, header+"\n"+chunk)
			}
		}
	}
	return out
}

// SplitText splits text into chunks of at most max characters. Within each
// window it prefers the last newline when that lies past the halfway point,
// then the last space under the same rule, and hard-cuts otherwise, so
// lines and words survive splitting whenever they reasonably can.
func SplitText(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, string(runes))
			break
		}

		split := max
		if nl := lastIndexRune(runes[:max], '\n'); nl > max/2 {
			split = nl + 1
		} else if sp := lastIndexRune(runes[:max], ' '); sp > max/2 {
			split = sp + 1
		}

		chunks = append(chunks, string(runes[:split]))
		runes = runes[split:]
	}
	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
