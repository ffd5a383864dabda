// Package extract turns staged documents into text.
//
// The dispatcher selects an extraction strategy by the file kind resolved at
// staging time and runs each file independently: one file's failure never
// aborts its siblings. OCR and binary parsing are black boxes behind the
// ocr.Service and the pdf/docx libraries.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/core/ocr"
)

// File is one staged document handed to the dispatcher.
type File struct {
	// Name is the original client-supplied filename; result entries are
	// keyed by it after de-duplication.
	Name string
	Path string
	Kind FileKind
}

// Entry is the extraction outcome for one file. Text may legitimately be
// empty; Err is set for a whole-file failure.
type Entry struct {
	Key  string
	Text string
	Err  error
}

// AllEmpty reports whether the result carries nothing worth delivering:
// no failures to surface and only whitespace text.
func AllEmpty(entries []Entry) bool {
	for _, e := range entries {
		if e.Err != nil || strings.TrimSpace(e.Text) != "" {
			return false
		}
	}
	return true
}

type strategy func(ctx context.Context, path, lang string) (string, error)

// Dispatcher runs format-specific extraction strategies.
type Dispatcher struct {
	ocr        *ocr.Service
	strategies map[FileKind]strategy
	logger     zerolog.Logger
}

// NewDispatcher creates a dispatcher backed by the given OCR service.
func NewDispatcher(o *ocr.Service) *Dispatcher {
	d := &Dispatcher{
		ocr:    o,
		logger: log.With().Str("component", "extract").Logger(),
	}
	d.strategies = map[FileKind]strategy{
		KindPDF:     d.extractPDF,
		KindWordDoc: d.extractWordDoc,
		KindImage:   d.extractImage,
	}
	return d
}

// ExtractAll processes each file independently and aggregates results keyed
// by de-duplicated original filename. Entries preserve input order.
func (d *Dispatcher) ExtractAll(ctx context.Context, files []File, lang string) []Entry {
	used := make(map[string]struct{}, len(files))
	entries := make([]Entry, 0, len(files))

	for _, f := range files {
		key := dedupeKey(used, f.Name)

		text, err := d.extractOne(ctx, f, lang)
		if err != nil {
			d.logger.Error().Err(err).Str("file", f.Name).Str("kind", f.Kind.String()).Msg("extraction failed")
			entries = append(entries, Entry{Key: key, Err: err})
			continue
		}
		entries = append(entries, Entry{Key: key, Text: text})
	}
	return entries
}

// extractOne isolates a single file's extraction, converting panics from
// the parsing libraries into per-file errors.
func (d *Dispatcher) extractOne(ctx context.Context, f File, lang string) (text string, err error) {
	strat, ok := d.strategies[f.Kind]
	if !ok {
		return "", fmt.Errorf("no extraction strategy for %q", f.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked for %q: %v", f.Name, r)
		}
	}()
	return strat(ctx, f.Path, lang)
}

// dedupeKey returns name, or name with a numeric suffix before the
// extension when the plain name is already taken, so no result is silently
// overwritten.
func dedupeKey(used map[string]struct{}, name string) string {
	if _, taken := used[name]; !taken {
		used[name] = struct{}{}
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}
