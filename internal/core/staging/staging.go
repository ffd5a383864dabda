// Package staging validates incoming uploads and writes them to a per-user
// scratch directory with collision-safe, traversal-safe names.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/session"
)

// MaxFileSize is the upload size cap.
const MaxFileSize = 10 * 1024 * 1024

// Validation errors are user-correctable; rejections leave session state
// untouched.
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// AllowedFormats is the fixed set of accepted upload extensions.
var AllowedFormats = map[string]struct{}{
	"pdf": {}, "docx": {}, "doc": {},
	"png": {}, "jpg": {}, "jpeg": {}, "tiff": {}, "bmp": {}, "gif": {},
}

// Pipeline stages uploaded documents for one delivery cycle.
type Pipeline struct {
	root    string
	maxSize int64
	logger  zerolog.Logger
}

// NewPipeline creates a staging pipeline rooted at root (created if absent).
func NewPipeline(root string, maxSize int64) (*Pipeline, error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	return &Pipeline{
		root:    root,
		maxSize: maxSize,
		logger:  log.With().Str("component", "staging").Logger(),
	}, nil
}

// Root returns the staging root directory.
func (p *Pipeline) Root() string { return p.root }

// Stage validates and stores one uploaded document for the given session,
// appending the staged file to it. The caller holds the session's lock.
//
// Returns the staged file and whether it is the first of the current cycle
// (the caller prompts for the delivery method exactly once per cycle).
func (p *Pipeline) Stage(sess *session.UserSession, originalName string, size int64, r io.Reader) (session.StagedFile, bool, error) {
	if size > p.maxSize {
		p.logger.Warn().
			Int64("user_id", sess.UserID).
			Str("file", originalName).
			Int64("size", size).
			Msg("rejected oversized upload")
		return session.StagedFile{}, false, fmt.Errorf("%s: %w", originalName, ErrFileTooLarge)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	if _, ok := AllowedFormats[ext]; !ok {
		p.logger.Warn().
			Int64("user_id", sess.UserID).
			Str("file", originalName).
			Msg("rejected unsupported format")
		return session.StagedFile{}, false, fmt.Errorf("%s: %w", originalName, ErrUnsupportedFormat)
	}

	if sess.StagingDir == "" {
		dir, err := os.MkdirTemp(p.root, fmt.Sprintf("ocr_bot_%d_", sess.UserID))
		if err != nil {
			return session.StagedFile{}, false, fmt.Errorf("create staging dir: %w", err)
		}
		sess.StagingDir = dir
	}

	safeName := p.resolveCollision(sess, SanitizeFilename(originalName))
	path := filepath.Join(sess.StagingDir, safeName)

	if err := writeFile(path, r); err != nil {
		return session.StagedFile{}, false, fmt.Errorf("stage %s: %w", safeName, err)
	}

	staged := session.StagedFile{
		OriginalName: originalName,
		SafeName:     safeName,
		Path:         path,
		Kind:         extract.KindForName(originalName),
	}
	sess.Files = append(sess.Files, staged)

	first := len(sess.Files) == 1
	if first {
		sess.State = session.StateAwaitingDeliveryChoice
	}

	p.logger.Info().
		Int64("user_id", sess.UserID).
		Str("file", originalName).
		Str("staged_as", safeName).
		Msg("file staged")
	return staged, first, nil
}

// resolveCollision appends a numeric suffix before the extension until the
// name is unique among this session's staged files.
func (p *Pipeline) resolveCollision(sess *session.UserSession, name string) string {
	taken := make(map[string]struct{}, len(sess.Files))
	for _, f := range sess.Files {
		taken[f.SafeName] = struct{}{}
	}

	if _, exists := taken[name]; !exists {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

func writeFile(path string, r io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// Cleanup removes the session's staging directory and clears its upload and
// delivery fields together. Safe to call when nothing is staged.
func Cleanup(sess *session.UserSession) error {
	var err error
	if sess.StagingDir != "" {
		err = os.RemoveAll(sess.StagingDir)
	}
	sess.ResetCycle()
	return err
}
