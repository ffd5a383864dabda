package services

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CleanupService periodically removes staging directories that outlived
// their session, for example after a crash between upload and delivery.
// Directories still referenced by a live session are never touched.
type CleanupService struct {
	root       string
	maxAge     time.Duration
	activeDirs func() []string
	cron       *cron.Cron
	logger     zerolog.Logger
}

func NewCleanupService(root string, maxAge time.Duration, activeDirs func() []string) *CleanupService {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &CleanupService{
		root:       root,
		maxAge:     maxAge,
		activeDirs: activeDirs,
		cron:       cron.New(),
		logger:     log.With().Str("component", "cleanup_service").Logger(),
	}
}

// Start schedules the hourly sweep and runs one immediately to clear
// leftovers from a previous process.
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc("@every 1h", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.Sweep()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *CleanupService) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep removes orphaned staging directories older than maxAge.
func (s *CleanupService) Sweep() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn().Err(err).Str("root", s.root).Msg("staging root unreadable")
		return
	}

	live := make(map[string]struct{})
	if s.activeDirs != nil {
		for _, d := range s.activeDirs() {
			live[filepath.Clean(d)] = struct{}{}
		}
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "ocr_bot_") {
			continue
		}
		path := filepath.Join(s.root, e.Name())
		if _, ok := live[filepath.Clean(path)]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn().Err(err).Str("dir", path).Msg("orphan removal failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("staging sweep finished")
	}
}
