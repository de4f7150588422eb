package jobs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly maintenance sweep: expired sessions are
// purged and upload files with no attachment row are removed.
type Scheduler struct {
	cron        *cron.Cron
	logger      *utils.Logger
	sessions    store.SessionStore
	attachments store.AttachmentsStore
	uploadsDir  string
}

func NewScheduler(cfg *config.AppConfig, logger *utils.Logger,
	sessions store.SessionStore, attachments store.AttachmentsStore) (*Scheduler, error) {

	s := &Scheduler{
		cron:        cron.New(),
		logger:      logger,
		sessions:    sessions,
		attachments: attachments,
		uploadsDir:  cfg.Uploads.Dir,
	}
	if _, err := s.cron.AddFunc(cfg.Scheduler.CleanupSpec, s.runCleanup); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.logger != nil {
		s.logger.Printf("maintenance scheduler started")
	}
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.Cleanup(ctx); err != nil && s.logger != nil {
		s.logger.Errorf("maintenance sweep failed: %v", err)
	}
}

func (s *Scheduler) Cleanup(ctx context.Context) error {
	purged, err := s.sessions.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	removed, err := s.sweepOrphanedUploads(ctx)
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Printf("maintenance sweep done sessions=%d orphans=%d", purged, removed)
	}
	return nil
}

func (s *Scheduler) sweepOrphanedUploads(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	names, err := s.attachments.ListStoredNames(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := known[e.Name()]; ok {
			continue
		}
		// Skip files still being written.
		if info, err := e.Info(); err == nil && time.Since(info.ModTime()) < time.Hour {
			continue
		}
		if err := os.Remove(filepath.Join(s.uploadsDir, e.Name())); err != nil {
			if s.logger != nil {
				s.logger.Errorf("orphan removal failed name=%s: %v", e.Name(), err)
			}
			continue
		}
		removed++
	}
	return removed, nil
}
