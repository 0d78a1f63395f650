package services

import (
	"context"
	"time"
)

// Sweep removes staging areas idle for at least ttl as of now. Areas whose
// identity is being merged are left alone. It returns how many were removed.
func (s *UploadService) Sweep(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	areas, err := s.store.ListStagingAreas()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, a := range areas {
		if now.Sub(a.LastActivity) < ttl {
			continue
		}
		if !s.locks.TryLock(a.Identity.String()) {
			continue
		}
		err := s.store.RemoveStaging(a.Identity)
		s.locks.Unlock(a.Identity.String())
		if err != nil {
			s.logger.Warn(ctx, "orphan staging removal failed", "file_hash", a.Identity, "error", err)
			continue
		}
		s.logger.Info(ctx, "orphan staging removed", "file_hash", a.Identity, "idle", now.Sub(a.LastActivity))
		removed++
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval or ttl disables sweeping.
func (s *UploadService) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Sweep(ctx, ttl, now); err != nil {
				s.logger.Error(ctx, "staging sweep failed", "error", err)
			}
		}
	}
}
