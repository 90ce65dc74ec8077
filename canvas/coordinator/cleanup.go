package coordinator

import (
	"context"
	"time"

	"codeberg.org/sharedcanvas/server/internal/logger"
)

// periodically removes members that went idle and lost their connection
// without a leave or a disconnect reaching the coordinator
type CleanupService struct {
	coordinator   *Coordinator
	checkInterval time.Duration
	now           func() time.Time
}

// creates a new cleanup service using the coordinator's configured interval
func NewCleanupService(c *Coordinator) *CleanupService {
	return &CleanupService{
		coordinator:   c,
		checkInterval: c.cfg.CleanupInterval,
		now:           c.now,
	}
}

// begins the cleanup loop; returns when ctx is cancelled
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting member cleanup service",
		"check_interval", s.checkInterval,
		"inactivity_threshold", s.coordinator.cfg.StaleAfter,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("member cleanup service stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// runs a single cleanup pass and returns the removed member ids
func (s *CleanupService) RunOnce(ctx context.Context) []string {
	removed := s.coordinator.RemoveInactive(ctx, s.now())
	if len(removed) > 0 {
		logger.Info("removed inactive members",
			"room_id", s.coordinator.cfg.RoomID,
			"count", len(removed),
			"members", removed,
		)
	}

	return removed
}
