package resources

import (
	"context"
	"time"

	"reelforge/internal/logging"
)

// RunSweeper runs the idle reclamation loop until ctx is cancelled. It is an
// independent periodic task, decoupled from any single export.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if destroyed := m.sweepOnce(now); destroyed > 0 {
				m.logger.Info("idle sweep reclaimed handles",
					logging.Int("destroyed", destroyed),
					logging.Int("remaining", m.HandleCount()),
				)
			}
		}
	}
}
