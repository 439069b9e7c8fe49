package daemon

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// driftPlacer is the part of placement.Placer the follower needs.
type driftPlacer interface {
	Drifted() (bool, error)
}

// Follower polls the output area and re-places the panels when it moves,
// e.g. after a resolution change or when the target window is resized.
type Follower struct {
	interval time.Duration
	placer   driftPlacer
	place    func() error
	logger   *log.Logger
}

// NewFollower returns a follower that calls place when placer reports drift.
func NewFollower(interval time.Duration, placer driftPlacer, place func() error, logger *log.Logger) *Follower {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Follower{
		interval: interval,
		placer:   placer,
		place:    place,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (f *Follower) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Debug("follower started", "interval", f.interval)
	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("follower stopped")
			return
		case <-ticker.C:
			f.check()
		}
	}
}

func (f *Follower) check() {
	// An X error must not take the daemon down.
	defer func() {
		if err := recover(); err != nil {
			f.logger.Error("follower panic recovered", "err", err)
		}
	}()

	drifted, err := f.placer.Drifted()
	if err != nil {
		f.logger.Debug("follower: drift check failed", "err", err)
		return
	}
	if !drifted {
		return
	}
	f.logger.Info("output area changed, re-placing panels")
	if err := f.place(); err != nil {
		f.logger.Warn("follower: placement failed", "err", err)
	}
}
