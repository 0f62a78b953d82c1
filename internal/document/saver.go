package document

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Saver drives the periodic background save tick.
//
// Patch-triggered saves go straight to Store.ScheduleSave; the Saver only
// guarantees the document also hits disk on a fixed cadence while dirty.
type Saver struct {
	store  *Store
	cron   *cron.Cron
	logger *zap.Logger
}

// NewSaver builds a saver ticking every interval.
func NewSaver(store *Store, interval time.Duration, logger *zap.Logger) (*Saver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New()
	s := &Saver{store: store, cron: c, logger: logger}

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), s.tick); err != nil {
		return nil, fmt.Errorf("schedule save tick: %w", err)
	}
	return s, nil
}

func (s *Saver) tick() {
	if !s.store.Dirty() {
		return
	}
	s.logger.Debug("save tick, scheduling persist")
	s.store.ScheduleSave()
}

// Start begins the periodic tick.
func (s *Saver) Start() {
	s.cron.Start()
}

// Stop halts the tick and cancels any pending debounced save.
func (s *Saver) Stop() {
	s.cron.Stop()
	s.store.CancelPendingSave()
}
