package scheduler

import (
	"fmt"

	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
)

// Scheduler loads, edits and saves the final block document.
type Scheduler struct {
	store *db.DocumentStore
	log   *zap.Logger
}

// New creates a Scheduler over the document store.
func New(store *db.DocumentStore, log *zap.Logger) *Scheduler {
	return &Scheduler{store: store, log: log.Named("scheduler")}
}

// Load returns the normalised final block, persisting repairs.
func (s *Scheduler) Load() models.FinalBlock {
	fb := s.store.FinalBlock()
	if Normalize(&fb) {
		s.log.Debug("final block normalised on load")
		if err := s.store.SaveFinalBlock(fb); err != nil {
			s.log.Warn("failed to persist normalised final block", zap.Error(err))
		}
	}
	return fb
}

// Update applies fn to the current block and saves the result. Nothing is
// saved when fn fails.
func (s *Scheduler) Update(fn func(fb *models.FinalBlock) error) (models.FinalBlock, error) {
	fb := s.Load()
	if err := fn(&fb); err != nil {
		return fb, err
	}
	if err := s.store.SaveFinalBlock(fb); err != nil {
		return fb, fmt.Errorf("failed to save final block: %w", err)
	}
	return fb, nil
}

// Titles maps category ids to titles for board and export labels.
func (s *Scheduler) Titles() map[string]string {
	titles := map[string]string{}
	for id, c := range s.store.CategoriesByID() {
		titles[id] = c.Title
	}
	return titles
}
