package scheduler

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"podium-server-go/models"
)

// MaxDays bounds the number of competition days.
const MaxDays = 10

var (
	// ErrInvalidDays is returned for a day count outside 0..MaxDays.
	ErrInvalidDays = errors.New("invalid number of days")
	// ErrInvalidDay is returned for a day key outside the configured days.
	ErrInvalidDay = errors.New("invalid day")
)

// NumDays returns the configured number of days (0 = no distribution).
func (s *Scheduler) NumDays() int {
	return s.store.DaysMeta().NumDays
}

// SetNumDays stores the number of days.
func (s *Scheduler) SetNumDays(n int) error {
	if n < 0 || n > MaxDays {
		return fmt.Errorf("%w: %d (allowed 0-%d)", ErrInvalidDays, n, MaxDays)
	}
	return s.store.SaveDaysMeta(models.DaysMeta{NumDays: n})
}

// DayKeys lists "1".."N" for the configured days.
func (s *Scheduler) DayKeys() []string {
	n := s.NumDays()
	keys := make([]string, 0, n)
	for d := 1; d <= n; d++ {
		keys = append(keys, strconv.Itoa(d))
	}
	return keys
}

func (s *Scheduler) checkDay(day string) error {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > s.NumDays() {
		return fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return nil
}

// SaveDay replaces the categories of a day. Duplicate ids keep their first
// position.
func (s *Scheduler) SaveDay(day string, categoryIDs []string) ([]string, error) {
	if err := s.checkDay(day); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(categoryIDs))
	seen := map[string]bool{}
	for _, id := range categoryIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	days := s.store.FinalsDays()
	days[day] = ids
	if err := s.store.SaveFinalsDays(days); err != nil {
		return nil, fmt.Errorf("failed to save day %s: %w", day, err)
	}
	return ids, nil
}

// ClearDay empties a day.
func (s *Scheduler) ClearDay(day string) error {
	_, err := s.SaveDay(day, nil)
	return err
}

// PushDay replaces the final block with the day's categories, all in the
// pool. The mat count is kept.
func (s *Scheduler) PushDay(day string) (models.FinalBlock, error) {
	if err := s.checkDay(day); err != nil {
		return models.FinalBlock{}, err
	}
	ids := s.store.FinalsDays()[day]
	fb := s.store.FinalBlock()
	pushed := models.FinalBlock{Mats: max(1, fb.Mats), Finals: make([]models.FinalBlockItem, 0, len(ids))}
	for _, id := range ids {
		pushed.Finals = append(pushed.Finals, models.FinalBlockItem{CategoryID: id})
	}
	if err := s.store.SaveFinalBlock(pushed); err != nil {
		return models.FinalBlock{}, fmt.Errorf("failed to save final block: %w", err)
	}
	s.log.Info("day pushed to final block", zap.String("day", day), zap.Int("categories", len(ids)))
	return pushed, nil
}
