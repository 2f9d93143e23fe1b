// Package scheduler places category finals on mats and days.
//
// A final block is a flat list of items. Mat 0 is the pool of unassigned
// items; mats 1..N hold items ordered by their order field. Breaks are
// markers that live on a mat like categories but are never "assigned".
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"podium-server-go/models"
)

// MaxMats bounds the number of mats a final block can have.
const MaxMats = 12

// DayAll disables day filtering.
const DayAll = "ALL"

const breakPrefix = "__BREAK__:"

var (
	// ErrInvalidMats is returned for a mat count outside 1..MaxMats.
	ErrInvalidMats = errors.New("invalid number of mats")
	// ErrInvalidMat is returned for a mat index outside the block.
	ErrInvalidMat = errors.New("invalid mat")
	// ErrBreakNotFound is returned when deleting an unknown break.
	ErrBreakNotFound = errors.New("break not found")
	// ErrInvalidLayout is returned by Reconcile for more columns than mats.
	ErrInvalidLayout = errors.New("invalid board layout")
)

// NewBreakID returns a fresh break marker id.
func NewBreakID() string {
	return breakPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// SetMat moves an item. Moving to the pool clears the order and the
// assigned flag of a category.
func SetMat(item *models.FinalBlockItem, mat int) {
	item.Mat = mat
	if mat == 0 && !item.IsBreak {
		item.Order = 0
		item.Assigned = false
	}
}

// Normalize repairs a freshly loaded block and reports whether it changed.
// Breaks get an order and an id when missing; unassigned categories go to
// the pool; assigned categories on a mat that no longer exists are
// unassigned. Mats holding a category without an order are renumbered with
// that category last.
func Normalize(fb *models.FinalBlock) bool {
	changed := false
	missing := false
	if fb.Mats < 1 {
		fb.Mats = 1
		changed = true
	}
	for i := range fb.Finals {
		it := &fb.Finals[i]
		if it.IsBreak {
			if it.Order == 0 || it.Order == models.MissingOrder {
				it.Order = i + 1
				changed = true
			}
			if it.ID == "" {
				it.ID = it.CategoryID
				if it.ID == "" {
					it.ID = NewBreakID()
				}
				changed = true
			}
			continue
		}
		if !it.Assigned {
			if it.Mat != 0 || it.Order != 0 {
				changed = true
			}
			SetMat(it, 0)
			continue
		}
		if it.Mat < 0 || it.Mat > fb.Mats {
			SetMat(it, 0)
			changed = true
			continue
		}
		if it.Order == models.MissingOrder {
			missing = true
		}
	}
	if missing {
		Reindex(fb)
		changed = true
	}
	return changed
}

// matIndexes returns the positions of the items on a mat, sorted by order.
func matIndexes(finals []models.FinalBlockItem, mat int) []int {
	idx := []int{}
	for i, it := range finals {
		if it.Mat == mat {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return finals[idx[a]].Order < finals[idx[b]].Order })
	return idx
}

// MatItems returns a copy of the items on a mat, sorted by order.
func MatItems(fb models.FinalBlock, mat int) []models.FinalBlockItem {
	idx := matIndexes(fb.Finals, mat)
	out := make([]models.FinalBlockItem, 0, len(idx))
	for _, i := range idx {
		out = append(out, fb.Finals[i])
	}
	return out
}

// Reindex renumbers every mat 1..N, keeping the relative order.
func Reindex(fb *models.FinalBlock) {
	for m := 1; m <= fb.Mats; m++ {
		for n, i := range matIndexes(fb.Finals, m) {
			fb.Finals[i].Order = n + 1
		}
	}
}

// SwapUp exchanges the item at position pos on a mat with its predecessor.
func SwapUp(fb *models.FinalBlock, mat, pos int) {
	swap(fb, mat, pos-1, pos)
}

// SwapDown exchanges the item at position pos on a mat with its successor.
func SwapDown(fb *models.FinalBlock, mat, pos int) {
	swap(fb, mat, pos, pos+1)
}

func swap(fb *models.FinalBlock, mat, a, b int) {
	if mat < 1 || mat > fb.Mats {
		return
	}
	idx := matIndexes(fb.Finals, mat)
	if a < 0 || b >= len(idx) {
		return
	}
	Reindex(fb)
	x, y := &fb.Finals[idx[a]], &fb.Finals[idx[b]]
	x.Order, y.Order = y.Order, x.Order
}

// MoveTop puts the item at position pos first on its mat.
func MoveTop(fb *models.FinalBlock, mat, pos int) {
	if mat < 1 || mat > fb.Mats {
		return
	}
	idx := matIndexes(fb.Finals, mat)
	if pos < 0 || pos >= len(idx) {
		return
	}
	fb.Finals[idx[pos]].Order = fb.Finals[idx[0]].Order - 1
	Reindex(fb)
}

// FilterByDay returns the items visible for a day. DayAll or "" shows
// everything; otherwise breaks plus the day's categories.
func FilterByDay(finals []models.FinalBlockItem, day string, days models.DaysMap) []models.FinalBlockItem {
	if day == "" || day == DayAll {
		return finals
	}
	ids := dayIDs(day, days)
	out := []models.FinalBlockItem{}
	for _, it := range finals {
		if it.IsBreak || ids[it.CategoryID] {
			out = append(out, it)
		}
	}
	return out
}

func dayIDs(day string, days models.DaysMap) map[string]bool {
	ids := map[string]bool{}
	for _, id := range days[day] {
		ids[id] = true
	}
	return ids
}

// visibleFunc reports whether a category item passes the day filter.
func visibleFunc(day string, days models.DaysMap) func(models.FinalBlockItem) bool {
	if day == "" || day == DayAll {
		return func(models.FinalBlockItem) bool { return true }
	}
	ids := dayIDs(day, days)
	return func(it models.FinalBlockItem) bool { return it.IsBreak || ids[it.CategoryID] }
}

// AutoBalance deals the visible categories, in list order, round-robin
// onto mats 1..N and reindexes.
func AutoBalance(fb *models.FinalBlock, day string, days models.DaysMap) {
	visible := visibleFunc(day, days)
	n := 0
	for i := range fb.Finals {
		it := &fb.Finals[i]
		if it.IsBreak || !visible(*it) {
			continue
		}
		it.Mat = n%fb.Mats + 1
		it.Assigned = true
		n++
	}
	Reindex(fb)
}

// UnassignAll sends the visible categories back to the pool.
func UnassignAll(fb *models.FinalBlock, day string, days models.DaysMap) {
	visible := visibleFunc(day, days)
	for i := range fb.Finals {
		if !fb.Finals[i].IsBreak && visible(fb.Finals[i]) {
			SetMat(&fb.Finals[i], 0)
		}
	}
}

// AddBreak appends a break after the last item of a mat (0 = pool).
func AddBreak(fb *models.FinalBlock, mat int) (models.FinalBlockItem, error) {
	if mat < 0 || mat > fb.Mats {
		return models.FinalBlockItem{}, fmt.Errorf("%w: %d", ErrInvalidMat, mat)
	}
	order := 1
	if idx := matIndexes(fb.Finals, mat); len(idx) > 0 {
		order = fb.Finals[idx[len(idx)-1]].Order + 1
	}
	item := models.FinalBlockItem{ID: NewBreakID(), IsBreak: true, Mat: mat, Order: order}
	fb.Finals = append(fb.Finals, item)
	return item, nil
}

// DeleteBreak removes the break with the given id and reindexes.
func DeleteBreak(fb *models.FinalBlock, id string) error {
	for i, it := range fb.Finals {
		if it.IsBreak && it.ID == id {
			fb.Finals = append(fb.Finals[:i], fb.Finals[i+1:]...)
			Reindex(fb)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrBreakNotFound, id)
}

// DeleteAllBreaks removes every break and reindexes.
func DeleteAllBreaks(fb *models.FinalBlock) int {
	kept := fb.Finals[:0]
	removed := 0
	for _, it := range fb.Finals {
		if it.IsBreak {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	fb.Finals = kept
	Reindex(fb)
	return removed
}

// SetMats changes the mat count. Breaks are clamped onto the remaining
// mats and categories on removed mats go back to the pool.
func SetMats(fb *models.FinalBlock, n int) error {
	if n < 1 || n > MaxMats {
		return fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidMats, n, MaxMats)
	}
	fb.Mats = n
	for i := range fb.Finals {
		it := &fb.Finals[i]
		if it.IsBreak {
			it.Mat = min(max(1, it.Mat), n)
			continue
		}
		if it.Mat > n {
			SetMat(it, 0)
		}
	}
	Reindex(fb)
	return nil
}

// Reset empties the block and keeps the mat count.
func Reset(fb *models.FinalBlock) {
	fb.Finals = []models.FinalBlockItem{}
	if fb.Mats < 1 {
		fb.Mats = 1
	}
}

// GroupByMat returns, for mats 1..N, the items sorted by order.
func GroupByMat(fb models.FinalBlock) [][]models.FinalBlockItem {
	out := make([][]models.FinalBlockItem, fb.Mats)
	for m := 1; m <= fb.Mats; m++ {
		out[m-1] = MatItems(fb, m)
	}
	return out
}
