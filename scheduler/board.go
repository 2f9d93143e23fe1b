package scheduler

import (
	"fmt"

	"podium-server-go/models"
)

// Column is one lane of the drag-and-drop board. Mat 0 is the pool.
type Column struct {
	Mat   int         `json:"mat"`
	Cards []BoardCard `json:"cards"`
}

// BoardCard is an item as shown on the board.
type BoardCard struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	CategoryID string `json:"category_id,omitempty"`
	IsBreak    bool   `json:"is_break,omitempty"`
	BreakID    string `json:"break_id,omitempty"`
}

// ItemKeys returns a stable key per item position: "break:<id>" or
// "cat:<category_id>", with "#2", "#3"... appended to repeated keys.
func ItemKeys(finals []models.FinalBlockItem) []string {
	keys := make([]string, len(finals))
	seen := map[string]int{}
	for i, it := range finals {
		key := "cat:" + it.CategoryID
		if it.IsBreak {
			key = "break:" + it.ID
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}
		keys[i] = key
	}
	return keys
}

// Board lays out the block for a day: the pool first, then mats 1..N in
// order. Categories outside the day are left off; breaks are always shown.
// titles maps category ids to display titles; unknown ids show the id.
func Board(fb models.FinalBlock, day string, days models.DaysMap, titles map[string]string) []Column {
	keys := ItemKeys(fb.Finals)
	visible := visibleFunc(day, days)

	card := func(i int) BoardCard {
		it := fb.Finals[i]
		if it.IsBreak {
			return BoardCard{Key: keys[i], Label: "BREAK", IsBreak: true, BreakID: it.ID}
		}
		label := titles[it.CategoryID]
		if label == "" {
			label = it.CategoryID
		}
		return BoardCard{Key: keys[i], Label: label, CategoryID: it.CategoryID}
	}

	cols := make([]Column, 0, fb.Mats+1)
	pool := Column{Mat: 0, Cards: []BoardCard{}}
	for i, it := range fb.Finals {
		if it.Mat == 0 && visible(it) {
			pool.Cards = append(pool.Cards, card(i))
		}
	}
	cols = append(cols, pool)
	for m := 1; m <= fb.Mats; m++ {
		col := Column{Mat: m, Cards: []BoardCard{}}
		for _, i := range matIndexes(fb.Finals, m) {
			if visible(fb.Finals[i]) {
				col.Cards = append(col.Cards, card(i))
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// Reconcile applies a board layout: columns[m] lists the item keys found in
// lane m after the user rearranged them. Each listed item takes lane m as
// its mat and its position as its order; items moved out of the pool become
// assigned. Unknown keys and items missing from the layout are left alone.
func Reconcile(fb *models.FinalBlock, columns [][]string) (bool, error) {
	if len(columns) > fb.Mats+1 {
		return false, fmt.Errorf("%w: %d columns for %d mats", ErrInvalidLayout, len(columns), fb.Mats)
	}
	byKey := map[string]int{}
	for i, key := range ItemKeys(fb.Finals) {
		byKey[key] = i
	}

	changed := false
	for mat, col := range columns {
		for pos, key := range col {
			i, ok := byKey[key]
			if !ok {
				continue
			}
			it := &fb.Finals[i]
			order := pos
			if mat == 0 {
				if it.IsBreak {
					order = pos + 1
				} else {
					order = 0
				}
			}
			assigned := mat != 0
			if it.Mat == mat && it.Order == order && it.Assigned == assigned {
				continue
			}
			it.Mat = mat
			it.Order = order
			it.Assigned = assigned
			changed = true
		}
	}
	return changed, nil
}
