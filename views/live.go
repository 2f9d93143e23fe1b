package views

import (
	"podium-server-go/db"
	"podium-server-go/models"
)

// Slot is a category shown on the live or prep room screen.
type Slot struct {
	CategoryID string      `json:"category_id"`
	Title      string      `json:"title"`
	Medalists  []MedalLine `json:"medalists"`
}

// Live is the public display: the current category and the two after it.
type Live struct {
	PlanningSize int   `json:"planning_size"`
	Current      *Slot `json:"current"`
	Next         *Slot `json:"next"`
	After        *Slot `json:"after"`
}

func (v *Views) slot(item models.PlanningItem, cats map[string]models.Category, showClub bool) Slot {
	s := Slot{CategoryID: item.CategoryID, Title: Placeholder, Medalists: []MedalLine{}}
	if c, ok := cats[item.CategoryID]; ok {
		s.Title = c.Title
		s.Medalists = medalLines(c.Medalists, showClub, false)
	}
	return s
}

// visiblePlanning returns the ordered planning without the ids hidden on page.
func (v *Views) visiblePlanning(page string, skipDone bool) []models.PlanningItem {
	hidden := v.store.Hidden(page)
	out := []models.PlanningItem{}
	for _, it := range v.sortedPlanning() {
		if (skipDone && it.Done) || hidden[it.CategoryID] {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Live returns current, next and after from the planning, skipping
// categories already validated on the live screen.
func (v *Views) Live() Live {
	all := v.store.Planning()
	planning := v.visiblePlanning(db.PageLive, false)
	cats := v.store.CategoriesByID()
	showClub := v.store.Settings().ShowClub

	out := Live{PlanningSize: len(all)}
	for i := 0; i < len(planning) && i < 3; i++ {
		s := v.slot(planning[i], cats, showClub)
		switch i {
		case 0:
			out.Current = &s
		case 1:
			out.Next = &s
		case 2:
			out.After = &s
		}
	}
	return out
}

// ValidateLive hides the current category from the live screen.
func (v *Views) ValidateLive() (string, error) {
	planning := v.visiblePlanning(db.PageLive, false)
	if len(planning) == 0 {
		return "", ErrNothingToValidate
	}
	id := planning[0].CategoryID
	return id, v.store.Hide(db.PageLive, id)
}
