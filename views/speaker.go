package views

import (
	"sort"

	"podium-server-go/models"
)

// SpeakerBlock is what the speaker announces for one category.
type SpeakerBlock struct {
	CategoryID string      `json:"category_id"`
	Title      string      `json:"title"`
	Medalists  []MedalLine `json:"medalists"`
	Presenters []Presenter `json:"presenters"`
}

// Speaker is the prompter: the category being presented and the next one.
// End is set when the current category is the last.
type Speaker struct {
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Current *SpeakerBlock `json:"current"`
	Next    *SpeakerBlock `json:"next"`
	End     bool          `json:"end"`
}

// presenting order: bronze first, gold last, then general presenters
var roleRank = map[string]int{
	models.RoleBronze: 1,
	models.RoleSilver: 2,
	models.RoleGold:   3,
}

// speakerOrder follows the planning when any planning id matches a category
// id or title, otherwise the stored category order.
func (v *Views) speakerOrder() []models.Category {
	cats := v.store.Categories()
	planning := v.store.Planning()
	if len(planning) == 0 {
		return cats
	}
	ordered := []models.Category{}
	for _, it := range planning {
		for _, c := range cats {
			if c.ID == it.CategoryID || c.Title == it.CategoryID {
				ordered = append(ordered, c)
			}
		}
	}
	if len(ordered) == 0 {
		return cats
	}
	return ordered
}

// Speaker returns the prompter at a cursor, clamped into range.
func (v *Views) Speaker(cursor int) Speaker {
	ordered := v.speakerOrder()
	out := Speaker{Total: len(ordered)}
	if len(ordered) == 0 {
		out.End = true
		return out
	}
	out.Index = clampCursor(cursor, len(ordered))

	assignments := v.store.Assignments()
	vips := vipsByID(v.store.VIPs())
	showClub := v.store.Settings().ShowClub

	block := func(c models.Category) *SpeakerBlock {
		id := c.ID
		if id == "" {
			id = c.Title
		}
		a := assignmentFor(assignments, id)
		b := &SpeakerBlock{
			CategoryID: id,
			Title:      c.Title,
			Medalists:  medalLines(c.Medalists, showClub, true),
			Presenters: []Presenter{},
		}
		vids := append([]string{}, a.VipIDs...)
		sort.SliceStable(vids, func(i, j int) bool {
			return presentingRank(a.VipRoles[vids[i]]) < presentingRank(a.VipRoles[vids[j]])
		})
		for _, vid := range vids {
			b.Presenters = append(b.Presenters, presenter(vid, vips, a.VipRoles))
		}
		return b
	}

	out.Current = block(ordered[out.Index])
	if out.Index+1 < len(ordered) {
		out.Next = block(ordered[out.Index+1])
	} else {
		out.End = true
	}
	return out
}

func presentingRank(role string) int {
	if r, ok := roleRank[role]; ok {
		return r
	}
	return 4
}
