package views

import (
	"podium-server-go/db"
)

// PrepRoomSize is how many podiums the prep room prepares ahead.
const PrepRoomSize = 3

// PrepRoom returns the next podiums to prepare: planning entries not done
// and not yet sent.
func (v *Views) PrepRoom() []Slot {
	planning := v.visiblePlanning(db.PagePrepRoom, true)
	if len(planning) > PrepRoomSize {
		planning = planning[:PrepRoomSize]
	}
	cats := v.store.CategoriesByID()
	showClub := v.store.Settings().ShowClub

	out := make([]Slot, 0, len(planning))
	for _, it := range planning {
		s := v.slot(it, cats, showClub)
		if s.Title == Placeholder && s.CategoryID != "" {
			s.Title = s.CategoryID
		}
		out = append(out, s)
	}
	return out
}

// SendPrepRoom marks a podium as prepared.
func (v *Views) SendPrepRoom(categoryID string) error {
	return v.store.Hide(db.PagePrepRoom, categoryID)
}
