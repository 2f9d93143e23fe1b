package views

import (
	"sort"
	"strconv"
)

// DayPlan is the ordered category list of one day.
type DayPlan struct {
	Day        string        `json:"day"`
	Categories []CategoryRef `json:"categories"`
}

// PlanningOverview lists categories per day plus the undistributed ones.
type PlanningOverview struct {
	Distributed   bool          `json:"distributed"`
	Days          []DayPlan     `json:"days"`
	Undistributed []CategoryRef `json:"undistributed"`
}

// Planning builds the day-by-day overview. Without any distribution every
// category is listed as undistributed.
func (v *Views) Planning() PlanningOverview {
	cats := v.store.Categories()
	byID := v.store.CategoriesByID()
	days := v.store.FinalsDays()

	out := PlanningOverview{Distributed: len(days) > 0, Days: []DayPlan{}, Undistributed: []CategoryRef{}}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return dayLess(keys[i], keys[j]) })

	placed := map[string]bool{}
	for _, day := range keys {
		plan := DayPlan{Day: day, Categories: []CategoryRef{}}
		for _, id := range days[day] {
			plan.Categories = append(plan.Categories, ref(id, byID))
			placed[id] = true
		}
		out.Days = append(out.Days, plan)
	}
	for _, c := range cats {
		if !placed[c.ID] {
			out.Undistributed = append(out.Undistributed, CategoryRef{ID: c.ID, Title: c.Title, Known: true})
		}
	}
	return out
}

// dayLess orders numeric day keys numerically and after them the rest.
func dayLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
