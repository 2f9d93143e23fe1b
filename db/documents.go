package db

import (
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"podium-server-go/models"
)

// --- VIPs ---

// VIPs returns every stored VIP; malformed entries are dropped.
func (s *DocumentStore) VIPs() []models.VIP {
	raw, _ := s.LoadRaw(DocVIP)
	return decodeList[models.VIP](raw)
}

// SaveVIPs overwrites the VIP list.
func (s *DocumentStore) SaveVIPs(vips []models.VIP) error {
	if vips == nil {
		vips = []models.VIP{}
	}
	return s.Save(DocVIP, vips)
}

// --- Categories ---

// Categories returns every stored category.
func (s *DocumentStore) Categories() []models.Category {
	raw, _ := s.LoadRaw(DocCategories)
	return decodeList[models.Category](raw)
}

// SaveCategories overwrites the category list.
func (s *DocumentStore) SaveCategories(cats []models.Category) error {
	if cats == nil {
		cats = []models.Category{}
	}
	for i := range cats {
		if cats[i].Medalists == nil {
			cats[i].Medalists = []models.Medalist{}
		}
	}
	return s.Save(DocCategories, cats)
}

// CategoriesByID indexes categories by id, falling back to the title for
// entries without one. The first occurrence wins.
func (s *DocumentStore) CategoriesByID() map[string]models.Category {
	return IndexCategories(s.Categories())
}

// IndexCategories keys categories by id (or title when the id is empty).
func IndexCategories(cats []models.Category) map[string]models.Category {
	out := make(map[string]models.Category, len(cats))
	for _, c := range cats {
		key := c.ID
		if key == "" {
			key = c.Title
		}
		if key == "" {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = c
		}
	}
	return out
}

// --- Planning ---

// Planning accepts a list of items, a list of bare category ids, or an
// object keyed by id. Items come back in stored order; callers sort.
func (s *DocumentStore) Planning() []models.PlanningItem {
	raw, _ := s.LoadRaw(DocPlanning)

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return decodePlanningItems(list)
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byKey); err == nil {
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			values = append(values, byKey[k])
		}
		return decodePlanningItems(values)
	}

	s.log.Warn("planning has an unexpected shape, ignoring")
	return []models.PlanningItem{}
}

func decodePlanningItems(items []json.RawMessage) []models.PlanningItem {
	out := []models.PlanningItem{}
	for _, one := range items {
		var id string
		if err := json.Unmarshal(one, &id); err == nil {
			if id != "" {
				out = append(out, models.PlanningItem{CategoryID: id})
			}
			continue
		}
		var it models.PlanningItem
		if err := json.Unmarshal(one, &it); err == nil {
			out = append(out, it)
		}
	}
	return out
}

// SavePlanning overwrites the planning list.
func (s *DocumentStore) SavePlanning(items []models.PlanningItem) error {
	if items == nil {
		items = []models.PlanningItem{}
	}
	return s.Save(DocPlanning, items)
}

// --- Assignments ---

// Assignments returns the VIP assignments.
func (s *DocumentStore) Assignments() []models.Assignment {
	raw, _ := s.LoadRaw(DocAssignment)
	out := decodeList[models.Assignment](raw)
	for i := range out {
		if out[i].VipIDs == nil {
			out[i].VipIDs = []string{}
		}
		if out[i].VipRoles == nil {
			out[i].VipRoles = map[string]string{}
		}
	}
	return out
}

// SaveAssignments overwrites the assignment list.
func (s *DocumentStore) SaveAssignments(list []models.Assignment) error {
	if list == nil {
		list = []models.Assignment{}
	}
	return s.Save(DocAssignment, list)
}

// --- Final block ---

// FinalBlock returns the stored schedule with mats >= 1.
func (s *DocumentStore) FinalBlock() models.FinalBlock {
	fb := models.FinalBlock{Mats: 1, Finals: []models.FinalBlockItem{}}
	if err := s.Load(DocFinalBlock, &fb); err != nil {
		s.log.Warn("final block unreadable", zap.Error(err))
	}
	if fb.Mats < 1 {
		fb.Mats = 1
	}
	if fb.Finals == nil {
		fb.Finals = []models.FinalBlockItem{}
	}
	return fb
}

// SaveFinalBlock overwrites the schedule.
func (s *DocumentStore) SaveFinalBlock(fb models.FinalBlock) error {
	if fb.Finals == nil {
		fb.Finals = []models.FinalBlockItem{}
	}
	return s.Save(DocFinalBlock, fb)
}

// --- Days ---

// FinalsDays returns the day distribution. Non-list values are dropped and
// ids are coerced to strings.
func (s *DocumentStore) FinalsDays() models.DaysMap {
	raw, _ := s.LoadRaw(DocFinalsDays)
	var generic map[string]any
	out := models.DaysMap{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return out
	}
	for day, v := range generic {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		ids := make([]string, 0, len(list))
		for _, x := range list {
			if id := models.AsString(x); id != "" {
				ids = append(ids, id)
			}
		}
		out[day] = ids
	}
	return out
}

// SaveFinalsDays overwrites the day distribution.
func (s *DocumentStore) SaveFinalsDays(days models.DaysMap) error {
	if days == nil {
		days = models.DaysMap{}
	}
	return s.Save(DocFinalsDays, days)
}

// DaysMeta returns the configured number of days.
func (s *DocumentStore) DaysMeta() models.DaysMeta {
	raw, _ := s.LoadRaw(DocFinalsDaysMeta)
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return models.DaysMeta{}
	}
	n, _ := models.AsInt(generic["num_days"])
	if n < 0 {
		n = 0
	}
	return models.DaysMeta{NumDays: n}
}

// SaveDaysMeta stores the number of days.
func (s *DocumentStore) SaveDaysMeta(meta models.DaysMeta) error {
	return s.Save(DocFinalsDaysMeta, meta)
}
