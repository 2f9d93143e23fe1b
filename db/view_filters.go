package db

import (
	"sort"

	"podium-server-go/models"
)

// Page keys used with the view filters.
const (
	PageLive     = "live"
	PagePrepRoom = "prep_room"
)

func (s *DocumentStore) viewFilters() map[string][]string {
	raw := s.rawObject(DocViewFilters)
	out := make(map[string][]string, len(raw))
	for page, v := range raw {
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
		out[page] = ids
	}
	return out
}

// Hidden returns the category ids hidden on a page.
func (s *DocumentStore) Hidden(page string) map[string]bool {
	set := map[string]bool{}
	for _, id := range s.viewFilters()[page] {
		set[id] = true
	}
	return set
}

// Hide adds a category to a page's hidden list (sorted, no duplicates).
func (s *DocumentStore) Hide(page, categoryID string) error {
	data := s.viewFilters()
	set := map[string]bool{categoryID: true}
	for _, id := range data[page] {
		set[id] = true
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data[page] = ids
	return s.Save(DocViewFilters, data)
}

// ResetPage shows everything again on one page.
func (s *DocumentStore) ResetPage(page string) error {
	data := s.viewFilters()
	if _, ok := data[page]; !ok {
		return nil
	}
	data[page] = []string{}
	return s.Save(DocViewFilters, data)
}

// ResetAllPages shows everything again on every page.
func (s *DocumentStore) ResetAllPages() error {
	return s.Save(DocViewFilters, map[string][]string{})
}
