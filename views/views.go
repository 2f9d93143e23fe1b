// Package views builds the read models behind the live-operation screens.
package views

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
)

// Placeholder stands in for a missing title.
const Placeholder = "—"

var (
	// ErrInvalidRole is returned for a presenter role outside General, Gold, Silver, Bronze.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNothingToValidate is returned when a screen has no current category.
	ErrNothingToValidate = errors.New("no category to validate")
)

// Views projects stored documents for each screen.
type Views struct {
	store     *db.DocumentStore
	photosDir string
	log       *zap.Logger
}

// New creates the view layer. photosDir holds VIP photos named by VIP id.
func New(store *db.DocumentStore, photosDir string, log *zap.Logger) *Views {
	return &Views{store: store, photosDir: photosDir, log: log.Named("views")}
}

// MedalLine is a medalist as printed on a screen. Detail is the club when
// clubs are shown and known, otherwise the nation.
type MedalLine struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// CategoryRef is a category id with its display title.
type CategoryRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Known bool   `json:"known"`
}

func ref(id string, cats map[string]models.Category) CategoryRef {
	if c, ok := cats[id]; ok {
		return CategoryRef{ID: id, Title: c.Title, Known: true}
	}
	return CategoryRef{ID: id, Title: Placeholder}
}

// sortedPlanning returns the planning ordered by its order field.
func (v *Views) sortedPlanning() []models.PlanningItem {
	items := v.store.Planning()
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items
}

func medalLines(meds []models.Medalist, showClub, descending bool) []MedalLine {
	sorted := append([]models.Medalist{}, meds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].Rank > sorted[j].Rank
		}
		return sorted[i].Rank < sorted[j].Rank
	})
	out := make([]MedalLine, 0, len(sorted))
	for _, m := range sorted {
		detail := m.Nation
		if showClub && m.Club != "" {
			detail = m.Club
		}
		out = append(out, MedalLine{Rank: m.Rank, Name: m.Name, Detail: detail})
	}
	return out
}

func assignmentFor(list []models.Assignment, categoryID string) models.Assignment {
	for _, a := range list {
		if a.CategoryID == categoryID {
			return a
		}
	}
	return models.Assignment{CategoryID: categoryID, VipIDs: []string{}, VipRoles: map[string]string{}}
}

func vipsByID(vips []models.VIP) map[string]models.VIP {
	out := make(map[string]models.VIP, len(vips))
	for _, vip := range vips {
		key := vip.ID
		if key == "" {
			key = vip.Name
		}
		out[key] = vip
	}
	return out
}

func clampCursor(cursor, total int) int {
	return max(0, min(cursor, total-1))
}
