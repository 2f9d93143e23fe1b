// Package importer loads category rosters and results into the document store.
package importer

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
	"podium-server-go/parser"
)

// Results import modes.
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

var (
	// ErrInvalidMode is returned for an import mode other than merge or replace.
	ErrInvalidMode = errors.New("invalid import mode")
	// ErrNoCategories is returned when an import yields nothing to save.
	ErrNoCategories = errors.New("no valid categories found")
	// ErrMissingURL is returned by an API import without a URL.
	ErrMissingURL = errors.New("api url is required")
)

// Importer writes imported data through the document store.
type Importer struct {
	store  *db.DocumentStore
	client *http.Client
	log    *zap.Logger
}

// New creates an Importer. The HTTP client is used for API category imports.
func New(store *db.DocumentStore, log *zap.Logger) *Importer {
	return &Importer{
		store:  store,
		client: &http.Client{},
		log:    log.Named("importer"),
	}
}

// NormalizeCategory fills a missing id from the title slug, a missing title
// from the id, and orders medalists by rank (stable).
func NormalizeCategory(c models.Category) models.Category {
	title := strings.TrimSpace(c.Title)
	id := strings.TrimSpace(c.ID)
	if id == "" {
		id = parser.Slugify(title)
	}
	if title == "" {
		title = id
	}
	meds := append([]models.Medalist{}, c.Medalists...)
	sort.SliceStable(meds, func(i, j int) bool { return meds[i].Rank < meds[j].Rank })
	return models.Category{
		ID:         id,
		Title:      title,
		Discipline: c.Discipline,
		Round:      c.Round,
		Medalists:  meds,
	}
}

// FromParsedText converts text-parser output into normalised categories.
func FromParsedText(parsed []parser.ParsedCategory) []models.Category {
	out := make([]models.Category, 0, len(parsed))
	for _, p := range parsed {
		out = append(out, NormalizeCategory(models.Category{Title: p.Title, Medalists: p.Medalists}))
	}
	return out
}

// FromTable converts tabular results into normalised categories.
func FromTable(parsed []parser.TableCategory) []models.Category {
	out := make([]models.Category, 0, len(parsed))
	for _, p := range parsed {
		out = append(out, NormalizeCategory(models.Category{ID: p.ID, Title: p.Title, Medalists: p.Medalists}))
	}
	return out
}

// MergeCategories updates existing categories matched by id (or title) with the
// incoming medalists and title, and appends the rest.
func MergeCategories(existing, incoming []models.Category) []models.Category {
	merged := append([]models.Category{}, existing...)
	index := make(map[string]int, len(merged))
	for i, c := range merged {
		if key := categoryKey(c); key != "" {
			index[key] = i
		}
	}
	for _, inc := range incoming {
		i, ok := index[categoryKey(inc)]
		if !ok {
			merged = append(merged, inc)
			if key := categoryKey(inc); key != "" {
				index[key] = len(merged) - 1
			}
			continue
		}
		merged[i].Medalists = inc.Medalists
		if inc.Title != "" {
			merged[i].Title = inc.Title
		}
	}
	return merged
}

func categoryKey(c models.Category) string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Title)
}

// CheckMode validates a results import mode; "" means merge.
func CheckMode(mode string) error {
	switch mode {
	case "", ModeMerge, ModeReplace:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
}

// ApplyResults merges or replaces the stored categories. Planning is untouched.
func (im *Importer) ApplyResults(incoming []models.Category, mode string) ([]models.Category, error) {
	var cats []models.Category
	switch mode {
	case ModeMerge, "":
		cats = MergeCategories(im.store.Categories(), incoming)
	case ModeReplace:
		cats = incoming
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err := im.store.SaveCategories(cats); err != nil {
		return nil, fmt.Errorf("failed to save categories: %w", err)
	}
	im.log.Info("results imported", zap.String("mode", mode), zap.Int("incoming", len(incoming)), zap.Int("total", len(cats)))
	return cats, nil
}

// ClearResults empties every medalist list and keeps the categories.
func (im *Importer) ClearResults() error {
	cats := im.store.Categories()
	for i := range cats {
		cats[i].Medalists = []models.Medalist{}
	}
	return im.store.SaveCategories(cats)
}

// ClearPlanning empties the day distribution.
func (im *Importer) ClearPlanning() error {
	return im.store.SaveFinalsDays(models.DaysMap{})
}

// DeleteAll empties categories, the day distribution and VIP assignments.
func (im *Importer) DeleteAll() error {
	if err := im.store.SaveCategories([]models.Category{}); err != nil {
		return err
	}
	if err := im.store.SaveFinalsDays(models.DaysMap{}); err != nil {
		return err
	}
	return im.store.SaveAssignments([]models.Assignment{})
}
