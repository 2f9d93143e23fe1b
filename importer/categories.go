package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"podium-server-go/models"
	"podium-server-go/parser"
)

var (
	keepTitle = regexp.MustCompile(`(?i)JIU[- ]?JITSU|NE[- ]?WAZA|DUO|SHOW|FIGHTING`)
	sexValue  = regexp.MustCompile(`^[mfMF]$`)
)

// PlausibleTitle reports whether a title names a real competition category.
func PlausibleTitle(title string) bool {
	return title != "" && !sexValue.MatchString(title) && keepTitle.MatchString(title)
}

// idSet hands out unique ids, suffixing collisions with -2, -3, ...
type idSet map[string]bool

func (s idSet) claim(id string) string {
	if s[id] {
		base := id
		for k := 2; ; k++ {
			id = fmt.Sprintf("%s-%d", base, k)
			if !s[id] {
				break
			}
		}
	}
	s[id] = true
	return id
}

// ParseCategoriesCSV keeps exactly the first two columns (id, title). A title
// holding only a sex letter is replaced by the id when the id is a real
// category. Duplicate ids keep their first row. A header row is dropped by the
// title filter.
func ParseCategoriesCSV(r io.Reader) ([]models.Category, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("failed to decode csv: %w", err)
		}
	}
	rows, err := parser.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	out := []models.Category{}
	seen := map[string]bool{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id, title := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if id == "" || title == "" {
			continue
		}
		if sexValue.MatchString(title) && keepTitle.MatchString(id) {
			title = id
		}
		if !PlausibleTitle(title) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, newCategory(id, title))
	}
	return out, nil
}

// ParseCategoriesTXT reads one title per line; ids are lower-case slugs.
func ParseCategoriesTXT(r io.Reader) ([]models.Category, error) {
	out := []models.Category{}
	ids := idSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		title := strings.TrimSpace(strings.ToValidUTF8(scanner.Text(), ""))
		if !PlausibleTitle(title) {
			continue
		}
		out = append(out, newCategory(ids.claim(parser.LowerSlug(title)), title))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read txt: %w", err)
	}
	return out, nil
}

// ParseCategoriesXLSX reads a sheet with a title (or name) column and an
// optional id column. An empty sheet name selects the first sheet.
func ParseCategoriesXLSX(r io.Reader, sheet string) ([]models.Category, error) {
	rows, err := parser.ReadXLSX(r, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.Category{}, nil
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	_, hasTitle := cols["title"]
	_, hasName := cols["name"]
	if !hasTitle && !hasName {
		return nil, fmt.Errorf("%w: need a title or name column", parser.ErrMissingColumns)
	}
	cell := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, map[string]any{
			"id":    cell(row, "id"),
			"title": cell(row, "title"),
			"name":  cell(row, "name"),
		})
	}
	return categoriesFromRecords(records), nil
}

// categoriesFromRecords applies the shared title filter and id rules to
// loosely typed records from spreadsheets or API payloads.
func categoriesFromRecords(records []map[string]any) []models.Category {
	out := []models.Category{}
	ids := idSet{}
	for _, rec := range records {
		title := models.AsString(rec["title"])
		if title == "" {
			title = models.AsString(rec["name"])
		}
		if !PlausibleTitle(title) {
			continue
		}
		id := models.AsString(rec["id"])
		if id == "" {
			id = parser.LowerSlug(title)
		}
		out = append(out, newCategory(ids.claim(id), title))
	}
	return out
}

// FetchCategories GETs a category list from url. The payload is either a
// list or an object with a "results" list. Extra headers and the timeout come
// from the stored API config.
func (im *Importer) FetchCategories(ctx context.Context, url, token string) ([]models.Category, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}
	cfg := im.store.APIConfig()
	if cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := im.client.Do(req)
	if err != nil {
		im.log.Warn("category api request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode api response: %w", err)
	}
	if obj, ok := payload.(map[string]any); ok {
		if results, ok := obj["results"]; ok {
			payload = results
		}
	}
	list, ok := payload.([]any)
	if !ok {
		return nil, errors.New("unexpected JSON format (expecting a list)")
	}

	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return categoriesFromRecords(records), nil
}

// SaveCategories overwrites the stored categories with an import result.
func (im *Importer) SaveCategories(cats []models.Category, source string) (int, error) {
	if len(cats) == 0 {
		return 0, ErrNoCategories
	}
	if err := im.store.SaveCategories(cats); err != nil {
		return 0, fmt.Errorf("failed to save categories: %w", err)
	}
	im.log.Info("categories imported", zap.String("source", source), zap.Int("count", len(cats)))
	return len(cats), nil
}

// ResetCategories empties categories, planning and the day distribution.
func (im *Importer) ResetCategories() error {
	if err := im.store.SaveCategories([]models.Category{}); err != nil {
		return err
	}
	if err := im.store.SavePlanning([]models.PlanningItem{}); err != nil {
		return err
	}
	return im.store.SaveFinalsDays(models.DaysMap{})
}

func newCategory(id, title string) models.Category {
	return models.Category{ID: id, Title: title, Medalists: []models.Medalist{}}
}
