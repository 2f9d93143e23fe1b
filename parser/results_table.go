package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"podium-server-go/models"
)

// ErrMissingColumns is returned when a results table lacks category, rank or name.
var ErrMissingColumns = errors.New("missing required columns")

// column aliases, matched on the lower-cased trimmed header
var columnAliases = map[string][]string{
	"category": {"category", "cat", "title", "division"},
	"rank":     {"rank", "place", "pos", "position", "order"},
	"name":     {"name", "athlete", "competitor"},
	"nation":   {"nation", "country", "ioc", "team"},
	"club":     {"club", "school"},
}

// TableCategory is a category rebuilt from a results table.
type TableCategory struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Medalists []models.Medalist `json:"medalists"`
}

// ParseResultsRows groups table rows (first row = header) by category, in
// first-seen order. Rows without a category or a name are skipped; ranks
// that are not numeric become 0.
func ParseResultsRows(rows [][]string) ([]TableCategory, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumns)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := map[string]int{}
	for target, candidates := range columnAliases {
		for i, h := range header {
			if contains(candidates, h) {
				cols[target] = i
				break
			}
		}
	}
	for _, required := range []string{"category", "rank", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: found %v, need at least category, rank, name", ErrMissingColumns, header)
		}
	}

	cell := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		v := strings.TrimSpace(row[i])
		if strings.EqualFold(v, "nan") {
			return ""
		}
		return v
	}

	var order []string
	byTitle := map[string][]models.Medalist{}
	for _, row := range rows[1:] {
		title := cell(row, "category")
		name := cell(row, "name")
		if title == "" || name == "" {
			continue
		}
		if _, seen := byTitle[title]; !seen {
			order = append(order, title)
			byTitle[title] = []models.Medalist{}
		}
		byTitle[title] = append(byTitle[title], models.Medalist{
			Rank:   parseRank(cell(row, "rank")),
			Name:   name,
			Nation: cell(row, "nation"),
			Club:   cell(row, "club"),
		})
	}

	out := make([]TableCategory, 0, len(order))
	for _, title := range order {
		out = append(out, TableCategory{ID: Slugify(title), Title: title, Medalists: byTitle[title]})
	}
	return out, nil
}

// ReadCSV reads a CSV export, sniffing the delimiter among , ; and tab.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// ReadXLSX returns the rows of the named sheet, or of the first sheet when
// sheet is empty.
func ReadXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func sniffDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(firstLine, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func parseRank(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int(f)
	}
	return 0
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
