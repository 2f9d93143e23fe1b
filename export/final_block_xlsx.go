// Package export renders the final block as a spreadsheet.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"podium-server-go/models"
	"podium-server-go/scheduler"
)

const (
	// OverviewSheet holds all mats side by side.
	OverviewSheet = "Overview"
	// BreakLabel marks a break in the exported lists.
	BreakLabel = "----- BREAK -----"

	defaultTitle = "PODIUM SOFTWARE"
	gridTopRow   = 7
)

// ErrNothingToExport is returned when no mat holds any item.
var ErrNothingToExport = errors.New("final block is empty: assign categories to mats first")

// Header is printed above the overview grid.
type Header struct {
	CompetitionName string
	Day             string
	FinalBlockTime  string
	PodiumTime      string
	GeneratedAt     time.Time
}

// Lines returns the competition line and the day line.
func (h Header) Lines() (string, string) {
	title := strings.TrimSpace(h.CompetitionName)
	if title == "" {
		title = defaultTitle
	}
	day := strings.TrimSpace(h.Day)
	switch {
	case day == "" || strings.EqualFold(day, "none"):
		return title, ""
	case strings.EqualFold(day, scheduler.DayAll):
		return title, "DAY: ALL"
	}
	return title, "DAY " + day
}

func (h Header) timing() string {
	if h.FinalBlockTime == "" && h.PodiumTime == "" {
		return ""
	}
	return fmt.Sprintf("Final Block: %s   •   Podiums: %s", h.FinalBlockTime, h.PodiumTime)
}

// MatColumn is one exported mat with its ordered labels.
type MatColumn struct {
	Mat    int
	Labels []string
}

// Columns returns the non-empty mats with their labels. Unknown category
// ids are printed as is.
func Columns(fb models.FinalBlock, titles map[string]string) []MatColumn {
	var out []MatColumn
	for i, items := range scheduler.GroupByMat(fb) {
		if len(items) == 0 {
			continue
		}
		col := MatColumn{Mat: i + 1, Labels: make([]string, 0, len(items))}
		for _, it := range items {
			col.Labels = append(col.Labels, label(it, titles))
		}
		out = append(out, col)
	}
	return out
}

func label(it models.FinalBlockItem, titles map[string]string) string {
	if it.IsBreak {
		return BreakLabel
	}
	if t := titles[it.CategoryID]; t != "" {
		return t
	}
	return it.CategoryID
}

// Workbook builds the overview sheet and one sheet per non-empty mat.
func Workbook(fb models.FinalBlock, titles map[string]string, h Header) (*excelize.File, error) {
	cols := Columns(fb, titles)
	if len(cols) == 0 {
		return nil, ErrNothingToExport
	}
	if h.GeneratedAt.IsZero() {
		h.GeneratedAt = time.Now()
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), OverviewSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeOverview(f, cols, h); err != nil {
		f.Close()
		return nil, err
	}
	for _, col := range cols {
		if err := writeMatSheet(f, col); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write renders the workbook to w.
func Write(w io.Writer, fb models.FinalBlock, titles map[string]string, h Header) error {
	f, err := Workbook(fb, titles, h)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, cols []MatColumn, h Header) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	head, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	title, day := h.Lines()
	lines := []string{title, "FINAL BLOCK — OVERVIEW", day, h.timing(), "Generated: " + h.GeneratedAt.Format("02/01/2006 15:04")}
	for i, text := range lines {
		if text == "" {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellValue(OverviewSheet, cell, text); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(OverviewSheet, "A1", "A2", bold); err != nil {
		return err
	}

	for c, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(c+1, gridTopRow)
		if err := f.SetCellValue(OverviewSheet, cell, fmt.Sprintf("MAT %d", col.Mat)); err != nil {
			return err
		}
		if err := f.SetCellStyle(OverviewSheet, cell, cell, head); err != nil {
			return err
		}
		for r, text := range col.Labels {
			cell, _ := excelize.CoordinatesToCellName(c+1, gridTopRow+1+r)
			if err := f.SetCellValue(OverviewSheet, cell, text); err != nil {
				return err
			}
		}
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(OverviewSheet, name, name, 40); err != nil {
			return err
		}
	}
	return nil
}

func writeMatSheet(f *excelize.File, col MatColumn) error {
	sheet := fmt.Sprintf("MAT %d", col.Mat)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"#", "Category"}); err != nil {
		return err
	}
	for i, text := range col.Labels {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &[]any{i + 1, text}); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "B", "B", 50)
}
