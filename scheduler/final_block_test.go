package scheduler

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podium-server-go/models"
)

func cat(id string, mat, order int) models.FinalBlockItem {
	return models.FinalBlockItem{CategoryID: id, Mat: mat, Order: order, Assigned: mat != 0}
}

func ids(items []models.FinalBlockItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsBreak {
			out = append(out, "BREAK")
			continue
		}
		out = append(out, it.CategoryID)
	}
	return out
}

func TestReindex_KeepsRelativeOrder(t *testing.T) {
	fb := models.FinalBlock{Mats: 1, Finals: []models.FinalBlockItem{
		cat("A", 1, 5), cat("B", 1, 1), cat("C", 1, 3),
	}}
	Reindex(&fb)

	assert.Equal(t, 3, fb.Finals[0].Order)
	assert.Equal(t, 1, fb.Finals[1].Order)
	assert.Equal(t, 2, fb.Finals[2].Order)
	assert.Equal(t, []string{"B", "C", "A"}, ids(MatItems(fb, 1)))
}

func TestSetMat_ZeroClearsOrderAndAssigned(t *testing.T) {
	it := cat("A", 2, 4)
	SetMat(&it, 0)

	assert.Equal(t, 0, it.Mat)
	assert.Equal(t, 0, it.Order)
	assert.False(t, it.Assigned)
}

func TestNormalize(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{
		{CategoryID: "A", Mat: 1, Order: 2},
		cat("B", 3, 1),
		cat("C", 2, 1),
		{IsBreak: true, Mat: 1},
	}}

	assert.True(t, Normalize(&fb))
	assert.Equal(t, models.FinalBlockItem{CategoryID: "A"}, fb.Finals[0])
	assert.Equal(t, models.FinalBlockItem{CategoryID: "B"}, fb.Finals[1])
	assert.Equal(t, cat("C", 2, 1), fb.Finals[2])
	assert.Equal(t, 4, fb.Finals[3].Order)
	assert.Regexp(t, regexp.MustCompile(`^__BREAK__:[0-9a-f]{8}$`), fb.Finals[3].ID)

	assert.False(t, Normalize(&fb))
}

func TestMissingOrderSortsLast(t *testing.T) {
	var fb models.FinalBlock
	require.NoError(t, json.Unmarshal([]byte(`{"mats": 1, "finals": [
		{"category_id": "A", "mat": 1, "order": 1, "assigned": true},
		{"category_id": "B", "mat": 1, "order": 2, "assigned": true},
		{"category_id": "NEW", "mat": 1, "assigned": true}
	]}`), &fb))

	assert.Equal(t, []string{"A", "B", "NEW"}, ids(MatItems(fb, 1)))

	assert.True(t, Normalize(&fb))
	assert.Equal(t, 3, fb.Finals[2].Order)
	assert.Equal(t, []string{"A", "B", "NEW"}, ids(MatItems(fb, 1)))
	assert.False(t, Normalize(&fb))
}

func TestSwapAndMoveTop(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{
		cat("A", 1, 1), cat("B", 1, 2), cat("C", 1, 3), cat("D", 2, 1),
	}}

	SwapUp(&fb, 1, 2)
	assert.Equal(t, []string{"A", "C", "B"}, ids(MatItems(fb, 1)))

	SwapDown(&fb, 1, 0)
	assert.Equal(t, []string{"C", "A", "B"}, ids(MatItems(fb, 1)))

	MoveTop(&fb, 1, 2)
	assert.Equal(t, []string{"B", "C", "A"}, ids(MatItems(fb, 1)))
	assert.Equal(t, []int{1, 2, 3}, orders(MatItems(fb, 1)))

	before := append([]models.FinalBlockItem{}, fb.Finals...)
	SwapUp(&fb, 1, 0)
	SwapDown(&fb, 1, 2)
	MoveTop(&fb, 1, 7)
	SwapUp(&fb, 9, 1)
	assert.Equal(t, before, fb.Finals)
}

func TestAutoBalance_DayFilter(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{
		{CategoryID: "A"}, {CategoryID: "B"}, {IsBreak: true, ID: "x", Mat: 1, Order: 1}, {CategoryID: "C"}, {CategoryID: "D"},
	}}
	days := models.DaysMap{"1": {"A", "C", "D"}}

	AutoBalance(&fb, "1", days)
	assert.Equal(t, []string{"A", "D", "BREAK"}, ids(MatItems(fb, 1)))
	assert.Equal(t, []string{"C"}, ids(MatItems(fb, 2)))
	assert.Equal(t, 0, fb.Finals[1].Mat)
	assert.True(t, fb.Finals[0].Assigned)

	AutoBalance(&fb, DayAll, days)
	assert.Len(t, MatItems(fb, 0), 0)

	UnassignAll(&fb, "1", days)
	assert.Equal(t, []string{"B"}, ids(filterCats(MatItems(fb, 1), MatItems(fb, 2))))
	assert.Equal(t, []string{"BREAK"}, ids(MatItems(fb, 1))[:1])
}

func TestAutoBalance_EmptyDayTouchesNothing(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{{CategoryID: "A"}}}
	AutoBalance(&fb, "2", models.DaysMap{})
	assert.Equal(t, 0, fb.Finals[0].Mat)
}

func TestBreaks(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{cat("A", 1, 1), cat("B", 1, 2)}}

	br, err := AddBreak(&fb, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, br.Order)
	pool, err := AddBreak(&fb, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Order)
	_, err = AddBreak(&fb, 3)
	assert.ErrorIs(t, err, ErrInvalidMat)

	require.NoError(t, DeleteBreak(&fb, br.ID))
	assert.Len(t, fb.Finals, 3)
	assert.ErrorIs(t, DeleteBreak(&fb, br.ID), ErrBreakNotFound)

	assert.Equal(t, 1, DeleteAllBreaks(&fb))
	assert.Equal(t, []string{"A", "B"}, ids(fb.Finals))
}

func TestSetMats(t *testing.T) {
	fb := models.FinalBlock{Mats: 3, Finals: []models.FinalBlockItem{
		cat("A", 3, 1), cat("B", 1, 4), {IsBreak: true, ID: "b1", Mat: 3, Order: 2}, {IsBreak: true, ID: "b0", Mat: 0, Order: 1},
	}}

	require.NoError(t, SetMats(&fb, 1))
	assert.Equal(t, 1, fb.Mats)
	assert.Equal(t, models.FinalBlockItem{CategoryID: "A"}, fb.Finals[0])
	assert.Equal(t, []string{"BREAK", "BREAK", "B"}, ids(MatItems(fb, 1)))

	assert.ErrorIs(t, SetMats(&fb, 0), ErrInvalidMats)
	assert.ErrorIs(t, SetMats(&fb, 13), ErrInvalidMats)
}

func TestFilterByDay(t *testing.T) {
	finals := []models.FinalBlockItem{{CategoryID: "A"}, {CategoryID: "B"}, {IsBreak: true, ID: "x"}}
	days := models.DaysMap{"1": {"B"}}

	assert.Len(t, FilterByDay(finals, DayAll, days), 3)
	assert.Len(t, FilterByDay(finals, "", days), 3)
	assert.Equal(t, []string{"B", "BREAK"}, ids(FilterByDay(finals, "1", days)))
	assert.Equal(t, []string{"BREAK"}, ids(FilterByDay(finals, "2", days)))
}

func TestGroupByMatAndReset(t *testing.T) {
	fb := models.FinalBlock{Mats: 2, Finals: []models.FinalBlockItem{cat("A", 2, 2), cat("B", 2, 1), {CategoryID: "C"}}}

	groups := GroupByMat(fb)
	require.Len(t, groups, 2)
	assert.Empty(t, groups[0])
	assert.Equal(t, []string{"B", "A"}, ids(groups[1]))

	Reset(&fb)
	assert.Empty(t, fb.Finals)
	assert.Equal(t, 2, fb.Mats)
}

func orders(items []models.FinalBlockItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.Order)
	}
	return out
}

func filterCats(groups ...[]models.FinalBlockItem) []models.FinalBlockItem {
	out := []models.FinalBlockItem{}
	for _, g := range groups {
		for _, it := range g {
			if !it.IsBreak {
				out = append(out, it)
			}
		}
	}
	return out
}
