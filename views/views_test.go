package views

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
)

func newTestViews(t *testing.T) (*Views, *db.DocumentStore, string) {
	t.Helper()
	backend, err := db.NewFileBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := db.NewDocumentStore(backend, zap.NewNop())
	photos := t.TempDir()
	return New(store, photos, zap.NewNop()), store, photos
}

func seeded(t *testing.T) (*Views, *db.DocumentStore, string) {
	t.Helper()
	v, store, photos := newTestViews(t)
	store.SeedData()
	return v, store, photos
}

func TestPlanning_NoDistribution(t *testing.T) {
	v, _, _ := seeded(t)

	p := v.Planning()
	assert.False(t, p.Distributed)
	assert.Empty(t, p.Days)
	assert.Len(t, p.Undistributed, 3)
}

func TestPlanning_ByDay(t *testing.T) {
	v, store, _ := seeded(t)
	require.NoError(t, store.SaveFinalsDays(models.DaysMap{"10": {"M-62"}, "2": {"W-57", "ghost"}}))

	p := v.Planning()
	require.Len(t, p.Days, 2)
	assert.Equal(t, "2", p.Days[0].Day)
	assert.Equal(t, CategoryRef{ID: "W-57", Title: "Women -57 kg", Known: true}, p.Days[0].Categories[0])
	assert.Equal(t, CategoryRef{ID: "ghost", Title: Placeholder}, p.Days[0].Categories[1])
	assert.Equal(t, "10", p.Days[1].Day)
	assert.Equal(t, []CategoryRef{{ID: "Duo-Mix", Title: "Duo System Mixed", Known: true}}, p.Undistributed)
}

func TestAssignation(t *testing.T) {
	v, store, _ := seeded(t)
	require.NoError(t, store.SaveFinalsDays(models.DaysMap{"1": {"W-57", "Duo-Mix"}, "2": {"W-57", "X"}}))

	all := v.Assignation("")
	assert.Equal(t, FilterAll, all.Filter)
	assert.Equal(t, []string{"1", "2"}, all.Days)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, AssignationCounts{ToDo: 3, Unassigned: 1, Assigned: 2}, all.Counts)
	assert.Equal(t, "X", all.Entries[2].Title)
	assert.Equal(t, []string{"Dr. Amina Karim", "Mr. Luca Romano", "Ms. Sarah Ortega"}, vipNames(all.VIPs))
	assert.Len(t, all.Entries[0].Nations, 4)

	day2 := v.Assignation("Day 2")
	assert.Equal(t, 2, day2.Counts.ToDo)
	assert.Equal(t, "Mayor", day2.Entries[0].Presenters[1].Function)
}

func TestToggleVIP(t *testing.T) {
	v, store, _ := seeded(t)

	a, err := v.ToggleVIP("W-57", "vip3", models.RoleGold)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip1", "vip2", "vip3"}, a.VipIDs)
	assert.Equal(t, map[string]string{"vip3": models.RoleGold}, a.VipRoles)

	a, err = v.ToggleVIP("W-57", "vip3", models.RoleGeneral)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip1", "vip2"}, a.VipIDs)
	assert.Empty(t, a.VipRoles)

	a, err = v.ToggleVIP("NEW", "vip1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip1"}, a.VipIDs)
	assert.Len(t, store.Assignments(), 4)

	_, err = v.ToggleVIP("W-57", "vip1", "Platinum")
	assert.ErrorIs(t, err, ErrInvalidRole)

	require.NoError(t, v.ClearVIPs("W-57"))
	for _, a := range store.Assignments() {
		if a.CategoryID == "W-57" {
			assert.Empty(t, a.VipIDs)
		}
	}
}

func TestLive(t *testing.T) {
	v, store, _ := seeded(t)
	require.NoError(t, store.SavePlanning([]models.PlanningItem{
		{Order: 3, CategoryID: "Duo-Mix"}, {Order: 1, CategoryID: "W-57"}, {Order: 2, CategoryID: "M-62"}, {Order: 4, CategoryID: "gone"},
	}))

	live := v.Live()
	assert.Equal(t, 4, live.PlanningSize)
	require.NotNil(t, live.After)
	assert.Equal(t, "W-57", live.Current.CategoryID)
	assert.Equal(t, MedalLine{Rank: 1, Name: "Alice Dupont", Detail: "FRA"}, live.Current.Medalists[0])
	assert.Equal(t, "Duo-Mix", live.After.CategoryID)

	_, err := store.SaveSettings(map[string]any{"show_club": true})
	require.NoError(t, err)
	id, err := v.ValidateLive()
	require.NoError(t, err)
	assert.Equal(t, "W-57", id)

	live = v.Live()
	assert.Equal(t, "M-62", live.Current.CategoryID)
	assert.Equal(t, "Prague JJ", live.Current.Medalists[0].Detail)
	assert.Equal(t, Placeholder, live.After.Title)

	for i := 0; i < 3; i++ {
		_, err = v.ValidateLive()
		require.NoError(t, err)
	}
	_, err = v.ValidateLive()
	assert.ErrorIs(t, err, ErrNothingToValidate)
	assert.Nil(t, v.Live().Current)
}

func TestPrepRoom(t *testing.T) {
	v, store, _ := seeded(t)
	require.NoError(t, store.SavePlanning([]models.PlanningItem{
		{Order: 1, CategoryID: "W-57", Done: true}, {Order: 2, CategoryID: "M-62"}, {Order: 3, CategoryID: "Duo-Mix"}, {Order: 4, CategoryID: "A"}, {Order: 5, CategoryID: "B"},
	}))

	items := v.PrepRoom()
	assert.Equal(t, []string{"M-62", "Duo-Mix", "A"}, slotIDs(items))
	assert.Equal(t, "A", items[2].Title)

	require.NoError(t, v.SendPrepRoom("M-62"))
	assert.Equal(t, []string{"Duo-Mix", "A", "B"}, slotIDs(v.PrepRoom()))
}

func TestSpeaker(t *testing.T) {
	v, store, _ := seeded(t)
	require.NoError(t, store.SaveAssignments([]models.Assignment{{
		CategoryID: "M-62",
		VipIDs:     []string{"vip1", "vip2", "vip3"},
		VipRoles:   map[string]string{"vip1": models.RoleGold, "vip3": models.RoleBronze},
	}}))

	sp := v.Speaker(1)
	assert.Equal(t, 3, sp.Total)
	assert.Equal(t, "M-62", sp.Current.CategoryID)
	assert.Equal(t, []int{3, 3, 2, 1}, ranks(sp.Current.Medalists))
	assert.Equal(t, []string{"vip3", "vip1", "vip2"}, presenterIDs(sp.Current.Presenters))
	assert.Equal(t, models.RoleGeneral, sp.Current.Presenters[2].Role)
	assert.Equal(t, "Duo-Mix", sp.Next.CategoryID)
	assert.False(t, sp.End)

	sp = v.Speaker(99)
	assert.Equal(t, 2, sp.Index)
	assert.Nil(t, sp.Next)
	assert.True(t, sp.End)

	require.NoError(t, store.SavePlanning([]models.PlanningItem{{CategoryID: "nothing"}}))
	assert.Equal(t, 3, v.Speaker(0).Total)

	require.NoError(t, store.SavePlanning([]models.PlanningItem{{CategoryID: "Duo System Mixed"}}))
	sp = v.Speaker(-5)
	assert.Equal(t, 1, sp.Total)
	assert.Equal(t, 0, sp.Index)
}

func TestHostess(t *testing.T) {
	v, store, photos := seeded(t)
	require.NoError(t, os.WriteFile(filepath.Join(photos, "vip2.jpg"), []byte("x"), 0o644))
	require.NoError(t, store.SaveAssignments([]models.Assignment{{
		CategoryID: "W-57",
		VipIDs:     []string{"vip1", "vip2", "ghost"},
		VipRoles:   map[string]string{"vip1": models.RoleSilver},
	}}))

	h := v.Hostess(0)
	assert.Equal(t, "Women -57 kg", h.Title)
	require.Len(t, h.Cards, 3)
	assert.Equal(t, "🥈 Silver — JJIF Board", h.Cards[0].Role)
	assert.Empty(t, h.Cards[0].Photo)
	assert.Equal(t, "DK", h.Cards[0].Initials)
	assert.Equal(t, filepath.Join(photos, "vip2.jpg"), h.Cards[1].Photo)
	assert.Equal(t, "Mayor", h.Cards[1].Role)
	assert.Equal(t, "ghost", h.Cards[2].Name)

	_, err := store.SaveSettings(map[string]any{"hostess_show_photos": false})
	require.NoError(t, err)
	assert.Empty(t, v.Hostess(0).Cards[1].Photo)

	assert.Equal(t, 2, v.Hostess(10).Index)
}

func TestHostess_EmptyPlanning(t *testing.T) {
	v, _, _ := newTestViews(t)

	h := v.Hostess(3)
	assert.Equal(t, 0, h.Total)
	assert.Empty(t, h.Cards)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "ÉD", Initials("élise  martin dupont"))
	assert.Equal(t, "JO", Initials("jo"))
	assert.Equal(t, "?", Initials("  "))
}

func vipNames(vips []models.VIP) []string {
	out := []string{}
	for _, v := range vips {
		out = append(out, v.Name)
	}
	return out
}

func slotIDs(slots []Slot) []string {
	out := []string{}
	for _, s := range slots {
		out = append(out, s.CategoryID)
	}
	return out
}

func ranks(lines []MedalLine) []int {
	out := []int{}
	for _, l := range lines {
		out = append(out, l.Rank)
	}
	return out
}

func presenterIDs(ps []Presenter) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
