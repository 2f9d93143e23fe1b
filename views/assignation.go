package views

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"podium-server-go/models"
)

// FilterAll selects every distributed category on the assignation screen.
const FilterAll = "All"

// Presenter is a VIP presenting a category, with its medal role.
type Presenter struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Function string `json:"function,omitempty"`
	Role     string `json:"role"`
}

// AssignationRow is one category on the assignation screen.
type AssignationRow struct {
	CategoryID string      `json:"category_id"`
	Title      string      `json:"title"`
	Nations    []MedalLine `json:"nations"`
	Presenters []Presenter `json:"presenters"`
	Assigned   bool        `json:"assigned"`
}

// AssignationCounts summarises the work left.
type AssignationCounts struct {
	ToDo       int `json:"to_do"`
	Unassigned int `json:"unassigned"`
	Assigned   int `json:"assigned"`
}

// Assignation is the VIP assignation screen.
type Assignation struct {
	Filter  string            `json:"filter"`
	Days    []string          `json:"days"`
	Counts  AssignationCounts `json:"counts"`
	VIPs    []models.VIP      `json:"vips"`
	Entries []AssignationRow  `json:"entries"`
}

// Assignation lists the categories of a day ("All", "Day N" or "N") with
// their presenting VIPs. "All" is the deduplicated union of every day.
func (v *Views) Assignation(filter string) Assignation {
	days := v.store.FinalsDays()
	byID := v.store.CategoriesByID()
	assignments := v.store.Assignments()
	vips := v.store.VIPs()
	vipIndex := vipsByID(vips)

	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Slice(dayKeys, func(i, j int) bool { return dayLess(dayKeys[i], dayKeys[j]) })

	var ids []string
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, FilterAll) {
		filter = FilterAll
		seen := map[string]bool{}
		for _, k := range dayKeys {
			for _, id := range days[k] {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	} else {
		ids = days[strings.TrimPrefix(filter, "Day ")]
	}

	sort.SliceStable(vips, func(i, j int) bool { return vipSortKey(vips[i]) < vipSortKey(vips[j]) })

	out := Assignation{Filter: filter, Days: dayKeys, VIPs: vips, Entries: []AssignationRow{}}
	for _, id := range ids {
		a := assignmentFor(assignments, id)
		row := AssignationRow{CategoryID: id, Title: id, Nations: []MedalLine{}, Presenters: []Presenter{}}
		if c, ok := byID[id]; ok {
			row.Title = c.Title
			for _, line := range medalLines(c.Medalists, false, false) {
				if line.Detail != "" {
					row.Nations = append(row.Nations, line)
				}
			}
		}
		for _, vid := range a.VipIDs {
			row.Presenters = append(row.Presenters, presenter(vid, vipIndex, a.VipRoles))
		}
		row.Assigned = len(a.VipIDs) > 0
		if row.Assigned {
			out.Counts.Assigned++
		}
		out.Entries = append(out.Entries, row)
	}
	out.Counts.ToDo = len(out.Entries)
	out.Counts.Unassigned = out.Counts.ToDo - out.Counts.Assigned
	return out
}

func vipSortKey(vip models.VIP) string {
	if vip.Name != "" {
		return strings.ToUpper(vip.Name)
	}
	return strings.ToUpper(vip.ID)
}

func presenter(vid string, vips map[string]models.VIP, roles map[string]string) Presenter {
	p := Presenter{ID: vid, Name: vid, Role: models.RoleGeneral}
	if vip, ok := vips[vid]; ok {
		if vip.Name != "" {
			p.Name = vip.Name
		}
		p.Function = vip.Role
	}
	if r := roles[vid]; r != "" {
		p.Role = r
	}
	return p
}

// ValidRole reports whether role is a presenter role.
func ValidRole(role string) bool {
	switch role {
	case models.RoleGeneral, models.RoleGold, models.RoleSilver, models.RoleBronze:
		return true
	}
	return false
}

// ToggleVIP removes a VIP from a category when present, otherwise adds it
// with the given role. General is stored as the absence of a role.
func (v *Views) ToggleVIP(categoryID, vipID, role string) (models.Assignment, error) {
	if role == "" {
		role = models.RoleGeneral
	}
	if !ValidRole(role) {
		return models.Assignment{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	list := v.store.Assignments()
	idx := -1
	for i, a := range list {
		if a.CategoryID == categoryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		list = append(list, models.Assignment{CategoryID: categoryID, VipIDs: []string{}, VipRoles: map[string]string{}})
		idx = len(list) - 1
	}
	a := &list[idx]

	pos := -1
	for i, id := range a.VipIDs {
		if id == vipID {
			pos = i
			break
		}
	}
	if pos >= 0 {
		a.VipIDs = append(a.VipIDs[:pos], a.VipIDs[pos+1:]...)
		delete(a.VipRoles, vipID)
	} else {
		a.VipIDs = append(a.VipIDs, vipID)
		if role == models.RoleGeneral {
			delete(a.VipRoles, vipID)
		} else {
			a.VipRoles[vipID] = role
		}
	}

	if err := v.store.SaveAssignments(list); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to save assignments: %w", err)
	}
	v.log.Debug("vip toggled", zap.String("category", categoryID), zap.String("vip", vipID), zap.Bool("added", pos < 0))
	return *a, nil
}

// ClearVIPs removes every presenter and role from a category.
func (v *Views) ClearVIPs(categoryID string) error {
	list := v.store.Assignments()
	for i := range list {
		if list[i].CategoryID == categoryID {
			list[i].VipIDs = []string{}
			list[i].VipRoles = map[string]string{}
		}
	}
	return v.store.SaveAssignments(list)
}
