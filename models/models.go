package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownRank sorts medalists without a usable rank after the podium.
const UnknownRank = 99

// MissingOrder is given to final block items stored without an order so they
// sort after every ordered item on their mat.
const MissingOrder = 999999

// Presenter roles stored in Assignment.VipRoles. General is never stored.
const (
	RoleGeneral = "General"
	RoleGold    = "Gold"
	RoleSilver  = "Silver"
	RoleBronze  = "Bronze"
)

// Medalist is one podium entry of a category.
type Medalist struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Nation string `json:"nation"`
	Club   string `json:"club,omitempty"`
}

// Category is a competition category with its medalist roster.
type Category struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Discipline string     `json:"discipline,omitempty"`
	Round      string     `json:"round,omitempty"`
	Medalists  []Medalist `json:"medalists"`
}

// VIP is a medal presenter.
type VIP struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	IOC   string `json:"ioc"`
	Photo string `json:"photo,omitempty"`
	Note  string `json:"note,omitempty"`
}

// Assignment links a category to its presenting VIPs.
type Assignment struct {
	CategoryID string            `json:"category_id"`
	VipIDs     []string          `json:"vip_ids"`
	VipRoles   map[string]string `json:"vip_roles"`
}

// PlanningItem is one entry of the legacy ceremony planning.
type PlanningItem struct {
	Order      int    `json:"order"`
	CategoryID string `json:"category_id"`
	Done       bool   `json:"done,omitempty"`
}

// FinalBlockItem is either a category placement or a break marker.
// Mat 0 is the unassigned pool.
type FinalBlockItem struct {
	ID         string `json:"id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	IsBreak    bool   `json:"is_break,omitempty"`
	Mat        int    `json:"mat"`
	Order      int    `json:"order"`
	Assigned   bool   `json:"assigned"`
}

// FinalBlock is the finals schedule across mats.
type FinalBlock struct {
	Mats   int              `json:"mats"`
	Finals []FinalBlockItem `json:"finals"`
}

// DaysMap maps a day key ("1", "2", ...) to ordered category ids.
type DaysMap map[string][]string

// DaysMeta holds the configured number of competition days.
type DaysMeta struct {
	NumDays int `json:"num_days"`
}

// Settings are the competition-wide display settings.
type Settings struct {
	CycleSeconds       int    `json:"cycle_seconds"`
	SpeakerLargeFont   bool   `json:"speaker_large_font"`
	CompetitionName    string `json:"competition_name"`
	CompetitionCountry string `json:"competition_country"`
	CompetitionCity    string `json:"competition_city"`
	DateFrom           string `json:"date_from"`
	DateTo             string `json:"date_to"`
	EventLogo          string `json:"event_logo"`
	FederationLogo     string `json:"federation_logo"`
	ShowClub           bool   `json:"show_club"`
	ShowClubs          bool   `json:"show_clubs"`
	VipShowPhotos      bool   `json:"vip_show_photos"`
	HostessShowPhotos  bool   `json:"hostess_show_photos"`
}

// APIConfig configures the third-party sports-data API.
type APIConfig struct {
	BaseURL      string            `json:"base_url"`
	EventID      string            `json:"event_id"`
	APIKey       string            `json:"api_key"`
	TimeoutSec   int               `json:"timeout_sec"`
	RefreshSec   int               `json:"refresh_sec"`
	AutoCycle    bool              `json:"auto_cycle"`
	ExtraHeaders map[string]string `json:"extra_headers"`
}

// --- permissive decoding ---

// UnmarshalJSON accepts string or numeric ranks; anything else becomes UnknownRank.
func (m *Medalist) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Rank = UnknownRank
	if r, ok := AsInt(raw["rank"]); ok {
		m.Rank = r
	}
	m.Name = AsString(raw["name"])
	m.Nation = AsString(raw["nation"])
	if m.Nation == "" {
		m.Nation = strings.ToUpper(AsString(raw["ioc"]))
	}
	m.Club = AsString(raw["club"])
	return nil
}

// UnmarshalJSON resolves the id from id/cid and the title from
// title/name/Category/category, falling back to the id.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "medalists" {
			continue
		}
		var x any
		if json.Unmarshal(v, &x) == nil {
			fields[k] = x
		}
	}
	c.ID = firstString(fields, "id", "cid")
	c.Title = firstString(fields, "title", "name", "Category", "category")
	if c.Title == "" {
		c.Title = c.ID
	}
	c.Discipline = AsString(fields["discipline"])
	c.Round = AsString(fields["round"])
	c.Medalists = []Medalist{}
	if rm, ok := raw["medalists"]; ok {
		var meds []json.RawMessage
		if json.Unmarshal(rm, &meds) == nil {
			for _, one := range meds {
				var med Medalist
				if json.Unmarshal(one, &med) == nil {
					c.Medalists = append(c.Medalists, med)
				}
			}
		}
	}
	return nil
}

// UnmarshalJSON tolerates string orders and missing fields.
func (p *PlanningItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Order, _ = AsInt(raw["order"])
	p.CategoryID = firstString(raw, "category_id", "id")
	p.Done = AsBool(raw["done"])
	return nil
}

// UnmarshalJSON tolerates string numbers. A break without a mat lands on mat 1;
// an item without an order gets MissingOrder.
func (f *FinalBlockItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.ID = AsString(raw["id"])
	f.CategoryID = AsString(raw["category_id"])
	f.IsBreak = AsBool(raw["is_break"])
	mat, ok := AsInt(raw["mat"])
	if !ok && f.IsBreak {
		mat = 1
	}
	f.Mat = mat
	order, ok := AsInt(raw["order"])
	if !ok {
		order = MissingOrder
	}
	f.Order = order
	f.Assigned = AsBool(raw["assigned"])
	return nil
}

// UnmarshalJSON floors mats at 1 and drops finals that are not objects.
func (b *FinalBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Mats = 1
	if rm, ok := raw["mats"]; ok {
		var x any
		if json.Unmarshal(rm, &x) == nil {
			if n, ok := AsInt(x); ok && n >= 1 {
				b.Mats = n
			}
		}
	}
	b.Finals = []FinalBlockItem{}
	if rf, ok := raw["finals"]; ok {
		var items []json.RawMessage
		if json.Unmarshal(rf, &items) == nil {
			for _, one := range items {
				var it FinalBlockItem
				if json.Unmarshal(one, &it) == nil {
					b.Finals = append(b.Finals, it)
				}
			}
		}
	}
	return nil
}

// SafeID reports whether id can name a file: not empty, no path separator,
// not a dot entry.
func SafeID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// AsInt converts JSON numbers and numeric strings.
func AsInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return n, true
	}
	return 0, false
}

// AsBool follows the "1/true/yes/on" convention for strings.
func AsBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// AsString stringifies scalars; nil becomes "".
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := AsString(m[k]); s != "" {
			return s
		}
	}
	return ""
}
