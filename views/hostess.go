package views

import (
	"os"
	"path/filepath"
	"strings"

	"podium-server-go/models"
)

var photoExts = []string{".png", ".jpg", ".jpeg"}

// HostessCard is a VIP card on the hostess phone screen.
type HostessCard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Photo    string `json:"photo,omitempty"`
	Initials string `json:"initials"`
}

// Hostess shows who presents the category at the cursor.
type Hostess struct {
	Index      int           `json:"index"`
	Total      int           `json:"total"`
	CategoryID string        `json:"category_id,omitempty"`
	Title      string        `json:"title,omitempty"`
	Cards      []HostessCard `json:"cards"`
}

var medalIcons = map[string]string{
	models.RoleGold:   "🥇",
	models.RoleSilver: "🥈",
	models.RoleBronze: "🥉",
}

// Hostess returns the VIP cards of the planning entry at cursor.
func (v *Views) Hostess(cursor int) Hostess {
	planning := v.sortedPlanning()
	out := Hostess{Total: len(planning), Cards: []HostessCard{}}
	if len(planning) == 0 {
		return out
	}
	out.Index = clampCursor(cursor, len(planning))
	cur := planning[out.Index]
	out.CategoryID = cur.CategoryID
	out.Title = cur.CategoryID
	if out.Title == "" {
		out.Title = Placeholder
	}
	if c, ok := v.store.CategoriesByID()[cur.CategoryID]; ok && c.Title != "" {
		out.Title = c.Title
	}

	showPhotos := v.store.Settings().HostessShowPhotos
	vips := vipsByID(v.store.VIPs())
	a := assignmentFor(v.store.Assignments(), cur.CategoryID)
	for _, vid := range a.VipIDs {
		vip, ok := vips[vid]
		if !ok {
			vip = models.VIP{ID: vid}
		}
		name := vip.Name
		if name == "" {
			name = vid
		}
		card := HostessCard{ID: vid, Name: name, Role: cardRole(vip.Role, a.VipRoles[vid]), Initials: Initials(name)}
		if showPhotos {
			card.Photo = v.ResolvePhoto(vip)
		}
		out.Cards = append(out.Cards, card)
	}
	return out
}

func cardRole(function, medal string) string {
	function = strings.TrimSpace(function)
	if medal == "" || medal == models.RoleGeneral {
		return function
	}
	prefix := strings.TrimSpace(medalIcons[medal] + " " + medal)
	if function == "" {
		return prefix
	}
	return prefix + " — " + function
}

// ResolvePhoto finds a VIP photo: the explicit path when it exists inside
// the photos directory, else <photos>/<id>.png|.jpg|.jpeg. It returns "" when
// nothing is found.
func (v *Views) ResolvePhoto(vip models.VIP) string {
	if v.photosDir == "" {
		return ""
	}
	if p := strings.TrimSpace(vip.Photo); p != "" {
		if fileExists(p) && insideDir(v.photosDir, p) {
			return p
		}
	}
	id := strings.TrimSpace(vip.ID)
	if !models.SafeID(id) {
		return ""
	}
	for _, ext := range photoExts {
		p := filepath.Join(v.photosDir, id+ext)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// insideDir reports whether p resolves, symlinks included, to a path below dir.
func insideDir(dir, p string) bool {
	base, err := resolvePath(dir)
	if err != nil {
		return false
	}
	target, err := resolvePath(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Initials returns the first letters of the first and last words of a name,
// or the first two letters of a single word. An empty name gives "?".
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	first := []rune(parts[0])
	out := first[:1]
	if len(parts) > 1 {
		out = append(out, []rune(parts[len(parts)-1])[0])
	} else if len(first) > 1 {
		out = first[:2]
	}
	return strings.ToUpper(string(out))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
