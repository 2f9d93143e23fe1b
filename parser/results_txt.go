// Package parser turns results exports into category rosters.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"podium-server-go/models"
)

// HeaderKeywords are the age divisions that open a category block.
var HeaderKeywords = []string{"ADULTS", "U21", "U18", "U16", "U14", "MASTER"}

const letter = `A-Za-zÀ-ÖØ-öø-ÿ`

var (
	headerRe    = regexp.MustCompile(`(?i)^(` + strings.Join(HeaderKeywords, "|") + `)\b`)
	rankStartRe = regexp.MustCompile(`^[123]\s+[` + letter + `]`)
	lineCoreRe  = regexp.MustCompile(`^(?P<rank>[123])\s+(?P<body>.+?)(?:\s+(?P<ioc>[A-Z]{3}))?\s*$`)
	startsAlpha = regexp.MustCompile(`^[` + letter + `]`)
	multiSpace  = regexp.MustCompile(`\s{2,}`)
	slashRe     = regexp.MustCompile(`\s*/\s*`)
	columnSplit = regexp.MustCompile(`\s{2,}|\t`)
	iocAtEnd    = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])([A-Z]{3})$`)
	rankPrefix  = regexp.MustCompile(`^[123]\s+`)
)

// ParsedCategory is a category block found in a results export.
type ParsedCategory struct {
	Title     string            `json:"title"`
	Medalists []models.Medalist `json:"medalists"`
}

// Stats counts what happened to the input lines.
type Stats struct {
	LinesSeen        int `json:"lines_seen"`
	LinesRankLike    int `json:"lines_rank_like"`
	Imported         int `json:"imported_medalists"`
	Skipped          int `json:"ignored_invalid_after_rank"`
	MissingNation    int `json:"no_ioc"`
	CategoriesParsed int `json:"categories"`
}

// ParseResultsText classifies each line of a text export. A header line
// starts a new category (the previous one is kept even when empty); a line
// starting with rank 1-3 followed by a letter is a medalist; everything else
// is ignored. Medalist lines before the first header are counted but dropped.
func ParseResultsText(content string) ([]ParsedCategory, Stats) {
	var (
		out     = []ParsedCategory{}
		stats   Stats
		current *ParsedCategory
		meds    = []models.Medalist{}
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Medalists = meds
		out = append(out, *current)
	}

	for _, raw := range splitLines(content) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		stats.LinesSeen++

		if headerRe.MatchString(line) {
			flush()
			current = &ParsedCategory{Title: line}
			meds = []models.Medalist{}
			continue
		}

		if line[0] != '1' && line[0] != '2' && line[0] != '3' {
			continue
		}
		stats.LinesRankLike++
		if !rankStartRe.MatchString(line) {
			stats.Skipped++
			continue
		}
		med, ok := parseMedalistLine(line)
		if !ok {
			stats.Skipped++
			continue
		}
		meds = append(meds, med)
		stats.Imported++
		if med.Nation == "" {
			stats.MissingNation++
		}
	}
	flush()

	stats.CategoriesParsed = len(out)
	return out, stats
}

func parseMedalistLine(line string) (models.Medalist, bool) {
	if m := lineCoreRe.FindStringSubmatch(line); m != nil {
		rank, _ := strconv.Atoi(m[lineCoreRe.SubexpIndex("rank")])
		body := cleanName(m[lineCoreRe.SubexpIndex("body")])
		if body == "" || !startsAlpha.MatchString(body) {
			return models.Medalist{}, false
		}
		return models.Medalist{
			Rank:   rank,
			Name:   body,
			Nation: m[lineCoreRe.SubexpIndex("ioc")],
		}, true
	}

	return parseColumnLine(line)
}

// parseColumnLine handles exports with irregular column spacing.
func parseColumnLine(line string) (models.Medalist, bool) {
	parts := columnSplit.Split(strings.TrimSpace(line), -1)
	if len(parts) == 0 || parts[0] == "" || !strings.ContainsRune("123", rune(parts[0][0])) {
		return models.Medalist{}, false
	}

	body := strings.TrimSpace(line)
	ioc := ""
	if m := iocAtEnd.FindStringSubmatch(body); m != nil {
		ioc = m[1]
		body = strings.TrimRight(strings.TrimSuffix(body, ioc), " \t")
	}
	body = cleanName(rankPrefix.ReplaceAllString(body, ""))
	if body == "" || !startsAlpha.MatchString(body) {
		return models.Medalist{}, false
	}
	rank := int(parts[0][0] - '0')
	return models.Medalist{Rank: rank, Name: body, Nation: ioc}, true
}

// cleanName collapses whitespace and normalises slashes to " / ".
func cleanName(text string) string {
	text = multiSpace.ReplaceAllString(strings.TrimSpace(text), " ")
	text = slashRe.ReplaceAllString(text, " / ")
	return strings.Join(strings.Fields(text), " ")
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
