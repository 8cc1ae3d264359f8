package recommend

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"cinepick/models"
)

// ErrMalformedCompletion reports that a reply had neither a RECOMMENDATIONS nor a
// KEYWORDS section. The accompanying Completion still carries the text as explanation.
var ErrMalformedCompletion = errors.New("completion has no recognizable sections")

// Section names of the reply format.
const (
	SectionExplanation     = "EXPLANATION"
	SectionRecommendations = "RECOMMENDATIONS"
	SectionKeywords        = "KEYWORDS"
)

var (
	sectionMarker = regexp.MustCompile(`---([A-Z]+)---`)
	numberedItem  = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]+[ \t]*)?(?:\*\*)?\d+\.(?:\*\*)?\s+`)
	titleField    = regexp.MustCompile(`TITLE:[ \t]*([^\n]+)`)
	typeField     = regexp.MustCompile(`TYPE:[ \t]*([^\n]+)`)
	yearField     = regexp.MustCompile(`YEAR:[ \t]*([^\n]+)`)
	reasonField   = regexp.MustCompile(`REASON:[ \t]*([^\n]+)`)
	yearDigits    = regexp.MustCompile(`\d{4}`)
	legacyDivider = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*$`)
	quotedTitle   = regexp.MustCompile(`["“]([^"“”\n]{2,80})["”]`)
	explanationHd = regexp.MustCompile(`(?i)^\s*(?:#+[ \t]*)?\**EXPLANATION\**[ \t]*(?::\**[ \t]*|\n|$)`)
)

// Completion is the structured form of one model reply.
type Completion struct {
	Explanation string                       `json:"explanation"`
	Entries     []models.RecommendationEntry `json:"entries"`
	Keywords    []string                     `json:"keywords"`
}

// Parser turns free-form model text into a Completion. The zero value is ready to use.
type Parser struct {
	// QuotedTitleFallback extracts "quoted" titles from the explanation when the
	// reply has no RECOMMENDATIONS section.
	QuotedTitleFallback bool
}

// Parse never fails outright: on unrecognizable input it returns the trimmed text as
// the explanation together with ErrMalformedCompletion.
func (p Parser) Parse(raw string) (Completion, error) {
	text := strings.TrimSpace(raw)
	out := Completion{
		Entries:  []models.RecommendationEntry{},
		Keywords: []string{},
	}

	sections, lead := splitSections(text)
	if len(sections) == 0 {
		return p.parseLegacy(text)
	}

	if body, ok := sections[SectionExplanation]; ok {
		out.Explanation = strings.TrimSpace(body)
	} else {
		out.Explanation = stripExplanationHeader(lead)
	}

	recBody, hasRecs := sections[SectionRecommendations]
	if hasRecs {
		out.Entries = parseEntries(recBody)
	}
	kwBody, hasKeywords := sections[SectionKeywords]
	if hasKeywords {
		out.Keywords = splitKeywords(kwBody)
	}
	if !hasRecs && p.QuotedTitleFallback {
		out.Entries = quotedEntries(out.Explanation)
	}
	if !hasRecs && !hasKeywords {
		if out.Explanation == "" {
			out.Explanation = text
		}
		return out, ErrMalformedCompletion
	}
	return out, nil
}

// splitSections maps each ---NAME--- marker to the text up to the next marker and
// returns the text preceding the first marker. A repeated marker keeps its first body.
func splitSections(text string) (map[string]string, string) {
	locs := sectionMarker.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, text
	}
	sections := make(map[string]string, len(locs))
	for i, loc := range locs {
		name := text[loc[2]:loc[3]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, seen := sections[name]; !seen {
			sections[name] = text[loc[1]:end]
		}
	}
	return sections, text[:locs[0][0]]
}

func stripExplanationHeader(lead string) string {
	return strings.TrimSpace(explanationHd.ReplaceAllString(lead, ""))
}

func parseEntries(body string) []models.RecommendationEntry {
	entries := []models.RecommendationEntry{}
	for _, chunk := range numberedItem.Split(body, -1) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		entry, ok := parseEntry(chunk)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseEntry(chunk string) (models.RecommendationEntry, bool) {
	title := fieldValue(titleField, chunk)
	if title == "" {
		return models.RecommendationEntry{}, false
	}
	entry := models.RecommendationEntry{
		Title:  title,
		Reason: fieldValue(reasonField, chunk),
	}
	if rawType := fieldValue(typeField, chunk); rawType != "" {
		hint := models.MediaTypeTV
		if strings.Contains(strings.ToLower(rawType), "movie") {
			hint = models.MediaTypeMovie
		}
		entry.MediaTypeHint = &hint
	}
	if rawYear := yearDigits.FindString(fieldValue(yearField, chunk)); rawYear != "" {
		if year, err := strconv.Atoi(rawYear); err == nil {
			entry.Year = year
		}
	}
	return entry, true
}

func fieldValue(re *regexp.Regexp, chunk string) string {
	m := re.FindStringSubmatch(chunk)
	if m == nil {
		return ""
	}
	return cleanValue(m[1])
}

func splitKeywords(body string) []string {
	keywords := []string{}
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		for _, token := range strings.Split(line, ",") {
			if kw := cleanValue(token); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}
	return keywords
}

// parseLegacy handles the older two-part format: prose, a bare "---" line, and a
// comma separated keyword line.
func (p Parser) parseLegacy(text string) (Completion, error) {
	out := Completion{
		Explanation: text,
		Entries:     []models.RecommendationEntry{},
		Keywords:    []string{},
	}
	loc := legacyDivider.FindStringIndex(text)
	if loc != nil {
		out.Explanation = strings.TrimSpace(text[:loc[0]])
		out.Keywords = splitKeywords(text[loc[1]:])
	}
	if p.QuotedTitleFallback {
		out.Entries = quotedEntries(out.Explanation)
	}
	if loc == nil {
		return out, ErrMalformedCompletion
	}
	return out, nil
}

func quotedEntries(explanation string) []models.RecommendationEntry {
	entries := []models.RecommendationEntry{}
	seen := make(map[string]struct{})
	for _, m := range quotedTitle.FindAllStringSubmatch(explanation, -1) {
		title := cleanValue(m[1])
		key := normalizeTitle(title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, models.RecommendationEntry{Title: title})
	}
	return entries
}
