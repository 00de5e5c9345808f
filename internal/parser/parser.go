package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/conorfennell/nibras/internal/domain"
)

const (
	defaultSourceLabel = "الأربعون النووية"
	defaultTypeLabel   = "حديث مرفوع"
)

var narratorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^عَنْ (.+?)(?:\s+رَضِيَ|\s+قَالَ|\s+أَنَّهُ|\s+أَنَّ)`),
	regexp.MustCompile(`^عن (.+?)(?:\s+رضي|\s+قال|\s+أنه|\s+أن)`),
}

type document struct {
	Hadiths []json.RawMessage `json:"hadiths"`
}

// ParseFile reads a corpus document from the given path.
func ParseFile(path string) ([]domain.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a corpus document and normalises every entry. Only an
// unreadable or non-JSON document is an error; entries that cannot be
// interpreted are skipped and logged.
func Parse(r io.Reader) ([]domain.Record, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode corpus document: %w", err)
	}

	records := make([]domain.Record, 0, len(doc.Hadiths))
	seen := make(map[int]bool, len(doc.Hadiths))
	for i, raw := range doc.Hadiths {
		rec, err := parseRecord(raw)
		if err != nil {
			slog.Warn("Skipping corpus entry", "position", i, "error", err)
			continue
		}
		if seen[rec.ID] {
			slog.Warn("Skipping duplicate corpus entry", "position", i, "id", rec.ID)
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(raw json.RawMessage) (domain.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Record{}, fmt.Errorf("entry is not an object: %w", err)
	}

	id, ok := asInt(fields["idInBook"])
	if !ok {
		id, ok = asInt(fields["id"])
	}
	if !ok || id <= 0 {
		return domain.Record{}, fmt.Errorf("entry has no positive id")
	}

	rec := domain.Record{
		ID:            id,
		Title:         asString(fields["arabic_title"]),
		Body:          asString(fields["arabic"]),
		NarratorIntro: asString(fields["arabic_narrator_intro"]),
		BodyOnly:      asString(fields["arabic_hadith_text"]),
		Vocabulary:    parseVocabulary(fields["vocabulary"]),
		Benefits:      asStrings(fields["benefits"]),
		Related:       asInts(fields["related_hadiths"]),
	}
	if rec.Title == "" {
		rec.Title = fmt.Sprintf("الحديث %d", id)
	}

	rec.Narrator = parseNarrator(fields["narrator"], rec.Body)
	rec.Source = parseSource(fields["source"])
	rec.Topics, rec.TopicsEnglish, rec.Category = parseTopics(fields["topics"])
	rec.Type, rec.TypeLabel = parseType(fields["hadith_type"])

	var english map[string]json.RawMessage
	if json.Unmarshal(fields["english"], &english) == nil {
		rec.EnglishNarrator = asString(english["narrator"])
		rec.EnglishBody = asString(english["text"])
	}
	return rec, nil
}

func parseNarrator(raw json.RawMessage, body string) domain.Narrator {
	var profile map[string]json.RawMessage
	if json.Unmarshal(raw, &profile) == nil && profile != nil {
		n := domain.Narrator{
			Name:             asString(profile["arabic"]),
			Kunya:            asString(profile["kunya_arabic"]),
			Title:            asString(profile["title_arabic"]),
			Tribe:            asString(profile["tribe_arabic"]),
			Bio:              asString(profile["bio_arabic"]),
			IsCompanion:      true,
			PromisedParadise: asBool(profile["is_ten_promised_paradise"]),
			HasProfile:       true,
		}
		n.DiedAH, _ = asInt(profile["died_ah"])
		n.DiedCE, _ = asInt(profile["died_ce"])
		n.NarrationsCount, _ = asInt(profile["narrations_count"])
		if v, ok := profile["is_companion"]; ok {
			n.IsCompanion = asBool(v)
		}
		return n
	}

	if name := strings.TrimSpace(asString(raw)); name != "" {
		return domain.Narrator{Name: name}
	}
	return domain.Narrator{Name: ExtractNarrator(body)}
}

// ExtractNarrator pulls the narrator's name from the opening formula of a
// body ("عن <name> رضي ..."). It returns "" when the body does not open
// that way.
func ExtractNarrator(body string) string {
	for _, re := range narratorPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func parseSource(raw json.RawMessage) domain.Source {
	var citation map[string]json.RawMessage
	if json.Unmarshal(raw, &citation) == nil && citation != nil {
		grade := asString(citation["grade_arabic"])
		label := grade
		if label == "" {
			label = defaultSourceLabel
		}
		return domain.Source{
			Label: label,
			Books: asStrings(citation["books_arabic"]),
			Grade: grade,
		}
	}
	label := asString(raw)
	if label == "" {
		label = defaultSourceLabel
	}
	return domain.Source{Label: label}
}

func parseTopics(raw json.RawMessage) (arabic, english []string, category string) {
	var topics map[string]json.RawMessage
	if json.Unmarshal(raw, &topics) != nil || topics == nil {
		return nil, nil, ""
	}
	return asStrings(topics["arabic"]), asStrings(topics["english"]), asString(topics["category_arabic"])
}

func parseType(raw json.RawMessage) (domain.RecordType, string) {
	var t map[string]json.RawMessage
	if json.Unmarshal(raw, &t) != nil || t == nil {
		return domain.TypeOrdinary, defaultTypeLabel
	}
	kind := domain.RecordType(asString(t["type"]))
	if kind == "" {
		kind = domain.TypeOrdinary
	}
	label := asString(t["arabic"])
	if label == "" {
		label = defaultTypeLabel
	}
	return kind, label
}

func parseVocabulary(raw json.RawMessage) []domain.Gloss {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []domain.Gloss
	for _, item := range items {
		if s, ok := stringValue(item); ok {
			out = append(out, domain.Gloss{Word: s})
			continue
		}
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			out = append(out, domain.Gloss{Word: asString(obj["word"]), Meaning: asString(obj["meaning"])})
		}
	}
	return out
}

func stringValue(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func asString(raw json.RawMessage) string {
	s, _ := stringValue(raw)
	return s
}

func asBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// asInt accepts a JSON number or a numeric string.
func asInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return int(f), true
	}
	if s, ok := stringValue(raw); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := stringValue(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInts(raw json.RawMessage) []int {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []int
	for _, item := range items {
		if n, ok := asInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}
