package parser

import (
	"strings"
	"testing"

	"github.com/conorfennell/nibras/internal/domain"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name            string
		input           string
		expectedRecords int
		check           func(t *testing.T, recs []domain.Record)
	}{
		{
			name:            "Plain narrator and source strings",
			input:           `{"hadiths":[{"id":1,"arabic_title":"النية","arabic":"إنما الأعمال بالنيات","narrator":"عمر","source":"البخاري"}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				r := recs[0]
				if r.Narrator.Name != "عمر" || r.Narrator.HasProfile {
					t.Errorf("Expected plain narrator 'عمر', got %+v", r.Narrator)
				}
				if r.Source.Label != "البخاري" {
					t.Errorf("Expected source label 'البخاري', got '%s'", r.Source.Label)
				}
				if r.Type != domain.TypeOrdinary {
					t.Errorf("Expected default type, got '%s'", r.Type)
				}
			},
		},
		{
			name: "Rich narrator profile and structured citation",
			input: `{"hadiths":[{"idInBook":24,"id":999,"arabic":"نص","narrator":{"arabic":"أبو ذر","tribe_arabic":"غفار","died_ah":32,"narrations_count":281,"is_ten_promised_paradise":false},
				"source":{"grade_arabic":"صحيح","books_arabic":["مسلم"]},
				"topics":{"arabic":["الظلم"],"english":["Oppression"],"category_arabic":"الأخلاق"},
				"hadith_type":{"type":"qudsi","arabic":"حديث قدسي"},
				"english":{"narrator":"Abu Dharr","text":"O My servants"},
				"related_hadiths":[18, "20"]}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				r := recs[0]
				if r.ID != 24 {
					t.Errorf("Expected idInBook to win, got %d", r.ID)
				}
				if r.Title != "الحديث 24" {
					t.Errorf("Expected placeholder title, got '%s'", r.Title)
				}
				if r.Narrator.Name != "أبو ذر" || r.Narrator.Tribe != "غفار" || r.Narrator.DiedAH != 32 || r.Narrator.NarrationsCount != 281 {
					t.Errorf("Unexpected narrator profile %+v", r.Narrator)
				}
				if !r.Narrator.IsCompanion {
					t.Error("Expected companion flag to default to true")
				}
				if r.Source.Label != "صحيح" || len(r.Source.Books) != 1 {
					t.Errorf("Unexpected source %+v", r.Source)
				}
				if r.Category != "الأخلاق" || len(r.Topics) != 1 {
					t.Errorf("Unexpected topics %v / %s", r.Topics, r.Category)
				}
				if !r.IsSacred() {
					t.Error("Expected sacred type")
				}
				if len(r.Related) != 2 || r.Related[1] != 20 {
					t.Errorf("Unexpected related ids %v", r.Related)
				}
				if r.EnglishNarrator != "Abu Dharr" {
					t.Errorf("Unexpected english narrator '%s'", r.EnglishNarrator)
				}
			},
		},
		{
			name:            "Plain narrator string wins over body opening",
			input:           `{"hadiths":[{"id":3,"arabic":"عن أبي هريرة رضي الله عنه قال: بني الإسلام على خمس","narrator":"أبو هريرة"}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				if recs[0].Narrator.Name != "أبو هريرة" {
					t.Errorf("Expected given narrator, got '%s'", recs[0].Narrator.Name)
				}
			},
		},
		{
			name:            "Narrator extracted from body opening when missing",
			input:           `{"hadiths":[{"id":3,"arabic":"عن ابن عمر رضي الله عنهما قال: بني الإسلام على خمس","narrator":""}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				if recs[0].Narrator.Name != "ابن عمر" {
					t.Errorf("Expected extracted narrator, got '%s'", recs[0].Narrator.Name)
				}
			},
		},
		{
			name:            "Missing source defaults",
			input:           `{"hadiths":[{"id":4}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				if recs[0].Source.Label != defaultSourceLabel {
					t.Errorf("Expected default source label, got '%s'", recs[0].Source.Label)
				}
			},
		},
		{
			name:            "Vocabulary mixes strings and objects, benefits keep strings",
			input:           `{"hadiths":[{"id":5,"vocabulary":["كلمة",{"word":"النية","meaning":"القصد"}],"benefits":["فائدة",{"x":1}]}]}`,
			expectedRecords: 1,
			check: func(t *testing.T, recs []domain.Record) {
				r := recs[0]
				if len(r.Vocabulary) != 2 || r.Vocabulary[1].Text() != "النية القصد" {
					t.Errorf("Unexpected vocabulary %+v", r.Vocabulary)
				}
				if len(r.Benefits) != 1 {
					t.Errorf("Expected one benefit, got %v", r.Benefits)
				}
			},
		},
		{
			name:            "Malformed entries are skipped",
			input:           `{"hadiths":[42, {"title":"no id"}, {"id":-1}, {"id":6}, {"id":6}]}`,
			expectedRecords: 1,
		},
		{
			name:            "No hadiths key",
			input:           `{}`,
			expectedRecords: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(recs) != tc.expectedRecords {
				t.Fatalf("Expected %d records, but got %d", tc.expectedRecords, len(recs))
			}
			if tc.check != nil {
				tc.check(t, recs)
			}
		})
	}
}

func TestParseInvalidDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader("not json")); err == nil {
		t.Fatal("Expected an error for a non-JSON document")
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile("does/not/exist.json"); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}
