package corpus

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/nibras/internal/domain"
)

func rec(id int, title, body, narrator string) domain.Record {
	return domain.Record{
		ID:       id,
		Title:    title,
		Body:     body,
		Narrator: domain.Narrator{Name: narrator},
		Source:   domain.Source{Label: "src"},
	}
}

func TestSearch(t *testing.T) {
	idx := New([]domain.Record{
		rec(1, "A", "first passage", "X"),
		rec(2, "B", "second passage", "Y"),
		rec(3, "C", "third passage", "Y"),
	})

	t.Run("Equal scores keep input order", func(t *testing.T) {
		got := idx.Search("Y", 10)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].ID)
		assert.Equal(t, 3, got[1].ID)
	})

	t.Run("Blank query matches nothing", func(t *testing.T) {
		assert.Empty(t, idx.Search("", 10))
		assert.Empty(t, idx.Search("   \t ", 10))
	})

	t.Run("Every term must match", func(t *testing.T) {
		got := idx.Search("passage third", 10)
		require.Len(t, got, 1)
		assert.Equal(t, 3, got[0].ID)
		assert.Empty(t, idx.Search("passage missing", 10))
	})

	t.Run("Substrings of longer words count", func(t *testing.T) {
		assert.Len(t, idx.Search("pass", 10), 3)
	})

	t.Run("Limit caps the result", func(t *testing.T) {
		assert.Len(t, idx.Search("passage", 2), 2)
		assert.Empty(t, idx.Search("passage", 0))
	})
}

func TestSearchRanking(t *testing.T) {
	patience := rec(2, "Patience", "a long text about many things", "N")
	mention := rec(1, "Other", "the virtue of patience is praised", "N")
	tagged := rec(3, "Third", "nothing here", "N")
	tagged.Topics = []string{"patience"}
	vocab := rec(4, "Fourth", "plain", "N")
	vocab.Vocabulary = []domain.Gloss{{Word: "sabr", Meaning: "patience"}}

	idx := New([]domain.Record{mention, patience, tagged, vocab})
	got := idx.Search("PATIENCE", 10)
	require.Len(t, got, 4)

	var ids []int
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int{2, 1, 3, 4}, ids)
}

func TestSearchResultsContainAllTerms(t *testing.T) {
	idx := New([]domain.Record{
		rec(1, "Intention", "actions are by intentions", "Umar"),
		rec(2, "Religion", "religion is sincerity", "Tamim"),
		rec(3, "Mercy", "be merciful to those on earth", "Abdullah"),
	})
	for _, q := range []string{"is", "religion sincerity", "ACTIONS", "ar", "e"} {
		for _, r := range idx.Search(q, 10) {
			text := strings.ToLower(strings.Join([]string{r.Title, r.Body, r.Narrator.Name, r.Source.Label}, " "))
			for _, term := range strings.Fields(strings.ToLower(q)) {
				assert.Contains(t, text, term, "query %q returned record %d", q, r.ID)
			}
		}
	}
}

func TestRelated(t *testing.T) {
	records := []domain.Record{
		rec(1, "the virtue of patience", "a", "X"),
		rec(2, "patience in hardship", "b", "X"),
		rec(3, "the virtue of charity", "c", "X"),
		rec(4, "unrelated", "d", "X"),
		rec(5, "curated", "e", "X"),
	}
	records[4].Related = []int{4, 99, 2, 3}
	records[3].Related = []int{99, 98}
	idx := New(records)

	testCases := []struct {
		name     string
		id       int
		limit    int
		expected []int
	}{
		{name: "Curated ids in stored order, missing skipped", id: 5, limit: 3, expected: []int{4, 2}},
		{name: "Curated ids within a larger limit", id: 5, limit: 10, expected: []int{4, 2, 3}},
		{name: "Title overlap fallback ranks by shared words", id: 1, limit: 3, expected: []int{3, 2}},
		{name: "Unresolvable curated ids fall back to overlap", id: 4, limit: 3, expected: nil},
		{name: "Unknown id", id: 42, limit: 3, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ids []int
			for _, r := range idx.Related(tc.id, tc.limit) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestIndexes(t *testing.T) {
	a := rec(1, "A", "a", "X")
	a.Category = "faith"
	a.Topics = []string{"sincerity", "intention"}
	b := rec(2, "B", "b", "Y")
	b.Category = "manners"
	b.Topics = []string{"sincerity"}
	b.Type = domain.TypeSacred
	c := rec(3, "C", "c", "Y")
	c.Category = "faith"
	idx := New([]domain.Record{a, b, c})

	assert.Equal(t, map[string][]int{"faith": {1, 3}, "manners": {2}}, idx.Categories())
	assert.Len(t, idx.ByCategory("faith"), 2)
	assert.Empty(t, idx.ByCategory("unknown"))
	assert.Equal(t, []int{1, 2}, idx.Topics()["sincerity"])
	assert.Len(t, idx.ByTopic("intention"), 1)
	require.Len(t, idx.Sacred(), 1)
	assert.Equal(t, 2, idx.Sacred()[0].ID)
	assert.Equal(t, []int{1, 2, 3}, idx.IDs())

	r, ok := idx.Get(3)
	require.True(t, ok)
	assert.Equal(t, "C", r.Title)
	_, ok = idx.Get(4)
	assert.False(t, ok)
}

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	_, ok := New(nil).Random(rng)
	assert.False(t, ok)

	idx := New([]domain.Record{rec(1, "A", "a", "X"), rec(2, "B", "b", "Y")})
	for i := 0; i < 20; i++ {
		r, ok := idx.Random(rng)
		require.True(t, ok)
		assert.Contains(t, []int{1, 2}, r.ID)
	}
}

func TestLoad(t *testing.T) {
	t.Run("Unreadable source degrades to an empty index", func(t *testing.T) {
		idx := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.Equal(t, 0, idx.Len())
		assert.Empty(t, idx.Search("anything", 5))
		_, ok := idx.Get(1)
		assert.False(t, ok)
	})

	t.Run("Document is parsed and fingerprinted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		doc := `{"hadiths":[{"id":1,"arabic_title":"النية","arabic":"إنما الأعمال بالنيات","narrator":"عمر"},{"id":2,"arabic":"الدين النصيحة","narrator":"تميم"}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		idx := Load(path)
		assert.Equal(t, 2, idx.Len())
		assert.Len(t, idx.Fingerprint(), 64)
		assert.Equal(t, idx.Fingerprint(), Load(path).Fingerprint())
	})

	t.Run("Given narrator names stay searchable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corpus.json")
		doc := `{"hadiths":[
			{"id":1,"arabic":"عن أمير المؤمنين أبي حفص عمر بن الخطاب رضي الله عنه قال: إنما الأعمال بالنيات","narrator":"X"},
			{"id":2,"arabic":"عن أبي هريرة رضي الله عنه قال: من حسن إسلام المرء","narrator":"Y"},
			{"id":3,"arabic":"عن أنس بن مالك رضي الله عنه قال: لا يؤمن أحدكم","narrator":"Y"}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		idx := Load(path)
		got := idx.Search("Y", 10)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].ID)
		assert.Equal(t, 3, got[1].ID)
		r, ok := idx.Get(2)
		require.True(t, ok)
		assert.Equal(t, "Y", r.Narrator.Name)
	})
}
