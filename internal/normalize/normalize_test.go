package normalize

import (
	"testing"

	"github.com/conorfennell/nibras/internal/domain"
)

func TestText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Lowercases and trims", input: "  What Is Intention? \r\n", expected: "what is intention?"},
		{name: "Normalises inner line endings", input: "a\r\nb", expected: "a\nb"},
		{name: "Arabic is untouched", input: " إنما الأعمال بالنيات ", expected: "إنما الأعمال بالنيات"},
		{name: "Empty", input: "   ", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.input); got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("hash is deterministic", func(t *testing.T) {
		r1 := domain.Record{ID: 1, Title: "Test"}
		r2 := domain.Record{ID: 1, Title: "Test"}
		if Hash(r1) != Hash(r2) {
			t.Error("Expected hashes for identical records to be the same")
		}
	})

	t.Run("normalisation produces same hash", func(t *testing.T) {
		r1 := domain.Record{ID: 2, Title: "  intentions ", Body: "Actions are by intentions."}
		r2 := domain.Record{ID: 2, Title: "Intentions", Body: "actions are by intentions."}
		if Hash(r1) != Hash(r2) {
			t.Error("Expected hashes to be the same after normalisation, but they were different.")
		}
	})

	t.Run("different ids have different hashes", func(t *testing.T) {
		r1 := domain.Record{ID: 1, Title: "Same"}
		r2 := domain.Record{ID: 2, Title: "Same"}
		if Hash(r1) == Hash(r2) {
			t.Error("Expected hashes for different records to be different")
		}
	})
}

func TestFingerprint(t *testing.T) {
	a := []domain.Record{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	b := []domain.Record{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}

	if Fingerprint(a) != Fingerprint(a) {
		t.Error("Expected fingerprint to be deterministic")
	}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Expected fingerprint to depend on record order")
	}
	if len(Fingerprint(nil)) != 64 {
		t.Errorf("Expected a 64 character hex digest, got %d", len(Fingerprint(nil)))
	}
}
