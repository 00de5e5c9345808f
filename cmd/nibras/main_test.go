package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/nibras/internal/engine"
	"github.com/conorfennell/nibras/internal/tutor"
)

const testCorpus = `{"hadiths":[
{"id":1,"arabic_title":"النية","arabic":"إنما الأعمال بالنيات وإنما لكل امرئ ما نوى فمن كانت هجرته إلى الله ورسوله فهجرته إلى الله ورسوله","narrator":"عمر بن الخطاب","source":"البخاري"},
{"id":2,"arabic_title":"الإسلام","arabic":"بني الإسلام على خمس شهادة أن لا إله إلا الله وأن محمدا رسول الله وإقام الصلاة وإيتاء الزكاة والحج وصوم رمضان","narrator":"ابن عمر","source":"مسلم"}
]}`

type harness struct {
	t    *testing.T
	base []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "hadiths.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(testCorpus), 0o644))
	return &harness{t: t, base: []string{
		"--corpus", corpusPath,
		"--db", filepath.Join(dir, "nibras.db"),
		"--log-level", "error",
	}}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append(append([]string{}, h.base...), args...), strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestShowAndStats(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 النية")
	assert.Contains(t, out, "عمر بن الخطاب")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1 / 2 (50.00%)")

	_, err = h.run("", "show", "9")
	assert.Error(t, err)
}

func TestDailyOncePerDay(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "المتبقي: 1")

	out, err = h.run("", "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "عد غداً")
}

func TestQuizSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("1\n1\n1\n", "quiz")
	require.NoError(t, err)
	assert.Contains(t, out, "النتيجة:")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "الاختبارات: 1")
}

func TestQuizQuitCancels(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("q\n", "quiz")
	require.NoError(t, err)
	assert.Contains(t, out, "أُلغي الاختبار")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "الاختبارات: 0")
}

func TestFlashcardsMarkForReview(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("n\nn\n", "flashcards")
	require.NoError(t, err)
	assert.Contains(t, out, "حفظت 0 من 2")

	out, err = h.run("y\n", "flashcards", "--review")
	require.NoError(t, err)
	assert.Contains(t, out, "حفظت 1 من 2")
}

func TestPlan(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "لا توجد خطة")

	out, err = h.run("", "plan", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "(0.5 يومياً)")

	_, err = h.run("", "plan", "0")
	assert.Error(t, err)

	out, err = h.run("", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "أنجزت 0 من 2")
}

func TestAskWithoutKeyFallsBack(t *testing.T) {
	h := newHarness(t)
	t.Setenv("NIBRAS_AI__API_KEY", "")

	out, err := h.run("", "ask", "ما معنى النية؟")
	require.NoError(t, err)
	assert.Contains(t, out, tutor.FallbackText)
}

func TestSyncListsSources(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 records")
	assert.Contains(t, out, "hadiths.json: 2 records")
}

func TestSyncFailsOnMissingCorpus(t *testing.T) {
	h := newHarness(t)
	h.base[1] = filepath.Join(t.TempDir(), "missing.json")

	_, err := h.run("", "sync")
	assert.Error(t, err)

	out, err := h.run("", "search", "النية")
	require.NoError(t, err, "other commands degrade to an empty corpus")
	assert.Contains(t, out, "لا توجد نتائج")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	_, err = h.run("")
	assert.Error(t, err)
}

func TestRemindAndDue(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "remind", "25:00")
	assert.Error(t, err)

	out, err := h.run("", "remind", "06:30", "--tz", "UTC")
	require.NoError(t, err)
	assert.Contains(t, out, "06:30")

	out, err = h.run("", "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "مفعل: 06:30 (UTC)")
}

func TestBannedLearnerIsRefused(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "ban", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Learner 7 banned")

	_, err = h.run("", "show", "1", "--learner", "7")
	assert.ErrorIs(t, err, engine.ErrBanned)
	_, err = h.run("", "stats", "--learner", "7")
	assert.ErrorIs(t, err, engine.ErrBanned)

	_, err = h.run("", "show", "1", "--learner", "8")
	require.NoError(t, err, "other learners are unaffected")

	_, err = h.run("", "unban", "7")
	require.NoError(t, err)
	out, err = h.run("", "show", "1", "--learner", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 النية")
}

func TestRemindValidatesBeforeSaving(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "remind", "06:30", "99:99", "--tz", "UTC")
	assert.Error(t, err)

	out, err := h.run("", "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "معطل", "a rejected evening time leaves the reminder untouched")
	assert.NotContains(t, out, "06:30")

	_, err = h.run("", "remind", "06:30", "20:15", "--tz", "UTC")
	require.NoError(t, err)
	out, err = h.run("", "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "المسائي: 20:15")
}

func TestNoteDelete(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "note", "1", "تذكير", "بالنية")
	require.NoError(t, err)
	out, err := h.run("", "note", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "تذكير بالنية")

	out, err = h.run("", "note", "1", "--delete")
	require.NoError(t, err)
	assert.Contains(t, out, "حُذفت الملاحظة")

	out, err = h.run("", "note", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "لا توجد ملاحظة")
}
