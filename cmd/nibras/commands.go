package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/nibras/internal/domain"
	"github.com/conorfennell/nibras/internal/engine"
	"github.com/conorfennell/nibras/internal/progress"
	"github.com/conorfennell/nibras/internal/reminder"
	"github.com/conorfennell/nibras/internal/storage"
	"github.com/conorfennell/nibras/internal/tutor"
)

const supportMessage = "إن أعجبك نبراس فشاركه مع من تحب، فالدال على الخير كفاعله."

type app struct {
	ctx     context.Context
	engine  *engine.Engine
	db      any
	flags   cliFlags
	in      *lineReader
	out     io.Writer
	learner int64
}

// operatorCommands act on the deployment or on other learners and are not
// subject to the --learner ban check.
var operatorCommands = map[string]bool{
	"sync":  true,
	"due":   true,
	"ban":   true,
	"unban": true,
}

type lineReader struct {
	scanner *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

// readLine returns the next trimmed input line; ok is false at end of input.
func (l *lineReader) readLine() (string, bool) {
	if !l.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(l.scanner.Text()), true
}

func (a *app) dispatch(command string, args []string) error {
	handlers := map[string]func([]string) error{
		"sync":       a.sync,
		"show":       a.show,
		"random":     a.random,
		"daily":      a.daily,
		"search":     a.search,
		"related":    a.related,
		"categories": a.categories,
		"topics":     a.topics,
		"favorite":   a.favorite,
		"unfavorite": a.unfavorite,
		"favorites":  a.favorites,
		"note":       a.note,
		"stats":      a.stats,
		"badges":     a.badges,
		"quiz":       a.quiz,
		"flashcards": a.flashcards,
		"plan":       a.plan,
		"ask":        a.ask,
		"suggest":    a.suggest,
		"remind":     a.remind,
		"due":        a.due,
		"ban":        a.ban,
		"unban":      a.unban,
	}
	h, ok := handlers[command]
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}
	learnerFacing := !operatorCommands[command]
	if learnerFacing {
		if err := a.engine.Admit(a.learner); err != nil {
			return err
		}
	}
	if err := h(args); err != nil {
		return err
	}
	if learnerFacing && a.engine.Interact(a.learner) {
		fmt.Fprintln(a.out, "\n"+supportMessage)
	}
	return nil
}

func argID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing record id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid record id %q", args[0])
	}
	return id, nil
}

func (a *app) printRecord(r domain.Record) {
	fmt.Fprintf(a.out, "#%d %s\n", r.ID, r.Title)
	if r.IsSacred() {
		fmt.Fprintln(a.out, r.TypeLabel)
	}
	fmt.Fprintf(a.out, "الراوي: %s\n", r.Narrator.Name)
	if r.Source.Label != "" {
		fmt.Fprintf(a.out, "المصدر: %s\n", r.Source.Label)
	}
	fmt.Fprintf(a.out, "\n%s\n", r.Body)
	if len(r.Benefits) > 0 {
		fmt.Fprintln(a.out, "\nالفوائد:")
		for _, b := range r.Benefits {
			fmt.Fprintf(a.out, "- %s\n", b)
		}
	}
}

func (a *app) printList(records []domain.Record) {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "لا توجد نتائج.")
		return
	}
	for _, r := range records {
		fmt.Fprintf(a.out, "%4d  %s (%s)\n", r.ID, r.Title, r.Narrator.Name)
	}
}

func (a *app) printBadges(ids []string) {
	for _, id := range ids {
		if b, ok := progress.LookupBadge(id); ok {
			fmt.Fprintf(a.out, "وسام جديد: %s %s\n", b.Emoji, b.Label)
		}
	}
}

func (a *app) sync(_ []string) error {
	fmt.Fprintf(a.out, "Loaded %d records (fingerprint %s)\n", a.engine.Index().Len(), a.engine.Index().Fingerprint())
	db, ok := a.db.(*storage.DB)
	if !ok {
		return nil
	}
	sources, err := db.GetAllSources()
	if err != nil {
		return err
	}
	for _, s := range sources {
		synced := "never"
		if s.LastSynced.Valid {
			synced = s.LastSynced.Time.Format(time.RFC3339)
		}
		fmt.Fprintf(a.out, "- %s: %d records, %s, synced %s\n", s.Path, s.RecordCount, s.Fingerprint, synced)
	}
	return nil
}

func (a *app) show(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	r, badges, err := a.engine.Read(a.learner, id)
	if err != nil {
		return err
	}
	a.printRecord(r)
	if n, ok := a.engine.Store().Note(a.learner, id); ok {
		fmt.Fprintf(a.out, "\nملاحظتك: %s\n", n.Text)
	}
	a.printBadges(badges)
	return nil
}

func (a *app) random(_ []string) error {
	r, err := a.engine.Random()
	if err != nil {
		return err
	}
	return a.show([]string{strconv.Itoa(r.ID)})
}

func (a *app) daily(_ []string) error {
	d, err := a.engine.Daily(a.learner)
	if errors.Is(err, engine.ErrDailyDone) {
		fmt.Fprintln(a.out, "لقد قرأت حديث اليوم، عد غداً.")
		return nil
	}
	if err != nil {
		return err
	}
	a.printRecord(d.Record)
	fmt.Fprintf(a.out, "\nالمتبقي: %d\n", d.Remaining)
	a.printBadges(d.Badges)
	return nil
}

func (a *app) search(args []string) error {
	a.printList(a.engine.Search(strings.Join(args, " ")))
	return nil
}

func (a *app) related(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	if _, err := a.engine.Get(id); err != nil {
		return err
	}
	a.printList(a.engine.Related(id))
	return nil
}

func (a *app) printGroups(groups map[string][]int) {
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(a.out, "%s (%d)\n", l, len(groups[l]))
	}
}

func (a *app) categories(args []string) error {
	if len(args) > 0 {
		a.printList(a.engine.Index().ByCategory(strings.Join(args, " ")))
		return nil
	}
	a.printGroups(a.engine.Index().Categories())
	return nil
}

func (a *app) topics(args []string) error {
	if len(args) > 0 {
		a.printList(a.engine.Index().ByTopic(strings.Join(args, " ")))
		return nil
	}
	a.printGroups(a.engine.Index().Topics())
	return nil
}

func (a *app) favorite(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	badges, err := a.engine.AddFavorite(a.learner, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "أضيف الحديث %d إلى المفضلة.\n", id)
	a.printBadges(badges)
	return nil
}

func (a *app) unfavorite(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	a.engine.Store().RemoveFavorite(a.learner, id)
	fmt.Fprintf(a.out, "أزيل الحديث %d من المفضلة.\n", id)
	return nil
}

func (a *app) favorites(_ []string) error {
	var records []domain.Record
	for _, id := range a.engine.Store().Favorites(a.learner) {
		if r, err := a.engine.Get(id); err == nil {
			records = append(records, r)
		}
	}
	a.printList(records)
	return nil
}

func (a *app) note(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	if a.flags.delete {
		if _, ok := a.engine.Store().Note(a.learner, id); !ok {
			fmt.Fprintln(a.out, "لا توجد ملاحظة.")
			return nil
		}
		if !a.engine.Store().DeleteNote(a.learner, id) {
			return errors.New("failed to delete note")
		}
		fmt.Fprintln(a.out, "حُذفت الملاحظة.")
		return nil
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		n, ok := a.engine.Store().Note(a.learner, id)
		if !ok {
			fmt.Fprintln(a.out, "لا توجد ملاحظة.")
			return nil
		}
		fmt.Fprintf(a.out, "%s\n(%s)\n", n.Text, n.Timestamp.Format(time.DateTime))
		return nil
	}
	badges, err := a.engine.SetNote(a.learner, id, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "حُفظت الملاحظة.")
	a.printBadges(badges)
	return nil
}

func (a *app) stats(_ []string) error {
	s := a.engine.Stats(a.learner)
	fmt.Fprintf(a.out, "المقروء: %d / %d (%.2f%%)\n", s.ReadCount, s.Total, s.ProgressPercentage)
	fmt.Fprintf(a.out, "هذا الأسبوع: %d\n", s.WeekReads)
	fmt.Fprintf(a.out, "السلسلة: %d (الأفضل %d)\n", s.Streak, s.StreakBest)
	fmt.Fprintf(a.out, "المفضلة: %d  الملاحظات: %d\n", s.Favorites, s.Notes)
	fmt.Fprintf(a.out, "الاختبارات: %d  المتوسط: %.2f%%  الأفضل: %.2f%%\n", s.QuizzesTaken, s.AverageQuizScore, s.BestQuizScore)
	fmt.Fprintf(a.out, "البطاقات: %d  للمراجعة: %d\n", s.FlashcardCount, s.NeedsReview)
	fmt.Fprintf(a.out, "الأوسمة: %d / %d\n", len(s.EarnedBadges), len(progress.Badges))
	return nil
}

func (a *app) badges(_ []string) error {
	p := a.engine.Store().Load(a.learner)
	for _, b := range progress.Badges {
		mark := "🔒"
		if p.HasBadge(b.ID) {
			mark = b.Emoji
		}
		fmt.Fprintf(a.out, "%s %s: %s\n", mark, b.Label, b.Description)
	}
	return nil
}

func (a *app) quiz(_ []string) error {
	_, n, err := a.engine.StartQuiz(a.learner, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "اختبار من %d أسئلة. أجب برقم الخيار، أو q للإنهاء.\n", n)

	for {
		q, index, ok, err := a.engine.CurrentQuestion(a.learner)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Fprintf(a.out, "\n%d/%d) %s\n", index+1, n, q.Prompt)
		for i, o := range q.Options {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, o)
		}

		choice, quit := a.readChoice(len(q.Options))
		if quit {
			a.engine.CancelQuiz(a.learner)
			fmt.Fprintln(a.out, "أُلغي الاختبار.")
			return nil
		}
		ans, err := a.engine.Answer(a.learner, q.Options[choice])
		if err != nil {
			return err
		}
		if ans.IsCorrect {
			fmt.Fprintln(a.out, "✅ صحيح")
		} else {
			fmt.Fprintf(a.out, "❌ خطأ، الجواب: %s\n", ans.CorrectAnswer)
		}
	}

	res, badges, err := a.engine.FinishQuiz(a.learner)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nالنتيجة: %d / %d (%.2f%%)\n", res.Score, res.Total, res.Percentage)
	a.printBadges(badges)
	return nil
}

// readChoice reads a 1-based option number. quit is set on "q" or end of input.
func (a *app) readChoice(n int) (choice int, quit bool) {
	for {
		fmt.Fprint(a.out, "> ")
		line, ok := a.in.readLine()
		if !ok || strings.EqualFold(line, "q") {
			return 0, true
		}
		if i, err := strconv.Atoi(line); err == nil && i >= 1 && i <= n {
			return i - 1, false
		}
		fmt.Fprintf(a.out, "اختر رقماً من 1 إلى %d\n", n)
	}
}

func (a *app) flashcards(_ []string) error {
	n, err := a.engine.StartFlashcards(a.learner, a.flags.review)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d بطاقة. اكتب y إن كنت تحفظها، n إن لم تحفظها، q للإنهاء.\n", n)

	for {
		card, ok, err := a.engine.CurrentCard(a.learner)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Fprintf(a.out, "\n[%d/%d] #%d %s\n", card.Index+1, card.Total, card.Record.ID, card.Record.Title)

		knew, quit := a.readYesNo()
		if quit {
			break
		}
		fmt.Fprintf(a.out, "%s\n", card.Record.Body)
		if _, err := a.engine.AnswerCard(a.learner, knew); err != nil {
			return err
		}
	}

	res, badges, err := a.engine.FinishFlashcards(a.learner)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nحفظت %d من %d\n", res.Correct, res.Total)
	a.printBadges(badges)
	return nil
}

func (a *app) readYesNo() (knew, quit bool) {
	for {
		fmt.Fprint(a.out, "> ")
		line, ok := a.in.readLine()
		if !ok {
			return false, true
		}
		switch strings.ToLower(line) {
		case "y", "yes", "نعم":
			return true, false
		case "n", "no", "لا":
			return false, false
		case "q":
			return false, true
		}
	}
}

func (a *app) plan(args []string) error {
	if len(args) > 0 && args[0] == "reset" {
		a.engine.ResetStudyPlan(a.learner)
		fmt.Fprintln(a.out, "أُلغيت الخطة.")
		return nil
	}
	if len(args) > 0 {
		days, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid number of days %q", args[0])
		}
		p, err := a.engine.CreateStudyPlan(a.learner, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "خطة من %d حديثاً في %d يوماً (%.1f يومياً)\n", len(p.IDs), p.Days, p.PerDay)
		return nil
	}

	pp, ok := a.engine.PlanProgress(a.learner)
	if !ok {
		fmt.Fprintln(a.out, "لا توجد خطة. استخدم: plan <days>")
		return nil
	}
	fmt.Fprintf(a.out, "أنجزت %d من %d (%.1f%%)، المتبقي %d\n", pp.Completed, pp.Total, pp.Percentage, pp.Remaining)
	for _, id := range pp.Next {
		if r, err := a.engine.Get(id); err == nil {
			fmt.Fprintf(a.out, "التالي: #%d %s\n", r.ID, r.Title)
		}
	}
	return nil
}

func (a *app) ask(args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("missing question")
	}
	fmt.Fprintln(a.out, a.engine.Explain(a.ctx, a.learner, question, tutor.Mode(a.flags.mode), a.flags.subject))
	return nil
}

func (a *app) suggest(args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	qs, err := a.engine.SuggestQuestions(id)
	if err != nil {
		return err
	}
	for _, q := range qs {
		fmt.Fprintf(a.out, "- %s\n", q)
	}
	return nil
}

func (a *app) remind(args []string) error {
	store := a.engine.Store()
	if len(args) == 0 {
		r := store.Reminder(a.learner)
		state := "معطل"
		if r.Enabled {
			state = "مفعل"
		}
		fmt.Fprintf(a.out, "التذكير %s: %s (%s)\n", state, r.Time, r.Timezone)
		if r.EveningTime != "" {
			fmt.Fprintf(a.out, "المسائي: %s\n", r.EveningTime)
		}
		return nil
	}
	if args[0] == "off" {
		store.DisableReminder(a.learner)
		fmt.Fprintln(a.out, "عُطّل التذكير.")
		return nil
	}
	if _, ok := reminder.ParseTime(args[0]); !ok {
		return fmt.Errorf("invalid time %q, expected HH:MM", args[0])
	}
	if len(args) > 1 {
		if _, ok := reminder.ParseTime(args[1]); !ok {
			return fmt.Errorf("invalid evening time %q, expected HH:MM", args[1])
		}
	}
	if a.flags.tz != "" {
		if _, err := time.LoadLocation(a.flags.tz); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", a.flags.tz, err)
		}
	}
	if !store.EnableReminder(a.learner, args[0], a.flags.tz) {
		return errors.New("failed to save reminder")
	}
	if len(args) > 1 && !store.SetEveningReminder(a.learner, args[1]) {
		return errors.New("failed to save evening reminder")
	}
	fmt.Fprintf(a.out, "التذكير مفعل عند %s\n", args[0])
	return nil
}

// due prints every learner whose reminder is due now and records it as sent.
func (a *app) due(_ []string) error {
	store := a.engine.Store()
	for _, d := range a.engine.DueReminders(store.Now()) {
		if d.Slots.Morning {
			fmt.Fprintf(a.out, "%d morning\n", d.LearnerID)
			store.RecordReminderSent(d.LearnerID, false)
		}
		if d.Slots.Evening {
			fmt.Fprintf(a.out, "%d evening\n", d.LearnerID)
			store.RecordReminderSent(d.LearnerID, true)
		}
	}
	return nil
}

func argLearner(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("missing learner id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid learner id %q", args[0])
	}
	return id, nil
}

func (a *app) ban(args []string) error {
	id, err := argLearner(args)
	if err != nil {
		return err
	}
	if !a.engine.Store().Ban(id) {
		return fmt.Errorf("failed to ban learner %d", id)
	}
	fmt.Fprintf(a.out, "Learner %d banned\n", id)
	return nil
}

func (a *app) unban(args []string) error {
	id, err := argLearner(args)
	if err != nil {
		return err
	}
	if !a.engine.Store().Unban(id) {
		return fmt.Errorf("failed to unban learner %d", id)
	}
	fmt.Fprintf(a.out, "Learner %d unbanned\n", id)
	return nil
}
