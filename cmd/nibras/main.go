package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conorfennell/nibras/internal/config"
	"github.com/conorfennell/nibras/internal/engine"
	"github.com/conorfennell/nibras/internal/progress"
	"github.com/conorfennell/nibras/internal/storage"
	"github.com/conorfennell/nibras/internal/sync"
	"github.com/conorfennell/nibras/internal/tutor"
)

const usage = `Usage: nibras [flags] <command> [args]

Commands:
  sync                 fetch and load the corpus, then list recorded sources
  show <id>            show a record and mark it read
  random               show a random record
  daily                today's record
  search <keyword>     ranked search
  related <id>         records related to <id>
  categories           list categories
  topics               list topics
  favorite <id>        add a record to favorites
  unfavorite <id>      remove a record from favorites
  favorites            list favorites
  note <id> [text]     show or set a note on a record (--delete to remove it)
  stats                learner statistics
  badges               earned and available badges
  quiz                 interactive multiple-choice quiz
  flashcards           interactive flashcard pass (--review for missed cards only)
  plan [days|reset]    create, show or reset a study plan
  ask <question>       ask the tutor (--mode normal|simple|compare, --subject id)
  suggest <id>         suggested questions about a record
  remind <hh:mm|off>   set or disable the morning reminder (--tz zone)
  due                  learners with reminders due now
  ban <learner>        refuse every command for a learner
  unban <learner>      lift a ban

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	learner int64
	review  bool
	mode    string
	subject int
	tz      string
	delete  bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	// 1. Define and parse command-line flags
	fs := pflag.NewFlagSet("nibras", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	var cf cliFlags
	fs.Int64Var(&cf.learner, "learner", 1, "Learner id")
	fs.BoolVar(&cf.review, "review", false, "Flashcards: only cards marked for review")
	fs.StringVar(&cf.mode, "mode", string(tutor.ModeNormal), "Tutor explanation mode")
	fs.IntVar(&cf.subject, "subject", 0, "Tutor subject record id (default: last record shown)")
	fs.StringVar(&cf.tz, "tz", "", "Reminder timezone")
	fs.BoolVar(&cf.delete, "delete", false, "Note: delete the note instead of showing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	// 2. Resolve configuration and logging
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	// 3. Open progress storage
	db, rec, closeDB, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeDB()

	// 4. Load the corpus
	command, cmdArgs := fs.Arg(0), fs.Args()[1:]
	index, err := sync.Run(ctx, cfg.Corpus, rec, io.Discard)
	if err != nil {
		if command == "sync" {
			return err
		}
		slog.Warn("Continuing with an empty corpus", "error", err)
	}

	// 5. Wire the engine
	store := progress.NewStore(db, progress.WithReminderDefaults(cfg.Reminder.DefaultTime, cfg.Reminder.DefaultTimezone))
	opts := engine.DefaultOptions()
	opts.QuestionCount = cfg.Quiz.QuestionCount
	opts.SearchLimit = cfg.Search.Limit
	opts.RelatedLimit = cfg.Related.Limit
	opts.SupportInterval = cfg.Support.Interval
	opts.ReminderWindow = cfg.Reminder.Window
	eng := engine.New(index, store, newTutor(cfg.AI), opts)

	a := &app{
		ctx:     ctx,
		engine:  eng,
		db:      db,
		flags:   cf,
		in:      newLineReader(stdin),
		out:     stdout,
		learner: cf.learner,
	}
	return a.dispatch(command, cmdArgs)
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// openStorage returns the progress backend for cfg. Only the SQLite backend
// records corpus syncs, so rec is nil for Redis.
func openStorage(cfg config.StorageConfig) (progress.Persistence, sync.Recorder, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "redis":
		rc := storage.DefaultRedisConfig()
		rc.Addr = cfg.RedisAddr
		rc.DB = cfg.RedisDB
		rc.KeyPrefix = cfg.RedisPrefix
		rs, err := storage.OpenRedis(rc)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("Progress storage opened", "driver", "redis", "addr", cfg.RedisAddr)
		return rs, nil, func() { rs.Close() }, nil
	default:
		db, err := storage.Open(cfg.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		slog.Info("Progress storage opened", "driver", "sqlite", "dsn", cfg.DSN)
		return db, db, func() { db.Close() }, nil
	}
}

// newTutor returns nil when no API key is configured; the engine then
// answers every question with the fallback text.
func newTutor(cfg config.AIConfig) *tutor.Tutor {
	if cfg.APIKey == "" {
		slog.Debug("No AI key configured, tutor disabled")
		return nil
	}
	return tutor.New(tutor.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxHistory: cfg.MaxHistory,
		Timeout:    cfg.Timeout,
	})
}
