package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/raine/myyntiapuri/config"
	"github.com/raine/myyntiapuri/internal/listing"
	"github.com/raine/myyntiapuri/internal/llm"
	"github.com/raine/myyntiapuri/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const usage = `
	Usage: %[1]s <command> [flags]

	Commands:
	  generate [flags] <image>...   create a listing from photo paths or URLs
	  history                       list past listings
	  history rm <id>               remove a listing from history
	  closing [text]                show or set the closing message

	Run "%[1]s generate -h" for generate flags.
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	// Load env file from user config directory (same as the relay)
	config.LoadEnvFile()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, formatText(usage, os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		exitWithError("%v", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitWithError("failed to open database: %v", err)
	}
	defer store.Close()

	history := storage.NewHistory(storage.NewKVHistoryBackend(store))
	history.Load()
	defer history.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &app{cfg: cfg, store: store, history: history}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "generate":
		err = app.generate(ctx, args)
	case "history":
		err = app.historyCmd(args)
	case "closing":
		err = app.closing(args)
	case "-h", "--help", "help":
		fmt.Println(formatText(usage, os.Args[0]))
	default:
		fmt.Fprintln(os.Stderr, formatText(usage, os.Args[0]))
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		history.Flush()
		store.Close()
		exitWithError("%v", err)
	}
}

type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStore
	history *storage.History
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	conditionFlag := fs.String("condition", "", "item condition: "+conditionKeys())
	details := fs.String("details", "", "extra details for the listing, e.g. size or flaws")
	langFlag := fs.String("lang", a.cfg.Language, "listing language: fi or en")
	direct := fs.Bool("direct", false, "call Gemini directly instead of the relay (needs GEMINI_API_KEY)")
	logDir := fs.String("log-dir", "", "write a transcript of the generation to this directory")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	if *verbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	lang, err := listing.ParseLanguage(*langFlag)
	if err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return errors.New("at least one image path or URL is required")
	}

	condition, err := resolveCondition(*conditionFlag, lang)
	if err != nil {
		return err
	}

	gen, err := a.generator(ctx, *direct)
	if err != nil {
		return err
	}

	orch := listing.NewOrchestrator(gen, a.history)
	orch.OnStatus(func(status string) {
		if status != "" {
			fmt.Fprintln(os.Stderr, statusStyle.Render(status))
		}
	})

	draft := listing.NewDraft(listing.IntakeOptions{}, orch)
	files, err := imageFiles(fs.Args())
	if err != nil {
		return err
	}
	added, err := draft.AddImages(ctx, files)
	if err != nil {
		return err
	}
	for _, s := range added.Skipped {
		fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("skipped %s: %s", s.Name, s.Reason)))
	}

	closing, err := a.store.GetSetting(storage.SettingClosingMessage, listing.DefaultClosingMessage)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read closing message, using default")
	}

	req := listing.Request{
		Assets:         draft.Assets(),
		Condition:      condition,
		Details:        *details,
		ClosingMessage: closing,
		Language:       lang,
	}
	if *logDir != "" {
		tr, err := listing.NewTranscript(*logDir, draft.ID())
		if err != nil {
			log.Warn().Err(err).Msg("failed to start transcript")
		} else {
			req.Transcript = tr
		}
	}

	result, err := orch.Generate(ctx, req)
	if err != nil {
		var genErr *listing.GenerationError
		if errors.As(err, &genErr) {
			log.Debug().Err(genErr.Err).Msg("generation failed")
			return errors.New(genErr.Message)
		}
		return err
	}

	printResult(result, lang)
	return nil
}

func (a *app) generator(ctx context.Context, direct bool) (llm.Generator, error) {
	var gen llm.Generator
	if direct {
		client, err := llm.NewGeminiClient(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = client
	} else {
		gen = llm.NewRelayClient(a.cfg.RelayURL)
	}

	if a.cfg.ListingCache {
		log.Debug().Msg("listing cache enabled")
		gen = llm.NewCachedGenerator(gen, a.store)
	}
	return gen, nil
}

func (a *app) historyCmd(args []string) error {
	if len(args) == 0 {
		lang, _ := listing.ParseLanguage(a.cfg.Language)
		printHistory(a.history.List(), lang)
		return nil
	}

	if args[0] != "rm" || len(args) != 2 {
		return errors.New("usage: history [rm <id>]")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}
	if !a.history.Remove(id) {
		return fmt.Errorf("no listing with id %d", id)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Removed %d", id)))
	return nil
}

func (a *app) closing(args []string) error {
	if len(args) == 0 {
		msg, err := a.store.GetSetting(storage.SettingClosingMessage, listing.DefaultClosingMessage)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	}

	msg := strings.TrimSpace(strings.Join(args, " "))
	if err := a.store.SetSetting(storage.SettingClosingMessage, msg); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Closing message saved"))
	return nil
}

func resolveCondition(s string, lang listing.Language) (listing.Condition, error) {
	if s != "" {
		return listing.ParseCondition(s)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("-condition is required: %s", conditionKeys())
	}

	title := "Kunto"
	if lang == listing.LanguageEnglish {
		title = "Condition"
	}
	options := make([]huh.Option[listing.Condition], 0, len(listing.Conditions))
	for _, c := range listing.Conditions {
		options = append(options, huh.NewOption(c.Label(lang), c))
	}

	var condition listing.Condition
	err := huh.NewSelect[listing.Condition]().
		Title(title).
		Options(options...).
		Value(&condition).
		WithTheme(huh.ThemeBase16()).
		Run()
	if err != nil {
		return "", err
	}
	return condition, nil
}

func imageFiles(args []string) ([]listing.ImageFile, error) {
	client := listing.NewDownloadClient()
	files := make([]listing.ImageFile, 0, len(args))
	for _, arg := range args {
		var (
			f   listing.ImageFile
			err error
		)
		if listing.IsURL(arg) {
			f, err = listing.FileFromURL(client, arg)
		} else {
			f, err = listing.FileFromPath(arg)
		}
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func conditionKeys() string {
	keys := make([]string, len(listing.Conditions))
	for i, c := range listing.Conditions {
		keys[i] = c.Key()
	}
	return strings.Join(keys, ", ")
}

func exitWithError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}
