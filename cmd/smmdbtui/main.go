package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/jask/smmdbtui/internal/config"
	"github.com/jask/smmdbtui/internal/controller"
	"github.com/jask/smmdbtui/internal/database"
	"github.com/jask/smmdbtui/internal/database/repository"
	"github.com/jask/smmdbtui/internal/dialog"
	"github.com/jask/smmdbtui/internal/emu"
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/secrets"
	"github.com/jask/smmdbtui/internal/settings"
	"github.com/jask/smmdbtui/internal/smmdb"
	"github.com/jask/smmdbtui/internal/tui"
)

var version = "dev"

const maxRecentSaves = 50

func main() {
	var (
		configPath  string
		logLevel    string
		openSave    string
		showVersion bool
	)
	flags := pflag.NewFlagSet("smmdbtui", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/smmdbtui/config.toml)")
	flags.StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.StringVar(&openSave, "save", "", "open this save folder on start")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("flags: %v", err)
	}
	if showVersion {
		fmt.Println("smmdbtui", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, closeLog, err := openLog(cfg.Log)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()
	logger.Info("starting", "version", version, "config", config.Path(configPath))

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		log.Fatalf("mkdir cache dir: %v", err)
	}
	if err := database.RunMigrations(cfg.Cache.Path); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if res, err := database.PruneCache(ctx, db, cfg.Cache.MaxThumbnails, maxRecentSaves); err != nil {
		logger.Warn("prune cache failed", "err", err)
	} else if res.Thumbnails > 0 || res.RecentSaves > 0 {
		logger.Info("pruned cache", "thumbnails", res.Thumbnails, "recent_saves", res.RecentSaves)
	}

	// repositories
	thumbRepo := repository.NewThumbnailRepo(db)
	recentRepo := repository.NewRecentSaveRepo(db)

	sec, err := secrets.Default()
	if err != nil {
		log.Fatalf("secrets: %v", err)
	}
	settingsStore := settings.NewStore(config.Path(configPath), cfg, sec)
	st, err := settingsStore.Load()
	if err != nil {
		logger.Warn("load settings failed, continuing without api key", "err", err)
		st = settings.Settings{PageSize: cfg.Catalog.PageSize}
	}

	lib, err := saves.NewFolderLibrary()
	if err != nil {
		log.Fatalf("save library: %v", err)
	}
	workflow := saves.NewWorkflow(lib)
	client := smmdb.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.With("component", "smmdb"))

	detected := emu.Detect(emu.DefaultRoots(cfg.Emu.ExtraDirs))
	logger.Info("detected saves", "count", len(detected))

	model := controller.NewModel(st, detected)
	effects := controller.NewEffects(ctx, controller.Deps{
		Archive:  client,
		Workflow: workflow,
		Picker:   dialog.NewNativePicker(),
		Settings: settingsStore,
		Thumbs:   thumbRepo,
		Recent:   recentRepo,
		Log:      logger.With("component", "effects"),
		Timeout:  cfg.API.Timeout,
	})
	subs := controller.NewManager(ctx, client, logger.With("component", "subscriptions"))
	defer subs.Close()

	p := tea.NewProgram(tui.New(ctx, model, effects, subs, tui.Options{
		Log:         logger,
		OpenOnStart: openSave,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// openLog writes text records to path. The TUI owns the terminal, so an
// empty path discards logs instead of falling back to stderr.
func openLog(cfg config.LogConfig) (*slog.Logger, func(), error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), func() { f.Close() }, nil
}
