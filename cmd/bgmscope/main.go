// Package main provides the bgmscope entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/sorane/bgmscope/internal/api/ws"
	"github.com/sorane/bgmscope/internal/app/notification"
	"github.com/sorane/bgmscope/internal/app/tracker"
	"github.com/sorane/bgmscope/internal/app/watch"
	"github.com/sorane/bgmscope/internal/domain/song"
	"github.com/sorane/bgmscope/internal/infra/config"
	"github.com/sorane/bgmscope/internal/infra/logger"
	"github.com/sorane/bgmscope/internal/infra/memsource"
)

var (
	app        = kingpin.New("bgmscope", "Background-music tracker for the host process")
	configPath = app.Flag("config", "Path to config file").Default("config/bgmscope.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	dumpCmd = app.Command("dump", "Print the raw control-block slots and exit")

	overrideCmd      = app.Command("override", "Force a song into a priority slot")
	overrideSong     = overrideCmd.Arg("song-id", "Song id (0 clears the override)").Required().Uint16()
	overridePriority = overrideCmd.Arg("priority", "Priority slot (0-11)").Required().Int()

	listSourcesCmd = app.Command("list-sources", "List available memory source types and exit")
)

func init() {
	// watch command (default) - no need to store the command
	app.Command("watch", "Poll the host and report song transitions (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listSourcesCmd.FullCommand() {
		for _, t := range memsource.Types() {
			fmt.Println(t)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	// Config supplies the log settings, flags override them.
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case dumpCmd.FullCommand():
		err = runDump(cfg)
	case overrideCmd.FullCommand():
		err = runOverride(cfg, *overrideSong, *overridePriority)
	default:
		err = runWatch(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("%v", err)
		os.Exit(1)
	}
}

// newTracker builds the tracker over the configured memory source.
func newTracker(cfg *config.Config) (*tracker.Tracker, error) {
	src, err := memsource.New(cfg.Source.Type, cfg.Source.Settings)
	if err != nil {
		return nil, err
	}
	return tracker.New(src), nil
}

func loadCatalog(cfg *config.Config) *song.Catalog {
	if cfg.Catalog.Path == "" {
		return nil
	}
	catalog, err := song.Load(cfg.Catalog.Path)
	if err != nil {
		zlog.Warn().Msgf("song catalog unavailable, ids will not be resolved: %v", err)
		return nil
	}
	zlog.Info().Msgf("loaded song catalog: %d entries from %s", catalog.Len(), cfg.Catalog.Path)
	return catalog
}

func runWatch(cfg *config.Config) error {
	trk, err := newTracker(cfg)
	if err != nil {
		return err
	}
	catalog := loadCatalog(cfg)

	notifier := notification.NewManager()
	defer notifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		feed := ws.NewServer(notifier, catalog)
		go func() {
			if err := feed.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				zlog.Error().Msgf("event feed stopped: %v", err)
			}
		}()
	}

	watch.New(trk, notifier, catalog, cfg.PollInterval()).Run(ctx)
	return nil
}

func runDump(cfg *config.Config) error {
	trk, err := newTracker(cfg)
	if err != nil {
		return err
	}
	catalog := loadCatalog(cfg)

	info, ok := trk.Dump()
	if !ok {
		fmt.Println("control-block array unavailable")
		return nil
	}

	fmt.Println("slot  primary  secondary  tertiary  title")
	for i, s := range info {
		fmt.Printf("%4d  %7d  %9d  %8d  %s\n",
			i, s.Primary, s.Secondary, s.Tertiary, catalog.Title(s.Secondary))
	}
	return nil
}

func runOverride(cfg *config.Config, songID uint16, priority int) error {
	trk, err := newTracker(cfg)
	if err != nil {
		return err
	}

	if err := trk.SetOverride(songID, priority); err != nil {
		return err
	}
	if songID == 0 {
		fmt.Printf("cleared override on slot %d\n", priority)
	} else {
		fmt.Printf("song %d forced into slot %d\n", songID, priority)
	}
	return nil
}
