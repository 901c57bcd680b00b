package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/keshon/cord-titan/internal/command/core"
	"github.com/keshon/cord-titan/internal/command/music"
	"github.com/keshon/cord-titan/internal/config"
	"github.com/keshon/cord-titan/internal/discord"
	"github.com/keshon/cord-titan/internal/logging"
	"github.com/keshon/cord-titan/internal/middleware"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/music/queue"
	"github.com/keshon/cord-titan/internal/music/reaper"
	"github.com/keshon/cord-titan/internal/music/resolver"
	"github.com/keshon/cord-titan/internal/storage"
	"github.com/keshon/cord-titan/internal/version"
	"github.com/keshon/cord-titan/pkg/cmd"
	"github.com/keshon/cord-titan/pkg/jobmgr"
	"github.com/keshon/cord-titan/pkg/ratelimit"
)

var rootCmd = &cobra.Command{
	Use:          "cord-titan",
	Short:        version.AppDescription,
	SilenceUsage: true,
	RunE: func(c *cobra.Command, _ []string) error {
		return run(c.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(c *cobra.Command, _ []string) {
		fmt.Fprintf(c.OutOrStdout(), "%s %s (commit %s, built %s)\n",
			version.AppName, version.Version, version.Commit, version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closer.Close()

	log.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Msgf("starting %s", version.AppName)

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	lim := ratelimit.NewAdaptiveLimiter(
		rate.Limit(cfg.ResolverRPS),
		rate.Limit(cfg.ResolverMinRPS),
		rate.Limit(cfg.ResolverMaxRPS),
		1, 0.5,
	)
	chain := resolver.NewChain(lim,
		resolver.NewYouTube(cfg.YouTubeProxy),
		resolver.NewYTDLP(cfg.YTDLPPath, cfg.YouTubeProxy),
	)

	queues := queue.NewRegistry(queue.WithVolume(cfg.DefaultVolume))
	stats := player.NewStats()

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	voice := discord.NewVoiceManager(dg, cfg.FFmpegPath)
	notifier := discord.NewNotifier(dg, queues)

	p := player.New(queues, voice, chain, notifier,
		player.WithReresolveTimeout(cfg.ReresolveTimeout),
		player.WithStats(stats),
	)
	defer p.Close()

	reg := cmd.NewRegistry()
	mws := []cmd.Middleware{
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(cfg.DeveloperID),
		middleware.WithDJCheck(store, cfg.DeveloperID),
		middleware.WithCommandLogger(stats),
	}
	music.Register(reg, &music.Music{
		Player:   p,
		Voice:    voice,
		Notifier: notifier,
		Resolver: chain,
		Storage:  store,
		Config:   cfg,
	}, mws...)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := jobmgr.NewManager(ctx, nil)
	defer jobs.Shutdown()

	core.Register(&core.Core{
		Registry: reg,
		Stats:    stats,
		Voice:    voice,
		Queues:   queues,
		Jobs:     jobs,
	}, mws...)

	sweeper := reaper.New(voice, store, p)
	if err := jobs.StartAsync("idle-sweep", func(ctx context.Context) error {
		return sweeper.Run(ctx, cfg.IdleSweepInterval)
	}); err != nil {
		return err
	}
	if err := jobs.Every("presence", cfg.PresenceInterval, discord.NewPresence(dg, stats).Rotate); err != nil {
		return err
	}

	return discord.NewBot(dg, cfg, store, reg, voice, p).Run(ctx)
}
