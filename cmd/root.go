package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kafka2i/kafka2i/internal/command"
	"github.com/kafka2i/kafka2i/internal/config"
	"github.com/kafka2i/kafka2i/internal/consumer"
	"github.com/kafka2i/kafka2i/internal/kafka"
	"github.com/kafka2i/kafka2i/internal/logging"
	"github.com/kafka2i/kafka2i/internal/metadata"
	"github.com/kafka2i/kafka2i/internal/refresh"
	"github.com/kafka2i/kafka2i/internal/types"
	"github.com/kafka2i/kafka2i/internal/ui"
)

var (
	params      = config.Defaults()
	noClipboard bool
	version     string
)

var rootCmd = &cobra.Command{
	Use:   "kafka2i",
	Short: "An interactive terminal browser for Apache Kafka",
	Long: `kafka2i lets you navigate brokers, consumer groups, topics and partitions,
inspect watermarks and fetch individual messages by offset or timestamp,
and compose and publish messages, without leaving your terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command; cancelling ctx shuts the program down
func Execute(ctx context.Context, ver string) error {
	version = ver
	rootCmd.Version = ver
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.Flags()
	flags.StringSliceVarP(&params.BootstrapServers, "bootstrap-servers", "b", nil,
		"Comma separated broker addresses (host[:port])")
	flags.StringVar(&params.ConfigPath, "config", "",
		"Config file (default ~/.config/kafka2i/config.yaml)")
	flags.StringVar(&params.ClientID, "client-id", params.ClientID,
		"Client id used towards the brokers")
	flags.StringVar(&params.LogFile, "log-file", params.LogFile,
		"Log file path")
	flags.StringVar(&params.LogLevel, "log-level", params.LogLevel,
		"Log level (debug, info, warn, error)")
	flags.StringVar(&params.Theme, "theme", params.Theme,
		"Colour theme (latte, frappe, macchiato, mocha)")
	flags.DurationVar(&params.RefreshInterval, "refresh-interval", params.RefreshInterval,
		"Metadata refresh interval")
	flags.DurationVar(&params.StatsInterval, "stats-interval", params.StatsInterval,
		"Minimum interval between consumer statistics polls")
	flags.DurationVar(&params.Timeout, "timeout", params.Timeout,
		"Timeout for metadata, watermark and timestamp lookups")
	flags.DurationVar(&params.PollTimeout, "poll-timeout", params.PollTimeout,
		"Timeout for fetching a message (0 waits until one arrives)")
	flags.DurationVar(&params.WarmupTimeout, "warmup-timeout", params.WarmupTimeout,
		"Timeout for the first poll after assigning a partition")
	flags.DurationVar(&params.ProduceTimeout, "produce-timeout", params.ProduceTimeout,
		"Timeout for publishing a message")
	flags.BoolVar(&noClipboard, "no-clipboard", false,
		"Do not copy fetched messages to the clipboard")

	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// loadConfig merges the config file into the flag values and validates the
// result. Flags set on the command line win over the file.
func loadConfig(cmd *cobra.Command) error {
	path, required := params.ConfigPath, true
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return &config.ConfigError{Field: "config", Message: err.Error()}
		}
		path, required = defaultPath, false
	}

	file, err := config.LoadFile(path, required)
	if err != nil {
		return err
	}
	if err := config.Apply(&params, file, cmd.Flags().Changed); err != nil {
		return err
	}
	if cmd.Flags().Changed("no-clipboard") {
		params.Clipboard = !noClipboard
	}
	return config.Validate(&params)
}

func run(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	log, err := logging.New(logging.Config{
		FilePath:   params.LogFile,
		Level:      params.LogLevel,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer log.Sync()

	log.Info("starting kafka2i",
		zap.String("version", version),
		zap.Strings("bootstrap_servers", params.BootstrapServers),
		zap.String("client_id", params.ClientID))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stats := make(chan types.ClientStats, 1)
	client, err := kafka.NewClient(&params, kafka.NewStatsContext(stats), log)
	if err != nil {
		log.Error("failed to create kafka client", zap.Error(err))
		return fmt.Errorf("failed to create kafka client: %w", err)
	}
	defer client.Close()
	shared := consumer.NewLockedClient(client)

	// The first snapshot is loaded before the UI starts so it has data to show
	cache := metadata.NewCache(log)
	if err := initialRefresh(ctx, cache, shared, params.Timeout); err != nil {
		return err
	}

	opts := consumer.DefaultOptions()
	opts.WatermarkTimeout = params.Timeout
	opts.PollTimeout = params.PollTimeout
	opts.WarmupTimeout = params.WarmupTimeout
	fetcher := consumer.NewFetcher(shared, cache, opts, log)

	program := ui.NewProgram(ctx, ui.Deps{
		Cache:     cache,
		Fetcher:   fetcher,
		Commands:  command.NewInterpreter(fetcher, log),
		Producer:  client.NewProducer(params.ProduceTimeout),
		Clipboard: ui.NewClipboard(params.Clipboard),
		Stats:     stats,
		Theme:     params.Theme,
		Log:       log,
	})

	loop := refresh.NewLoop(shared, cache, params.RefreshInterval, params.Timeout, params.StatsInterval,
		func(s *metadata.Snapshot) {
			program.Send(ui.RefreshedMsg{Snapshot: s})
		}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		// quitting the UI stops the refresh loop
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("kafka2i stopped with error", zap.Error(err))
		return err
	}
	log.Info("kafka2i stopped")
	return nil
}

func initialRefresh(ctx context.Context, cache *metadata.Cache, src metadata.Source, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := cache.Refresh(ctx, src); err != nil {
		return fmt.Errorf("failed to load cluster metadata: %w", err)
	}
	return nil
}
