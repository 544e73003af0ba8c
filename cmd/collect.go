package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stssrv/forkstream/internal/collector"
	"github.com/stssrv/forkstream/internal/command"
	"github.com/stssrv/forkstream/internal/config"
	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/internal/metrics"
	"github.com/stssrv/forkstream/pkg/forkstream"
)

var (
	collectListen  string
	collectVerbose bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the collector daemon",
	Long: `Run the collector daemon: listen for mirrored streams, decode the
wire protocol, track per-stream statistics, and feed configured sinks.

Examples:
  forkstream collect                          # defaults, console sink on :9999
  forkstream collect -c /etc/forkstream.yml   # full config file
  forkstream collect --listen 0.0.0.0:4000    # override the listen address`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if collectListen != "" {
			cfg.Collector.Listen = collectListen
		}
		if socketPath != "" {
			cfg.Control.Socket = socketPath
		}
		if collectVerbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := log.Init(&cfg.Log); err != nil {
			return err
		}
		forkstream.SetVerbose(collectVerbose)

		col, err := collector.New(cfg.Collector)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(),
			syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		handler := command.NewHandler(col)
		handler.SetShutdownFunc(cancel)
		uds := command.NewUDSServer(cfg.Control.Socket, handler)
		go func() {
			if err := uds.Start(ctx); err != nil {
				log.GetLogger().WithError(err).Error("control socket failed")
			}
		}()

		if cfg.Metrics.Enabled {
			ms := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := ms.Start(ctx); err != nil {
				return err
			}
			defer ms.Stop(context.Background())
		}

		return col.Run(ctx)
	},
}

func init() {
	collectCmd.Flags().StringVarP(&collectListen, "listen", "l", "",
		"UDP listen address, overrides config")
	collectCmd.Flags().BoolVarP(&collectVerbose, "verbose", "v", false,
		"start with per-packet diagnostics enabled")
	rootCmd.AddCommand(collectCmd)
}
