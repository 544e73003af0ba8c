package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stssrv/forkstream/internal/log"
	"github.com/stssrv/forkstream/internal/replay"
	"github.com/stssrv/forkstream/pkg/forkstream"
)

var (
	replayFile     string
	replayPort     uint16
	replayDest     string
	replayRealTime bool
	replayVerbose  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a pcap capture through a local tap",
	Long: `Replay the RTP audio of a captured call through an in-process media
tap, mirroring it to a collector exactly as a production host would.

The destination argument is the same configuration string a dialplan
would pass: "ip:port[,label[,ext[,caller[,called]]]]".

Examples:
  forkstream replay -f call.pcap -p 10000 -d 127.0.0.1:9999
  forkstream replay -f call.pcap -p 10000 -d "10.0.0.5:4000,trunk-1,ext100" --realtime`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayVerbose {
			if err := log.SetLevel("debug"); err != nil {
				return err
			}
			forkstream.SetVerbose(true)
		}

		ctx, cancel := signal.NotifyContext(context.Background(),
			syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return replay.Run(ctx, replay.Options{
			File:     replayFile,
			Port:     replayPort,
			Config:   replayDest,
			RealTime: replayRealTime,
		})
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "pcap file to replay")
	replayCmd.Flags().Uint16VarP(&replayPort, "port", "p", 0, "media (RTP) port of the replayed call")
	replayCmd.Flags().StringVarP(&replayDest, "dest", "d", "", `tap configuration string "ip:port[,label[,ext[,caller[,called]]]]"`)
	replayCmd.Flags().BoolVar(&replayRealTime, "realtime", false, "pace frames by capture timestamps")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "log every mirrored frame")
	replayCmd.MarkFlagRequired("file")
	replayCmd.MarkFlagRequired("port")
	replayCmd.MarkFlagRequired("dest")
	rootCmd.AddCommand(replayCmd)
}
