// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	socketPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forkstream",
	Short: "forkstream - mirror call audio streams to a UDP collector",
	Long: `forkstream mirrors the bidirectional audio of live calls to a remote
collector over a compact UDP protocol, without touching the original
media path.

The tap side is a library embedded in a call-processing host; this
binary provides the other pieces:

  collect   run the collector daemon (decode, track streams, sinks)
  replay    feed a pcap capture through a local tap, end to end
  logger    toggle per-packet diagnostics on a running collector
  stats     show a running collector's counters
  config    inspect effective configuration`,
	Version: "1.2.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "/var/run/forkstream.sock",
		"collector control socket path")
}
