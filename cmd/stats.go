package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stssrv/forkstream/internal/command"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counters of a running collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := command.NewUDSClient(socketPath, 5*time.Second)
		resp, err := client.Stats(context.Background())
		if err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("%s", resp.Error.Message)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Result)
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop a running collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := command.NewUDSClient(socketPath, 5*time.Second)
		resp, err := client.Shutdown(context.Background())
		if err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("%s", resp.Error.Message)
		}
		fmt.Println("Collector is shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shutdownCmd)
}
