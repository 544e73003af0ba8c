package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stssrv/forkstream/internal/command"
)

// The logger subcommands are the CLI the original exposed as
// "forkstream set logger on|off" and "forkstream show logger", pointed
// at a running collector over its control socket.
var loggerCmd = &cobra.Command{
	Use:   "logger",
	Short: "Control per-packet diagnostic logging on a running collector",
}

var loggerOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable per-packet diagnostic logging",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callLogger("logger_on")
	},
}

var loggerOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable per-packet diagnostic logging",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callLogger("logger_off")
	},
}

var loggerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show diagnostic logging status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callLogger("logger_status")
	},
}

func callLogger(method string) error {
	client := command.NewUDSClient(socketPath, 5*time.Second)
	resp, err := client.Call(context.Background(), method, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("%s", resp.Error.Message)
	}

	status, ok := resp.Result.(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected response: %v", resp.Result)
	}
	state := "disabled"
	if on, _ := status["verbose"].(bool); on {
		state = "enabled"
	}
	fmt.Printf("Per-packet logging is %s (level: %v)\n", state, status["level"])
	return nil
}

func init() {
	loggerCmd.AddCommand(loggerOnCmd)
	loggerCmd.AddCommand(loggerOffCmd)
	loggerCmd.AddCommand(loggerStatusCmd)
	rootCmd.AddCommand(loggerCmd)
}
