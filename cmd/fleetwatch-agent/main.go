package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/agent"
	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fleetwatch-agent",
	Short: "Fleetwatch push agent",
	Long: `The fleetwatch agent runs on a monitored host, samples local CPU,
RAM and disk usage, and reports them to the fleetwatch server on a fixed
interval using the node's API key.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		apiKey, _ := cmd.Flags().GetString("api-key")
		interval, _ := cmd.Flags().GetDuration("interval")
		diskPath, _ := cmd.Flags().GetString("disk-path")
		debug, _ := cmd.Flags().GetBool("debug")

		level := log.InfoLevel
		if debug {
			level = log.DebugLevel
		}
		log.Init(log.Config{Level: level})

		if apiKey == "" {
			apiKey = os.Getenv("FLEETWATCH_API_KEY")
		}

		a, err := agent.New(agent.Config{
			ServerURL: serverURL,
			APIKey:    apiKey,
			Interval:  interval,
			DiskPath:  diskPath,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Fleetwatch agent version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.Flags().String("server", "http://localhost:8080", "Fleetwatch server URL")
	rootCmd.Flags().String("api-key", "", "Node API key (or FLEETWATCH_API_KEY)")
	rootCmd.Flags().Duration("interval", 60*time.Second, "Reporting interval")
	rootCmd.Flags().String("disk-path", "/", "Mount point to report disk usage for")
	rootCmd.Flags().Bool("debug", false, "Enable debug logging")
}
