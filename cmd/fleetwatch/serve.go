package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetwatch/fleetwatch/pkg/api"
	"github.com/fleetwatch/fleetwatch/pkg/config"
	"github.com/fleetwatch/fleetwatch/pkg/events"
	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/manager"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/monitor"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/reconciler"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/fleetwatch/fleetwatch/pkg/uptime"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fleetwatch monitoring server",
	Long: `Run the fleetwatch server: the push API nodes report to, the
offline reconciler, the retention janitor and the operator read API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("listen-addr"); addr != "" {
			cfg.ListenAddr = addr
		}
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			cfg.DataDir = dataDir
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		metrics.SetVersion(Version)

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()
		metrics.RegisterComponent("storage", true, "")

		clock := types.SystemClock{}

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		emitter := notify.NewEmitter(store, clock)
		engine := monitor.NewEngine(store, emitter, broker, clock, monitor.Config{
			KeepSamples:        cfg.Monitor.KeepSamples,
			HighUsageThreshold: cfg.Monitor.HighUsageThreshold,
		})
		calc := uptime.NewCalculator(store, clock)
		mgr := manager.NewManager(store, broker, calc, clock)

		recon := reconciler.NewReconciler(store, engine, clock, reconciler.Config{
			Interval:       cfg.Reconciler.Interval.Std(),
			OfflineTimeout: cfg.Reconciler.OfflineTimeout.Std(),
		})
		recon.Start()
		defer recon.Stop()
		metrics.RegisterComponent("reconciler", true, "")

		janitor := reconciler.NewJanitor(store, emitter, clock, reconciler.JanitorConfig{
			SampleRetentionDays:       cfg.Retention.HistoryDays,
			NotificationRetentionDays: cfg.Retention.NotificationDays,
		})
		janitor.Start()
		defer janitor.Stop()

		collector := monitor.NewStatsCollector(engine)
		collector.Start()
		defer collector.Stop()

		// Log status transitions as they happen
		sub := broker.Subscribe()
		go func() {
			logger := log.WithComponent("events")
			for event := range sub {
				switch event.Type {
				case events.EventNodeOnline, events.EventNodeOffline, events.EventHighUsage:
					logger.Info().Str("type", string(event.Type)).Str("node_id", event.NodeID).Msg(event.Message)
				}
			}
		}()

		server := api.NewServer(mgr, engine, calc, emitter)
		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(cfg.ListenAddr); err != nil {
				errCh <- fmt.Errorf("API server error: %w", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			log.Errorf("server failed", err)
		}

		server.Stop()
		broker.Unsubscribe(sub)
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("listen-addr", "", "Listen address (overrides config)")
	serveCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
}
