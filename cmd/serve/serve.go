package serve

import (
	"context"
	"fmt"
	"os"
	"time"

	godaemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/smartmond/config"
	"github.com/stratastor/smartmond/internal/constants"
	"github.com/stratastor/smartmond/pkg/httpclient"
	"github.com/stratastor/smartmond/pkg/lifecycle"
	"github.com/stratastor/smartmond/pkg/server"
	"github.com/stratastor/smartmond/pkg/smart/ata"
	smartdaemon "github.com/stratastor/smartmond/pkg/smart/daemon"
	"github.com/stratastor/smartmond/pkg/smart/monitor"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Rodent server",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	pidFile := constants.RodentPIDFilePath
	// Check for existing instance before proceeding
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}

	if detached {
		ctx := &godaemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0600,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"rodent", "serve"},
		}

		d, err := ctx.Reborn()
		if err != nil {
			fmt.Printf("Failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		if d != nil {
			fmt.Println("Rodent is running as a daemon")
			return
		}
		defer ctx.Release()
	}

	startServer()
}

func startServer() {
	cfg := config.GetConfig()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register the context canceller
	lifecycle.RegisterContextCanceller(cancel)

	// Register shutdown hook for server cleanup
	lifecycle.RegisterShutdownHook(func() {
		fmt.Println("Shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			fmt.Printf("Error during server shutdown: %v\n", err)
		}
	})

	log, err := logger.NewTag(config.NewLoggerConfig(cfg), "smartd")
	if err != nil {
		fmt.Printf("Failed to initialize smartd logger: %v\n", err)
		os.Exit(1)
	}

	pollInterval := parsePollInterval(cfg.Smartd.PollInterval)
	dispatcher := buildDispatcher(log, cfg)

	registry, err := smartdaemon.BuildRegistry(log, cfg.Smartd.DeviceConfigFile, defaultMonitorConfig(cfg), pollInterval)
	if err != nil {
		// Non-goal of refusing to start is covered by RefuseOnParseErr; a
		// parse failure otherwise starts the HTTP API with no devices
		// registered rather than taking the whole daemon down.
		if cfg.Smartd.RefuseOnParseErr {
			fmt.Printf("Failed to load device config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Device config load failed, starting with no monitored devices: %v\n", err)
		registry = monitor.NewRegistry()
	}

	mon := monitor.NewMonitor(log, dispatcher)
	loop := monitor.NewLoop(log, mon, registry, pollInterval, func() (*monitor.Registry, error) {
		return smartdaemon.BuildRegistry(log, cfg.Smartd.DeviceConfigFile, defaultMonitorConfig(cfg), pollInterval)
	})
	go loop.Run(ctx)

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP, SIGUSR1)
	go lifecycle.HandleSignals(ctx)

	// Start the server
	fmt.Printf("Starting Rodent server on port %d\n", cfg.Server.Port)
	if err := server.Start(ctx, cfg.Server.Port, registry); err != nil {
		fmt.Printf("Failed to start server: %v", err)
	}
}

func parsePollInterval(s string) time.Duration {
	if s == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

func defaultMonitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		ChecksumPolicy: ata.ChecksumPolicy(cfg.Smartd.ChecksumPolicy),
		SleepFloor:     monitor.SleepFloor(cfg.Smartd.SleepFloor),
		TempDelta:      cfg.Smartd.TempDelta,
		TempInfo:       cfg.Smartd.TempInfo,
		TempCritical:   cfg.Smartd.TempCritical,
	}
}

func buildDispatcher(log logger.Logger, cfg *config.Config) *monitor.Dispatcher {
	notifiers := []monitor.Notifier{monitor.NewStdoutNotifier(log)}
	if cfg.Smartd.Notify.ExecHook != "" {
		notifiers = append(notifiers, monitor.NewExecHookNotifier(log, cfg.Smartd.Notify.ExecHook))
	}
	if cfg.Smartd.Notify.WebhookURL != "" {
		client := httpclient.NewClient(httpclient.NewClientConfig())
		notifiers = append(notifiers, monitor.NewWebhookNotifier(client, cfg.Smartd.Notify.WebhookURL))
	}

	mode := monitor.CadenceMode(cfg.Smartd.Notify.Mode)
	if mode == "" {
		mode = monitor.CadenceDaily
	}
	return monitor.NewDispatcher(log, mode, notifiers...)
}
