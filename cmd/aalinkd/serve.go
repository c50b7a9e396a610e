package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZentaChain/aalink/pkg/api"
	"github.com/ZentaChain/aalink/pkg/config"
	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/logging"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/metrics"
	"github.com/ZentaChain/aalink/pkg/session"
)

const (
	heartbeatInterval = 5 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept phone links and run sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg config.Config) error {
	logger := logging.Init("aalinkd", cfg.Log)
	printBanner()

	var j *journal.Journal
	if cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
		var err error
		j, err = journal.Open(cfg.Journal.Path, 0, logger)
		if err != nil {
			return err
		}
		logger.Info().Str("path", cfg.Journal.Path).Msg("journal opened")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := session.Options{
		Logger:   logger,
		Observer: m,
		Taps: []func(string) messenger.Tap{
			func(string) messenger.Tap { return m.Tap() },
		},
	}
	if j != nil {
		opts.Taps = append(opts.Taps, j.Tap)
	}

	srv := session.NewServer(sessionConfig(cfg), opts, m)
	if err := srv.Start(cfg.Listen); err != nil {
		closeJournal(j, logger)
		return err
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiCfg := api.DefaultConfig()
		apiCfg.Addr = cfg.API.Addr
		apiOpts := []api.Option{api.WithGatherer(reg)}
		if j != nil {
			apiOpts = append(apiOpts, api.WithJournal(j))
		}
		if cfg.API.WebSocket {
			apiOpts = append(apiOpts, api.WithLinks(srv.Serve))
		}
		apiServer = api.NewServer(apiCfg, srv, logger, apiOpts...)
		if err := apiServer.Start(); err != nil {
			srv.Shutdown(context.Background())
			closeJournal(j, logger)
			return err
		}
	}

	printStatus(cfg, srv)

	stop := make(chan struct{})
	go heartbeatLoop(srv, logger, stop)

	waitForShutdown(logger)
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if apiServer != nil {
		if err := apiServer.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("error stopping api")
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("sessions did not end in time")
	}
	closeJournal(j, logger)

	logger.Info().Msg("aalinkd stopped")
	return nil
}

func sessionConfig(cfg config.Config) session.Config {
	hu := cfg.HeadUnit
	return session.Config{
		Encrypt:      cfg.Crypto.Enabled,
		PingInterval: cfg.Session.PingInterval,
		MaxUnacked:   cfg.Session.MaxUnacked,
		Identity: session.Identity{
			Name:          hu.Name,
			CarModel:      hu.CarModel,
			CarYear:       hu.CarYear,
			CarSerial:     hu.CarSerial,
			LeftHandDrive: hu.LeftHandDrive,
			Manufacturer:  hu.Manufacturer,
			Model:         hu.Model,
			SwBuild:       hu.SwBuild,
			SwVersion:     hu.SwVersion,
		},
	}
}

func closeJournal(j *journal.Journal, logger zerolog.Logger) {
	if j == nil {
		return
	}
	if err := j.Close(); err != nil {
		logger.Warn().Err(err).Msg("error closing journal")
	}
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════════╗")
	fmt.Println("║                  aalinkd " + fmt.Sprintf("%-24s", version) + " ║")
	fmt.Println("║          head-unit projection link daemon         ║")
	fmt.Println("╚═══════════════════════════════════════════════════╝")
	fmt.Println()
}

func printStatus(cfg config.Config, srv *session.Server) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("   Link:       %s\n", srv.Addr())
	fmt.Printf("   Encryption: %v\n", cfg.Crypto.Enabled)
	if cfg.API.Enabled {
		fmt.Printf("   API:        http://%s\n", cfg.API.Addr)
	}
	if cfg.Journal.Enabled {
		fmt.Printf("   Journal:    %s\n", cfg.Journal.Path)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()
}

func heartbeatLoop(srv *session.Server, logger zerolog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st := srv.Stats()
			logger.Info().
				Int("active", st.Active).
				Uint64("accepted", st.Accepted).
				Uint64("media", st.Media).
				Dur("uptime", st.Uptime.Round(time.Second)).
				Msg("heartbeat")
		case <-stop:
			return
		}
	}
}

func waitForShutdown(logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
}
