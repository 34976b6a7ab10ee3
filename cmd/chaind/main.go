// Command chaind runs the chainkit node daemon: it wires pkg/config's
// daemon settings, pkg/db's versioned store, a pkg/vm engine, and
// pkg/app.App into a long-running process that serves CometBFT's ABCI
// socket, mirroring the teacher's root main.go wiring style (functional
// construction, a signal-driven shutdown, a plain HTTP endpoint for
// metrics) adapted from a single bespoke validator service into a generic
// chain daemon. Consensus itself is provided by a separately run cometbft
// node pointed at this process's ABCI address via --proxy_app.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	abciserver "github.com/cometbft/cometbft/abci/server"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/certen-labs/chainkit/pkg/app"
	"github.com/certen-labs/chainkit/pkg/config"
	"github.com/certen-labs/chainkit/pkg/db"
	"github.com/certen-labs/chainkit/pkg/indexer"
	"github.com/certen-labs/chainkit/pkg/vm/wasm"
)

// log is the daemon-boundary logger: startup/shutdown narration uses
// logrus the way SPEC_FULL.md's ambient stack calls for, while pkg/app's
// hot path is handed a separate *zap.Logger for structured per-block
// fields.
var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "chaind",
		Short: "chainkit node daemon",
	}
	root.AddCommand(newStartCommand())
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Fatal("chaind exited")
	}
}

func newStartCommand() *cobra.Command {
	var genesisPath string
	var indexerDSN string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "start the ABCI application server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), genesisPath, indexerDSN)
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to a genesis document (informational; CometBFT delivers app_state via InitChain)")
	cmd.Flags().StringVar(&indexerDSN, "indexer-dsn", os.Getenv("CHAIND_INDEXER_DSN"), "optional Postgres DSN for the event indexer; indexing is disabled if empty")
	return cmd
}

func run(ctx context.Context, genesisPath, indexerDSN string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.SetLevel(parseLevel(cfg.LogLevel))
	log.Infof("starting chaind: data_dir=%s abci_address=%s transport=%s", cfg.DataDir, cfg.ABCIAddress, cfg.ABCITransport)

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return err
	}
	backend, err := dbm.NewDB("chainkit", dbm.GoLevelDBBackend, cfg.DataDir)
	if err != nil {
		return err
	}
	store, err := db.Open(backend)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := app.NewMetrics(registry)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	engine := wasm.New()
	application := app.NewApp(zapLogger, cfg.ChainID, store, engine, nil, metrics)

	if indexerDSN != "" {
		idx, err := indexer.Open(ctx, indexerDSN)
		if err != nil {
			log.WithError(err).Warn("event indexer unavailable, continuing without it")
		} else {
			defer idx.Close()
			application.SetIndexer(idx)
			log.Info("event indexer connected")
		}
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
		go func() {
			log.Infof("serving prometheus metrics on %s", cfg.MetricsAddress)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	if genesisPath != "" {
		log.Infof("genesis document %s will be applied by InitChain when CometBFT first connects", genesisPath)
	}

	srv, err := abciserver.NewServer(cfg.ABCIAddress, cfg.ABCITransport, application)
	if err != nil {
		return err
	}
	srv.SetLogger(cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)))
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	log.Info("chaind ready, awaiting CometBFT connection")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down chaind")
	return nil
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
