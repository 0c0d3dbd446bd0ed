// Command counterd serves an encrypted counter over HTTP against the
// in-process mock chain.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/blockberries/counterberry/config"
	"github.com/blockberries/counterberry/controller"
	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/httpapi"
	"github.com/blockberries/counterberry/mock"
	"github.com/blockberries/counterberry/sigcache"
	"github.com/blockberries/counterberry/signer"
	"github.com/blockberries/counterberry/telemetry"
	"github.com/blockberries/counterberry/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("counterd exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fs, err := signer.NewFileSigner(cfg.KeyPath())
	if err != nil {
		return fmt.Errorf("load signer: %w", err)
	}
	logger.Info().Str("signer", fs.Address().Hex()).Msg("signer loaded")

	conn := guard.NewConnection(cfg.ChainID, fs.Address())
	conn.OnChange(func(s types.NetworkSnapshot) {
		logger.Info().Stringer("network", s).Msg("network context changed")
	})
	g := guard.New(conn)

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	cache := sigcache.New(store, g, sigcache.WithLogger(logger), sigcache.WithMetrics(metrics))

	// Mock chain: the wallet submits transactions, the file signer authorizes decryption.
	cop := mock.NewCoprocessor()
	engine, err := mock.NewEngine(cop)
	if err != nil {
		return err
	}
	ledger := mock.NewLedger(cfg.ChainID, cop)
	contract, ok := cfg.Contract()
	if !ok {
		contract = ledger.Deploy()
		logger.Info().Str("contract", contract.Hex()).Msg("counter deployed")
	}
	submitter := &fileSubmitter{ledger: ledger, conn: conn}

	ccfg := cfg.Controller(logger)
	ccfg.Metrics = metrics
	binder := controller.NewBinder(ccfg, controller.Collaborators{
		Reader:    ledger,
		Submitter: submitter,
		Signer:    fs,
		Guard:     g,
		Cache:     cache,
	})
	ctrl, err := binder.Bind(engine, contract)
	if err != nil {
		return fmt.Errorf("bind controller: %w", err)
	}
	ctrl.SetSnapshotListener(func(s controller.Snapshot) {
		logger.Debug().Str("state", s.State.String()).Str("message", s.Message).Msg("counter updated")
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(ctrl, httpapi.WithGatherer(reg), httpapi.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openStore(cfg config.Config, logger zerolog.Logger) (sigcache.Store, func(), error) {
	path := cfg.SigCacheFile()
	if path == "" {
		return sigcache.NewMemoryStore(), func() {}, nil
	}
	bs, err := sigcache.OpenBoltStore(path, sigcache.WithBoltLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open signature store: %w", err)
	}
	return bs, func() {
		if err := bs.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing signature store failed")
		}
	}, nil
}
