// walletd serves the local wallet payload API.
//
// @title        Wallet Payload API
// @version      1.0
// @description  Local service for wallet payload encryption, decryption and version upgrades.
// @host         localhost:8080
// @BasePath     /
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

	_ "github.com/AlexZinkM/wallet-payload/docs"
	"github.com/AlexZinkM/wallet-payload/internal/api"
	"github.com/AlexZinkM/wallet-payload/internal/client"
	"github.com/AlexZinkM/wallet-payload/internal/config"
	"github.com/AlexZinkM/wallet-payload/internal/crypto"
	"github.com/AlexZinkM/wallet-payload/internal/handler"
	"github.com/AlexZinkM/wallet-payload/internal/journal"
	"github.com/AlexZinkM/wallet-payload/internal/legacy"
	"github.com/AlexZinkM/wallet-payload/internal/logger"
	"github.com/AlexZinkM/wallet-payload/internal/metrics"
	"github.com/AlexZinkM/wallet-payload/internal/upgrade"
	"github.com/AlexZinkM/wallet-payload/internal/verify"
	"github.com/AlexZinkM/wallet-payload/wallet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	policy, err := upgrade.ParseFlagFailurePolicy(cfg.V4FlagPolicy)
	if err != nil {
		return err
	}
	divergence, err := verify.HandlerForFlavor(cfg.BuildFlavor, log)
	if err != nil {
		return err
	}

	if err := config.PromptForPassword(); err != nil {
		return err
	}
	password, err := config.GetPasswordBytes()
	if err != nil {
		return err
	}
	defer clear(password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	native := crypto.NewPayloadCryptor()
	svc := verify.NewService(verify.Policy{
		Native:     native,
		Legacy:     legacy.New(),
		Divergence: divergence,
	}, native, log, m)

	var flag wallet.FlagSource = client.StaticFlag(cfg.RequiresV4Upgrade)
	if cfg.SettingsURL != "" {
		flag = client.NewSettingsClient(cfg.SettingsURL, cfg.SettingsTimeout)
	}

	w, err := wallet.Open(ctx, wallet.Config{
		Path:     config.GetWalletFilePath(),
		Password: password,
		Cryptor:  svc,
		V1:       native,
		Flag:     flag,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	j, err := journal.Open(config.GetJournalPath())
	if err != nil {
		return err
	}
	defer j.Close()

	if last, ok, err := j.LastCompleted(); err != nil {
		log.Warn("failed to read upgrade journal", zap.Error(err))
	} else if ok {
		log.Info("last completed wallet upgrade", zap.String("version", string(last)))
	}

	orchestrator := upgrade.New(upgrade.Config{
		State:     w,
		Workflows: w.Workflows(),
		Policy:    policy,
		Journal:   j,
		Log:       log,
		Metrics:   m,
	})

	router := api.SetupRouter(
		handler.NewCryptoHandler(svc),
		handler.NewWalletHandler(w, orchestrator, j, log),
		reg,
	)

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
