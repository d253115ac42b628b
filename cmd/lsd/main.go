// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakeforge/lsd/metrics"
	"github.com/stakeforge/lsd/staking"
)

const defaultHousekeepingInterval = time.Minute

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "lsd",
		Usage:     "Liquid staking derivatives engine",
		Copyright: "2025 StakeForge",
		Flags: []cli.Flag{
			configFlag,
			metricsAddrFlag,
			housekeepingIntervalFlag,
			verbosityFlag,
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	logger, err := buildLogger(ctx.Int(verbosityFlag.Name))
	if err != nil {
		return err
	}
	defer logger.Sync()
	staking.SetLogger(logger)

	cfg := staking.DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		if cfg, err = staking.LoadConfig(path); err != nil {
			return err
		}
	}

	engine, err := staking.NewEngine(cfg, nil)
	if err != nil {
		return err
	}

	var metricsSrv *http.Server
	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		metrics.InitializePrometheusMetrics()
		metricsSrv = &http.Server{Addr: addr, Handler: metrics.HTTPHandler()}
		go func() {
			logger.Info("metrics endpoint up", zap.String("addr", addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	interval := ctx.Duration(housekeepingIntervalFlag.Name)
	logger.Info("engine started",
		zap.Duration("housekeepingInterval", interval),
		zap.Uint64("minStake", cfg.MinStake),
		zap.Duration("unstakingPeriod", cfg.UnstakingPeriod.Std()))

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := engine.Housekeep(runCtx); err != nil {
				logger.Error("housekeeping failed", zap.Error(err))
			}
		case <-runCtx.Done():
			logger.Info("shutting down")
			engine.Deactivate()
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown failed", zap.Error(err))
				}
			}
			fmt.Print(engine.GenerateReport())
			return nil
		}
	}
}

// buildLogger selects console output on a terminal and json otherwise.
func buildLogger(verbosity int) (*zap.Logger, error) {
	var level zapcore.Level
	switch {
	case verbosity <= 0:
		level = zapcore.WarnLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	default:
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
