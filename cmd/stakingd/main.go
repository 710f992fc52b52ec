// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scalemarket/staking/api"
	apistaking "github.com/scalemarket/staking/api/staking"
	"github.com/scalemarket/staking/clock"
	"github.com/scalemarket/staking/kv"
	"github.com/scalemarket/staking/log"
	"github.com/scalemarket/staking/metrics"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/runtime"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking"
)

const (
	recordCacheSize    = 4096
	ntpCheckInterval   = time.Hour
	maxClockOffset     = 5 * time.Second
	slowQueryThreshold = time.Second
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "stakingd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakingd",
		Usage:     "Staking ledger of the Scale market",
		Copyright: "2025 The Scale Staking developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			verbosityFlag,
			jsonLogsFlag,
			logFileFlag,
			cacheSizeFlag,
			rentPerByteFlag,
			ntpServerFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:      "inspect",
				Usage:     "print the raw record stored at an address",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					cacheSizeFlag,
				},
				Action: inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func defaultAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logCloser, err := initLogger(cfg)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	defer func() { logger.Info("exited") }()

	if cfg.EnableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	rctx, err := record.NewContext(db, recordCacheSize)
	if err != nil {
		return err
	}
	executor := runtime.New(rctx, clock.NewSystem(), cfg.RentPerByte)

	enableReqLogger := &atomic.Bool{}
	enableReqLogger.Store(cfg.EnableAPILogs)
	apiHandler := api.New(executor, api.Options{
		AllowedOrigins:       cfg.APICors,
		EnableReqLogger:      enableReqLogger,
		SlowQueriesThreshold: slowQueryThreshold,
		Log5xxErrors:         true,
		EnableMetrics:        cfg.EnableMetrics,
	})

	apiListener, err := listen(cfg.APIAddr)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(handleExitSignal())
	group.Go(func() error {
		return serve(groupCtx, "api", &http.Server{Handler: apiHandler, ReadHeaderTimeout: time.Second}, apiListener)
	})

	if cfg.EnableMetrics {
		metricsListener, err := listen(cfg.MetricsAddr)
		if err != nil {
			apiListener.Close()
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler())
		group.Go(func() error {
			return serve(groupCtx, "metrics", &http.Server{Handler: mux, ReadHeaderTimeout: time.Second}, metricsListener)
		})
		logger.Info("metrics service started", "url", "http://"+metricsListener.Addr().String()+"/metrics")
	}

	if cfg.NTPServer != "" {
		group.Go(func() error {
			clock.WatchOffset(groupCtx, cfg.NTPServer, ntpCheckInterval, maxClockOffset)
			return nil
		})
	}

	logger.Info("staking ledger started",
		"version", fullVersion(),
		"dataDir", cfg.DataDir,
		"api", "http://"+apiListener.Addr().String()+"/",
		"rentPerByte", cfg.RentPerByte,
	)
	return group.Wait()
}

func inspectAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected exactly one address")
	}
	addr, err := scale.ParseAddress(ctx.Args().First())
	if err != nil {
		return errors.WithMessage(err, "address")
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log.SetDefault(log.DiscardHandler())

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return inspect(db, addr, os.Stdout)
}

func inspect(store kv.Store, addr scale.Address, w io.Writer) error {
	rctx, err := record.NewContext(store, 0)
	if err != nil {
		return err
	}
	rec, err := apistaking.LookupRecord(staking.New(rctx), addr)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.Errorf("no record at %v", addr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
