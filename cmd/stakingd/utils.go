// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scalemarket/staking/log"
	"github.com/scalemarket/staking/lvldb"
)

const shutdownTimeout = 5 * time.Second

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("value %d exceeds max int", val)
	}
	return int(val), nil
}

// newLogHandler builds the root handler. The returned closer is nil unless
// logs go to a file.
func newLogHandler(cfg *config) (slog.Handler, io.Closer, error) {
	if cfg.Verbosity > log.LegacyLevelTrace {
		return nil, nil, errors.Errorf("invalid verbosity %d", cfg.Verbosity)
	}
	level := log.FromLegacyLevel(int(cfg.Verbosity))

	var (
		out      io.Writer = os.Stderr
		closer   io.Closer
		useColor = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	)
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		out, closer, useColor = file, file, false
	}

	if cfg.JSONLogs {
		return log.JSONHandler(out, level), closer, nil
	}
	return log.NewTerminalHandler(out, level, useColor), closer, nil
}

func initLogger(cfg *config) (io.Closer, error) {
	handler, closer, err := newLogHandler(cfg)
	if err != nil {
		return nil, err
	}
	log.SetDefault(handler)
	return closer, nil
}

func openDB(cfg *config) (*lvldb.LevelDB, error) {
	cacheSize, err := readIntFromUInt64Flag(cfg.CacheSize)
	if err != nil {
		return nil, errors.WithMessage(err, "cache size")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	return lvldb.New(filepath.Join(cfg.DataDir, "ledger.db"), lvldb.Options{
		CacheSize:              cacheSize,
		OpenFilesCacheCapacity: 256,
	})
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func listen(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen [%v]", addr)
	}
	return listener, nil
}

// serve runs srv on listener until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, name string, srv *http.Server, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "%s server", name)
	case <-ctx.Done():
	}

	logger.Info("stopping server...", "name", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "market.scale.staking")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "market.scale.staking")
		default:
			return filepath.Join(home, ".market.scale.staking")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
