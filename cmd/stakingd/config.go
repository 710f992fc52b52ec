// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

// config holds the daemon settings. Keys of the YAML file match the flag names.
type config struct {
	DataDir       string `yaml:"data-dir"`
	APIAddr       string `yaml:"api-addr"`
	APICors       string `yaml:"api-cors"`
	EnableAPILogs bool   `yaml:"enable-api-logs"`
	EnableMetrics bool   `yaml:"enable-metrics"`
	MetricsAddr   string `yaml:"metrics-addr"`
	Verbosity     uint64 `yaml:"verbosity"`
	JSONLogs      bool   `yaml:"json-logs"`
	LogFile       string `yaml:"log-file"`
	CacheSize     uint64 `yaml:"cache-size"`
	RentPerByte   uint64 `yaml:"rent-per-byte"`
	NTPServer     string `yaml:"ntp-server"`
}

func defaultConfig() *config {
	return &config{
		DataDir:     dataDirFlag.Value,
		APIAddr:     apiAddrFlag.Value,
		APICors:     apiCorsFlag.Value,
		MetricsAddr: metricsAddrFlag.Value,
		Verbosity:   verbosityFlag.Value,
		CacheSize:   cacheSizeFlag.Value,
		RentPerByte: rentPerByteFlag.Value,
		NTPServer:   ntpServerFlag.Value,
	}
}

// loadConfig builds the config from the flag defaults, then the config file
// if given, then the flags explicitly set on the command line.
func loadConfig(ctx *cli.Context) (*config, error) {
	cfg := defaultConfig()

	if path := ctx.String(configFlag.Name); path != "" {
		if err := readConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.APIAddr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.APICors = ctx.String(apiCorsFlag.Name)
	}
	if ctx.IsSet(enableAPILogsFlag.Name) {
		cfg.EnableAPILogs = ctx.Bool(enableAPILogsFlag.Name)
	}
	if ctx.IsSet(enableMetricsFlag.Name) {
		cfg.EnableMetrics = ctx.Bool(enableMetricsFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.MetricsAddr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.Uint64(verbosityFlag.Name)
	}
	if ctx.IsSet(jsonLogsFlag.Name) {
		cfg.JSONLogs = ctx.Bool(jsonLogsFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.LogFile = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(cacheSizeFlag.Name) {
		cfg.CacheSize = ctx.Uint64(cacheSizeFlag.Name)
	}
	if ctx.IsSet(rentPerByteFlag.Name) {
		cfg.RentPerByte = ctx.Uint64(rentPerByteFlag.Name)
	}
	if ctx.IsSet(ntpServerFlag.Name) {
		cfg.NTPServer = ctx.String(ntpServerFlag.Name)
	}

	if cfg.DataDir == "" {
		return nil, errors.New("data dir required")
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config file")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrapf(err, "decode config file %v", path)
	}
	return nil
}
