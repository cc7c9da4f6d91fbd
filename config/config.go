// Package config defines ebilld's on-disk and command-line configuration,
// grounded on lnd's jessevdk/go-flags-based config loading (lnd.go's
// loadConfig call into a flags.Parser over a Config struct with `long`/
// `description` struct tags).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "ebilld.conf"
	defaultDataDirname    = "data"
	defaultNetwork        = "testnet"
	defaultEsploraURL     = "https://blockstream.info/testnet/api"
	defaultSweepInterval  = 30
	defaultLogLevel       = "info"
)

var defaultHomeDir = btcutil.AppDataDir("ebilld", false)

// Config is ebilld's full runtime configuration: where it keeps its chain
// and key data, which bitcoin network and block explorer back its payment
// observation, and how long each of a bill's life-cycle actions may wait
// for its counterpart before the timeout engine fires.
type Config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"d" long:"datadir" description:"Directory to store bill chains, keys and dedup state"`
	LogLevel   string `long:"loglevel" description:"Logging level: trace, debug, info, warn, error, critical"`

	Network string `long:"network" description:"Bitcoin network to settle against: mainnet, testnet, regtest, signet"`

	EsploraURL     string `long:"esplora.url" description:"Base URL of the Esplora-compatible block explorer API used for payment observation"`
	EsploraTimeout int    `long:"esplora.timeout" description:"HTTP timeout in seconds for Esplora API requests"`
	ExplorerURL    string `long:"esplora.explorerurl" description:"Base URL used to build human-facing block-explorer links"`

	SweepIntervalSeconds int `long:"sweepinterval" description:"How often, in seconds, to reconcile pending payments and check action deadlines"`

	AcceptDeadlineSeconds   uint64 `long:"acceptdeadline" description:"Seconds a request-to-accept has to be answered before it times out (0 = package default)"`
	PaymentDeadlineSeconds  uint64 `long:"paymentdeadline" description:"Seconds an offer-to-sell or request-to-pay has to be paid before it times out (0 = package default)"`
	RecourseDeadlineSeconds uint64 `long:"recoursedeadline" description:"Seconds a request-recourse has to be paid before it times out (0 = package default)"`
}

// Default returns Config populated with ebilld's built-in defaults, before
// any config file or command-line flags are applied.
func Default() *Config {
	return &Config{
		ConfigFile:           filepath.Join(defaultHomeDir, defaultConfigFilename),
		DataDir:              filepath.Join(defaultHomeDir, defaultDataDirname),
		LogLevel:             defaultLogLevel,
		Network:              defaultNetwork,
		EsploraURL:           defaultEsploraURL,
		EsploraTimeout:       10,
		SweepIntervalSeconds: defaultSweepInterval,
	}
}

// Load parses args (typically os.Args[1:]) over Default(), applying first
// the config file (if one exists at the resolved ConfigFile path) and then
// the command-line flags, so flags always win over the file.
func Load(args []string) (*Config, error) {
	cfg := Default()

	preCfg := *cfg
	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}
	if preCfg.ConfigFile != "" {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	if fileExists(cfg.ConfigFile) {
		if err := flags.NewIniParser(flags.NewParser(cfg, flags.Default)).ParseFile(cfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", cfg.ConfigFile, err)
		}
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("config: create data dir: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
