// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses the node's command-line configuration, trimmed
// from the teacher's full RPC/mining/index surface down to listen address,
// peer limits, seeds, proxy, and logging. No .conf file is read. Grounded
// on config/config.go's go-flags/activeConfig idiom.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/triadag/triad/util"
	unet "github.com/triadag/triad/util/network"
)

const (
	defaultConfigFilename = "triad.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "triad.log"
	defaultErrLogFilename = "triad_err.log"
	defaultListenPort     = 16111

	// defaultMaxOutbound matches spec.md §6's kMaxOutbound.
	defaultMaxOutbound = 8

	// defaultMaxInbound is the default of the -maxinbound flag; unlike
	// kMaxOutbound this isn't a spec.md-named constant. No component reads
	// the value: accepted connections are not limited.
	defaultMaxInbound = 125

	// DefaultConnectTimeout is the default connection timeout when dialing.
	DefaultConnectTimeout = 10 * time.Second
)

// DefaultHomeDir is the default home directory for the node.
var DefaultHomeDir = util.AppDataDir("triad", false)

var (
	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

var activeConfig *Config

// ActiveConfig returns the package-level Config set by the most recent
// successful call to Load. Components that cannot easily take a *Config
// constructor argument (log rotation setup at process start, in
// particular) read it from here, matching the teacher's activeConfig
// singleton idiom; everything else should take *Config explicitly per
// Design Notes §9 ("global parameter singleton").
func ActiveConfig() *Config {
	return activeConfig
}

// Config holds the node's resolved runtime configuration.
type Config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`

	HomeDir    string `long:"appdir" description:"Directory to store data"`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output"`

	ListenAddr   string   `long:"listen" description:"Add an interface/port to listen for connections (default all interfaces port 16111)"`
	BindIP       string   `long:"bind" description:"Local IP address to bind to (not used; the bind address is taken from -listen)"`
	ConnectPeers []string `long:"connect" description:"Peers to connect to at startup (normalized but not dialed; use -addpeer)"`
	AddPeers     []string `long:"addpeer" description:"Add a peer to connect with at startup"`
	Seeds        []string `long:"seed" description:"Hostname or IP of a seed node used to bootstrap the address book"`

	MaxOutbound int `long:"maxoutbound" description:"Max number of outbound peers"`
	MaxInbound  int `long:"maxinbound" description:"Max number of inbound peers (not enforced)"`

	Proxy        string `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser    string `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass    string `long:"proxypass" description:"Password for proxy server"`
	TorIsolation bool   `long:"torisolation" description:"Enable Tor stream isolation by randomizing user credentials for each connection"`

	RelayProbability     float64       `long:"relayprobability" description:"Probability (0.0-1.0) that a received block/tx is relayed further"`
	DropBlocksDuringSync bool          `long:"dropblocksduringsync" description:"Drop unsolicited BLOCK messages while performing initial sync"`
	SyncTimeThreshold    time.Duration `long:"synctimethreshold" description:"How far behind wall-clock best-milestone time before a node is considered syncing"`

	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems"`
	NoLogFile  bool   `long:"nologfile" description:"Disable logging to a log file"`

	NetworkFlags
}

// Load parses command-line arguments into a Config, applies defaults,
// validates peer/proxy settings, and sets ActiveConfig. The file named by
// ConfigFile is not read. Grounded on config/config.go's Load.
func Load() (*Config, []string, error) {
	cfg := Config{
		HomeDir:              DefaultHomeDir,
		ConfigFile:           defaultConfigFile,
		LogDir:               defaultLogDir,
		MaxOutbound:          defaultMaxOutbound,
		MaxInbound:           defaultMaxInbound,
		DebugLevel:           defaultLogLevel,
		RelayProbability:     1.0,
		DropBlocksDuringSync: true,
		SyncTimeThreshold:    2 * time.Hour,
	}

	preParser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := preParser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if err := cfg.NetworkFlags.ResolveNetwork(preParser); err != nil {
		return nil, nil, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%d", defaultListenPort)
	}

	defaultPortStr := fmt.Sprintf("%d", cfg.ActiveNetParams.DefaultPort)
	for _, field := range []*[]string{&cfg.Seeds, &cfg.AddPeers, &cfg.ConnectPeers} {
		normalized, err := unet.NormalizeAddresses(*field, defaultPortStr)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid peer address")
		}
		*field = normalized
	}

	if cfg.Proxy != "" {
		if _, _, err := net.SplitHostPort(cfg.Proxy); err != nil {
			str := "invalid proxy address '%s': %s"
			return nil, nil, errors.Errorf(str, cfg.Proxy, err)
		}
	}

	if cfg.MaxOutbound <= 0 {
		return nil, nil, errors.New("maxoutbound must be positive")
	}
	if cfg.RelayProbability < 0 || cfg.RelayProbability > 1 {
		return nil, nil, errors.New("relayprobability must be between 0.0 and 1.0")
	}

	activeConfig = &cfg
	return &cfg, remainingArgs, nil
}
