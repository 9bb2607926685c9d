// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/config"
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/daghash"
	"github.com/triadag/triad/localdag"
	"github.com/triadag/triad/logs"
	"github.com/triadag/triad/obc"
	"github.com/triadag/triad/peermgr"
	"github.com/triadag/triad/util/panics"
)

var log = logs.NewBackend().Logger("TRID")

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %s\n", err)
		os.Exit(1)
	}
	defer log.Backend().Close()

	if err := run(cfg); err != nil {
		log.Errorf("node exited with error: %+v", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) error {
	backend := log.Backend()
	level, ok := logs.LevelFromString(cfg.DebugLevel)
	if !ok {
		return fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
	}
	log.SetLevel(level)

	var writerErr error
	if cfg.NoLogFile {
		writerErr = backend.AddLogWriter(nopCloser{os.Stdout}, level)
	} else {
		writerErr = backend.AddLogFile(filepath.Join(cfg.LogDir, "triad.log"), level)
	}
	if writerErr != nil {
		return writerErr
	}
	return backend.Run()
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }

// run wires ConnectionManager, PeerManager, the address book, and the
// local DAG/Mempool stand-ins together and blocks until an interrupt
// signal is received (spec.md §4, §7 "Process model").
func run(cfg *config.Config) error {
	defer panics.HandlePanic(log, nil)

	host, portStr, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.ListenAddr, err)
	}
	port := cfg.ActiveNetParams.DefaultPort
	if portStr != "" {
		if p, err := parsePort(portStr); err == nil {
			port = p
		}
	}

	seeds := make([]addrbook.NetAddress, 0, len(cfg.Seeds))
	for _, s := range cfg.Seeds {
		if addr, ok := resolveSeed(s, port); ok {
			seeds = append(seeds, addr)
		}
	}
	book := addrbook.New(seeds)
	book.Init()

	conn := connmgr.New(connmgr.Config{
		ProxyAddr:         cfg.Proxy,
		ProxyUser:         cfg.ProxyUser,
		ProxyPass:         cfg.ProxyPass,
		ProxyTorIsolation: cfg.TorIsolation,
	})
	if host != "" {
		if err := conn.Bind(host); err != nil {
			return fmt.Errorf("bind %s: %w", host, err)
		}
	}
	if err := conn.Listen(port); err != nil {
		return fmt.Errorf("listen on %d: %w", port, err)
	}

	dag := localdag.New(daghash.Hash{})
	mempool := localdag.NewMempool()
	txDecoder := localdag.NewTransactionDecoder()

	pmgrCfg := peermgr.DefaultConfig()
	pmgrCfg.MaxOutbound = cfg.MaxOutbound
	pmgrCfg.RelayProbability = cfg.RelayProbability
	pmgrCfg.DropBlocksDuringSync = cfg.DropBlocksDuringSync
	pmgrCfg.SyncTimeThreshold = cfg.SyncTimeThreshold

	localAddr := addrbook.NetAddress{IP: net.ParseIP(host), Port: port}
	mgr := peermgr.New(pmgrCfg, conn, book, obc.New(), dag, mempool, txDecoder, localAddr)
	mgr.Start()
	log.Infof("triad node listening on %s, node id %d", cfg.ListenAddr, mgr.NodeID())

	for _, addr := range cfg.AddPeers {
		if a, ok := resolveSeed(addr, port); ok {
			if err := conn.Connect(a.IP.String(), a.Port); err != nil {
				log.Warnf("failed to connect to %s: %s", addr, err)
			}
		}
	}

	waitForShutdown()

	log.Infof("shutting down")
	mgr.Stop()
	return nil
}

func parsePort(s string) (uint16, error) {
	var p uint16
	_, err := fmt.Sscanf(s, "%d", &p)
	return p, err
}

func resolveSeed(hostport string, defaultPort uint16) (addrbook.NetAddress, bool) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
		portStr = ""
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		log.Warnf("could not resolve seed %q: %s", hostport, err)
		return addrbook.NetAddress{}, false
	}
	port := defaultPort
	if portStr != "" {
		if p, err := parsePort(portStr); err == nil {
			port = p
		}
	}
	return addrbook.NetAddress{IP: ips[0], Port: port}, true
}

func waitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
}
