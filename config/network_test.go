package config

import (
	"testing"

	"github.com/jessevdk/go-flags"
)

func TestResolveNetworkDefaultsToMainnet(t *testing.T) {
	var nf NetworkFlags
	parser := flags.NewParser(&struct{}{}, flags.Default)
	if err := nf.ResolveNetwork(parser); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if nf.ActiveNetParams != &MainnetParams {
		t.Fatal("expected mainnet to be selected by default")
	}
}

func TestResolveNetworkSelectsTestnet(t *testing.T) {
	nf := NetworkFlags{Testnet: true}
	parser := flags.NewParser(&struct{}{}, flags.Default)
	if err := nf.ResolveNetwork(parser); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if nf.ActiveNetParams != &TestnetParams {
		t.Fatal("expected testnet to be selected")
	}
}

func TestResolveNetworkRejectsMultipleNetworks(t *testing.T) {
	nf := NetworkFlags{Testnet: true, Devnet: true}
	parser := flags.NewParser(&struct{}{}, flags.Default)
	if err := nf.ResolveNetwork(parser); err == nil {
		t.Fatal("expected an error when multiple networks are selected")
	}
}
