package config

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// Params holds the handful of network-selection constants a node needs;
// trimmed from the teacher's dagconfig.Params (consensus rules are out of
// scope per spec.md's Non-goals) down to the fields OpenConnection and
// the address book actually consult.
type Params struct {
	Name          string
	DefaultPort   uint16
	DNSSeeds      []string
}

// MainnetParams, TestnetParams, and DevnetParams mirror the teacher's
// dagconfig network set; only the port and seed list differ per network.
var (
	MainnetParams = Params{Name: "mainnet", DefaultPort: 16111}
	TestnetParams = Params{Name: "testnet", DefaultPort: 16211}
	DevnetParams  = Params{Name: "devnet", DefaultPort: 16311}
)

// NetworkFlags holds which network was selected on the command line,
// grounded on config/network.go's NetworkFlags/ResolveNetwork pattern.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Devnet  bool `long:"devnet" description:"Use the development network"`

	ActiveNetParams *Params
}

// ResolveNetwork rejects conflicting network flags and sets ActiveNetParams.
func (n *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	n.ActiveNetParams = &MainnetParams

	numNets := 0
	if n.Testnet {
		numNets++
		n.ActiveNetParams = &TestnetParams
	}
	if n.Devnet {
		numNets++
		n.ActiveNetParams = &DevnetParams
	}
	if numNets > 1 {
		err := errors.New("multiple networks (testnet, devnet) cannot be used together; choose only one")
		parser.WriteHelp(os.Stderr)
		return err
	}
	return nil
}
