package hd

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-elements/network"
)

// Network groups the params of every supported UTXO chain for one of
// mainnet, testnet or regtest.
type Network struct {
	Name    string
	Bitcoin *chaincfg.Params
	Liquid  *network.Network
}

var (
	Mainnet = Network{"mainnet", &chaincfg.MainNetParams, &network.Liquid}
	Testnet = Network{"testnet", &chaincfg.TestNet3Params, &network.Testnet}
	Regtest = Network{"regtest", &chaincfg.RegressionNetParams, &network.Regtest}

	networks = map[string]*Network{
		Mainnet.Name: &Mainnet,
		Testnet.Name: &Testnet,
		Regtest.Name: &Regtest,
	}
)

// NetworkFromName returns the network with the given name.
func NetworkFromName(name string) (*Network, error) {
	net, ok := networks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown network %s", name)
	}
	return net, nil
}

// IsMainnet returns whether the network is the production one.
func (n *Network) IsMainnet() bool {
	return n.Name == Mainnet.Name
}

// SupportedNetworks returns the names of all known networks.
func SupportedNetworks() []string {
	return []string{Mainnet.Name, Testnet.Name, Regtest.Name}
}
