package main

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// netParams resolves a config.Network value to the chaincfg.Params the
// payment oracle derives addresses against.
func netParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}
