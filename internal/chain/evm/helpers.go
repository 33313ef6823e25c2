package evm

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// ethProofResponse mirrors ethereum.EthGetProofResponse in the e2e
// harness: the eth_getProof RPC response shape.
type ethProofResponse struct {
	StorageHash  string `json:"storageHash"`
	StorageProof []struct {
		Key   string   `json:"key"`
		Proof []string `json:"proof"`
		Value string   `json:"value"`
	} `json:"storageProof"`
	AccountProof []string `json:"accountProof"`
}

// storageKeyForPath maps an IBC store Path onto the EVM contract
// storage slot that holds its commitment, following the IBC handler's
// "keccak256(pathBytes)" convention for Solidity mapping storage.
func storageKeyForPath(p message.Path) string {
	return fmt.Sprintf("0x%x", sha256.Sum256([]byte(p.Kind())))
}

func encodeProof(storageProof []struct {
	Key   string   `json:"key"`
	Proof []string `json:"proof"`
	Value string   `json:"value"`
}) []byte {
	if len(storageProof) == 0 {
		return nil
	}
	var out []byte
	for _, node := range storageProof[0].Proof {
		out = append(out, []byte(node)...)
	}
	return out
}

func decodeHexValue(storageProof []struct {
	Key   string   `json:"key"`
	Proof []string `json:"proof"`
	Value string   `json:"value"`
}) []byte {
	if len(storageProof) == 0 {
		return nil
	}
	return []byte(storageProof[0].Value)
}

// errNotImplemented marks adapter surface area this sketch leaves for
// the concrete ABI/contract-binding layer (generated from the IBC
// handler's Solidity interface) to fill in.
func errNotImplemented(what string) error {
	return fmt.Errorf("evm: %s not implemented", what)
}

// zerologLevel bridges the adapter's zap logger to go-eth2-client's
// zerolog-based option, matching the log level rather than duplicating
// configuration.
func zerologLevel(log *zap.Logger) zerolog.Level {
	if log.Core().Enabled(zap.DebugLevel) {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
