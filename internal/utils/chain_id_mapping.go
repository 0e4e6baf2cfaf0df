package utils

import (
	"math/big"
	"strconv"
	"strings"
)

// excludedChainIDPrefix marks DLN chain ids of networks below the value-transferred threshold
// (100000001 neon, 100000002 gnosis, ... 100000026 tron). They never map to a chain name.
const excludedChainIDPrefix = "1000000"

// IsExcludedChainID reports whether a decimal chain id falls in the excluded range.
func IsExcludedChainID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), excludedChainIDPrefix)
}

// DeBridgeChainName maps a decimal DLN chain id to a canonical chain name.
// The second return is false for unknown or excluded ids; callers drop those events.
func DeBridgeChainName(id string) (string, bool) {
	if IsExcludedChainID(id) {
		return "", false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return "", false
	}
	c, ok := GlobalChainRegistry.ByDeBridgeID(n)
	if !ok {
		return "", false
	}
	return c.Name, true
}

// DeBridgeChainNameFromBig is DeBridgeChainName for uint256 event fields.
func DeBridgeChainNameFromBig(id *big.Int) (string, bool) {
	if id == nil {
		return "", false
	}
	return DeBridgeChainName(id.String())
}

// DeBridgeChainNameFromBytes decodes a big-endian chain id (Solana [u8; 32]) before lookup.
func DeBridgeChainNameFromBytes(id []byte) (string, bool) {
	return DeBridgeChainName(DecimalFromBytes(id))
}

// WormholeChainName maps a Wormhole chain id (Mayan Swift) to a canonical chain name.
func WormholeChainName(id uint16) (string, bool) {
	if IsExcludedChainID(strconv.FormatUint(uint64(id), 10)) {
		return "", false
	}
	c, ok := GlobalChainRegistry.ByWormholeID(id)
	if !ok {
		return "", false
	}
	return c.Name, true
}

// WormholeChainID returns the Wormhole id for a canonical chain name.
func WormholeChainID(chain string) (uint16, bool) {
	c, ok := GlobalChainRegistry.ByName(chain)
	if !ok || c.WormholeChainID == 0 {
		return 0, false
	}
	return c.WormholeChainID, true
}

// DeBridgeChainID returns the DLN id for a canonical chain name.
func DeBridgeChainID(chain string) (uint64, bool) {
	c, ok := GlobalChainRegistry.ByName(chain)
	if !ok || c.DeBridgeChainID == 0 {
		return 0, false
	}
	return c.DeBridgeChainID, true
}

// NativeChainName maps an EIP-155 chain id to a canonical name.
func NativeChainName(id uint64) (string, bool) {
	c, ok := GlobalChainRegistry.ByNativeID(id)
	if !ok {
		return "", false
	}
	return c.Name, true
}
