package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
)

const (
	evmAddressLength = common.AddressLength // 20
	wordLength       = 32
	evmPaddingLength = wordLength - evmAddressLength
)

// DecodeHex decodes a hex string with or without 0x prefix. Odd-length input is left-padded with a zero nibble.
func DecodeHex(s string) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(clean)%2 == 1 {
		clean = "0" + clean
	}
	if clean == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode("0x" + clean)
	if err != nil {
		return nil, newFormatError("decode hex", s, "%v", err)
	}
	return b, nil
}

// IsHexAddress reports whether s looks like a 0x-prefixed hex blob (EVM style).
func IsHexAddress(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "0x")
}

// UnpadEvmAddress converts a 32-byte (or shorter) hex word into a lowercase 0x-prefixed 20-byte address.
// Words longer than 20 bytes must carry exactly 12 leading zero bytes.
func UnpadEvmAddress(word string) (string, error) {
	raw, err := DecodeHex(word)
	if err != nil {
		return "", err
	}
	addr, err := evmAddressFromBytes(raw)
	if err != nil {
		return "", &FormatError{Op: "unpad evm address", Value: word, Err: err}
	}
	return addr, nil
}

// EvmAddressFromBytes is UnpadEvmAddress for raw bytes (ABI `bytes` fields, bytes32 words).
func EvmAddressFromBytes(raw []byte) (string, error) {
	addr, err := evmAddressFromBytes(raw)
	if err != nil {
		return "", &FormatError{Op: "unpad evm address", Value: hexutil.Encode(raw), Err: err}
	}
	return addr, nil
}

func evmAddressFromBytes(raw []byte) (string, error) {
	switch {
	case len(raw) > wordLength:
		return "", fmt.Errorf("%d bytes exceeds a 32-byte word", len(raw))
	case len(raw) <= evmAddressLength:
		return strings.ToLower(common.BytesToAddress(raw).Hex()), nil
	}

	word := common.LeftPadBytes(raw, wordLength)
	for i := 0; i < evmPaddingLength; i++ {
		if word[i] != 0 {
			return "", fmt.Errorf("byte %d of padding is non-zero", i)
		}
	}
	return strings.ToLower(common.BytesToAddress(word[evmPaddingLength:]).Hex()), nil
}

// PadEvmAddress left-pads a 20-byte EVM address to a 32-byte word (0x + 64 hex chars).
func PadEvmAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", newFormatError("pad evm address", address, "not a 20-byte hex address")
	}
	return hexutil.Encode(common.LeftPadBytes(common.HexToAddress(address).Bytes(), wordLength)), nil
}

// NormalizeEvmAddress lowercases a 0x address. Empty input stays empty.
func NormalizeEvmAddress(address string) string {
	if address == "" {
		return ""
	}
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// SolanaAddressFromBytes renders a 32-byte public key as base58.
func SolanaAddressFromBytes(raw []byte) (string, error) {
	if len(raw) != solana.PublicKeyLength {
		return "", newFormatError("encode solana address", hexutil.Encode(raw), "expected 32 bytes, got %d", len(raw))
	}
	return solana.PublicKeyFromBytes(raw).String(), nil
}

// SolanaAddressToBytes decodes a base58 public key back into its 32 bytes.
func SolanaAddressToBytes(address string) ([]byte, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, newFormatError("decode solana address", address, "%v", err)
	}
	return key.Bytes(), nil
}

// EncodeAddressForChain renders a raw address blob for the chain family it lives on.
func EncodeAddressForChain(family ChainFamily, raw []byte) (string, error) {
	switch family {
	case FamilySolana:
		return SolanaAddressFromBytes(raw)
	case FamilyEVM:
		return EvmAddressFromBytes(raw)
	default:
		return "", newFormatError("encode address", hexutil.Encode(raw), "unknown chain family %q", family)
	}
}

// EncodeAddressForChainName is EncodeAddressForChain keyed by canonical chain name.
func EncodeAddressForChainName(chain string, raw []byte) (string, error) {
	return EncodeAddressForChain(FamilyOf(chain), raw)
}
