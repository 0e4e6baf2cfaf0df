package utils

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// OrderHashBufferLength is the size of the serialized Mayan Swift order.
const OrderHashBufferLength = 239

// Address32 is an address normalized to a 32-byte word, the form used by Wormhole-style payloads.
type Address32 [32]byte

// Address32FromString accepts either a 0x hex address (20 bytes left-padded with zeros, or a full
// 32-byte word) or a base58 public key that must decode to exactly 32 bytes.
func Address32FromString(s string) (Address32, error) {
	var out Address32
	if IsHexAddress(s) {
		raw, err := DecodeHex(s)
		if err != nil {
			return out, err
		}
		return Address32FromBytes(raw)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, newFormatError("normalize address", s, "invalid base58: %v", err)
	}
	if len(raw) != len(out) {
		return out, newFormatError("normalize address", s, "base58 key decodes to %d bytes, expected 32", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// Address32FromBytes left-pads up to 32 raw bytes.
func Address32FromBytes(raw []byte) (Address32, error) {
	var out Address32
	if len(raw) > len(out) {
		return out, newFormatError("normalize address", hexutil.Encode(raw), "%d bytes exceeds 32", len(raw))
	}
	copy(out[:], common.LeftPadBytes(raw, len(out)))
	return out, nil
}

// Address32FromInts converts a JSON-decoded byte array (every element 0..255) into an address.
func Address32FromInts(values []int) (Address32, error) {
	raw := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return Address32{}, newFormatError("normalize address", fmt.Sprint(values), "element %d out of byte range: %d", i, v)
		}
		raw[i] = byte(v)
	}
	return Address32FromBytes(raw)
}

func (a Address32) Bytes() []byte { return a[:] }

func (a Address32) Hex() string { return hexutil.Encode(a[:]) }

// MayanOrderParams are the logical fields of a Swift order, independent of which chain emitted them.
type MayanOrderParams struct {
	Trader       Address32
	SrcChainID   uint16
	TokenIn      Address32
	DestAddr     Address32
	DestChainID  uint16
	TokenOut     Address32
	MinAmountOut uint64
	GasDrop      uint64
	CancelFee    uint64
	RefundFee    uint64
	Deadline     uint64
	ReferrerAddr Address32
	ReferrerBps  uint8
	MayanBps     uint8
	AuctionMode  uint8
	RandomKey    Address32
}

// Encode serializes the order into its fixed 239-byte layout.
func (p MayanOrderParams) Encode() []byte {
	buf := make([]byte, OrderHashBufferLength)
	offset := 0

	put32 := func(a Address32) {
		offset += copy(buf[offset:], a[:])
	}
	put16 := func(v uint16) {
		binary.BigEndian.PutUint16(buf[offset:], v)
		offset += 2
	}
	put64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[offset:], v)
		offset += 8
	}
	put8 := func(v uint8) {
		buf[offset] = v
		offset++
	}

	put32(p.Trader)
	put16(p.SrcChainID)
	put32(p.TokenIn)
	put32(p.DestAddr)
	put16(p.DestChainID)
	put32(p.TokenOut)
	put64(p.MinAmountOut)
	put64(p.GasDrop)
	put64(p.CancelFee)
	put64(p.RefundFee)
	put64(p.Deadline)
	put32(p.ReferrerAddr)
	put8(p.ReferrerBps)
	put8(p.MayanBps)
	put8(p.AuctionMode)
	put32(p.RandomKey)

	if offset != OrderHashBufferLength {
		panic(fmt.Sprintf("order hash buffer: wrote %d bytes, layout is %d", offset, OrderHashBufferLength))
	}
	return buf
}

// ReconstructOrderHash returns keccak256 of the encoded order as lowercase 0x hex.
func ReconstructOrderHash(p MayanOrderParams) string {
	return strings.ToLower(hexutil.Encode(crypto.Keccak256(p.Encode())))
}
