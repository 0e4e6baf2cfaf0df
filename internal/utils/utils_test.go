package utils

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dlnSource    = "0xeF4fB24aD0916217251F553c0596F8Edc630EB66"
	wrappedSOL   = "So11111111111111111111111111111111111111112"
	usdcSolana   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	systemKeyB58 = "11111111111111111111111111111111"
)

func TestPadUnpadEvmAddressRoundTrip(t *testing.T) {
	addrs := []string{
		dlnSource,
		"0xE7351Fd770A37282b91D153Ee690B63579D6dd7f",
		"0x0000000000000000000000000000000000000001",
		"0xffffffffffffffffffffffffffffffffffffffff",
	}
	for _, addr := range addrs {
		word, err := PadEvmAddress(addr)
		require.NoError(t, err)
		assert.Len(t, word, 2+64)

		back, err := UnpadEvmAddress(word)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(addr), back)
	}
}

func TestUnpadEvmAddressRejectsDirtyPadding(t *testing.T) {
	_, err := UnpadEvmAddress("0x01000000000000000000000" + "0eF4fB24aD0916217251F553c0596F8Edc630EB66")
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "unpad evm address", fe.Op)
}

func TestUnpadEvmAddressShortInput(t *testing.T) {
	got, err := UnpadEvmAddress("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", got)

	_, err = UnpadEvmAddress("0x" + strings.Repeat("00", 33))
	assert.Error(t, err)
}

func TestSolanaAddressRoundTrip(t *testing.T) {
	for _, key := range []string{wrappedSOL, usdcSolana, systemKeyB58} {
		raw, err := SolanaAddressToBytes(key)
		require.NoError(t, err)
		require.Len(t, raw, 32)

		back, err := SolanaAddressFromBytes(raw)
		require.NoError(t, err)
		assert.Equal(t, key, back)
	}

	_, err := SolanaAddressFromBytes(make([]byte, 20))
	assert.Error(t, err)
}

func TestEncodeAddressForChainName(t *testing.T) {
	raw := common.LeftPadBytes(common.HexToAddress(dlnSource).Bytes(), 32)

	evm, err := EncodeAddressForChainName("arbitrum", raw)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(dlnSource), evm)

	sol, err := EncodeAddressForChainName("solana", make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, systemKeyB58, sol)

	_, err = EncodeAddressForChainName("tron", raw)
	assert.Error(t, err)
}

func TestParseHexBigInt(t *testing.T) {
	v, err := ParseHexBigInt("0x8077B20")
	require.NoError(t, err)
	assert.Equal(t, "134708000", v.String())

	v, err = ParseHexBigInt("1407a0e")
	require.NoError(t, err)
	assert.Equal(t, int64(21002766), v.Int64())

	v, err = ParseHexBigInt("0x400000000000000000")
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 70), v)
	assert.Equal(t, "0x400000000000000000", FormatHexBigInt(v))

	for _, bad := range []string{"", "0x", "0xzz"} {
		_, err := ParseHexBigInt(bad)
		assert.Error(t, err, bad)
	}
}

func TestChainIDExclusion(t *testing.T) {
	for _, id := range []string{"100000001", "100000002", "100000026", "1000000"} {
		name, ok := DeBridgeChainName(id)
		assert.False(t, ok, id)
		assert.Empty(t, name)
	}
	assert.True(t, IsExcludedChainID("10000001"))
	assert.False(t, IsExcludedChainID("7565164"))
}

func TestDeBridgeChainLookups(t *testing.T) {
	cases := map[string]string{
		"1":       "ethereum",
		"56":      "bnb",
		"8453":    "base",
		"42161":   "arbitrum",
		"7565164": "solana",
	}
	for id, want := range cases {
		got, ok := DeBridgeChainName(id)
		require.True(t, ok, id)
		assert.Equal(t, want, got)
	}

	_, ok := DeBridgeChainName("999")
	assert.False(t, ok)

	got, ok := DeBridgeChainNameFromBytes(common.LeftPadBytes(big.NewInt(42161).Bytes(), 32))
	require.True(t, ok)
	assert.Equal(t, "arbitrum", got)

	got, ok = DeBridgeChainNameFromBig(big.NewInt(7565164))
	require.True(t, ok)
	assert.Equal(t, "solana", got)
}

func TestWormholeChainLookups(t *testing.T) {
	name, ok := WormholeChainName(1)
	require.True(t, ok)
	assert.Equal(t, "solana", name)

	name, ok = WormholeChainName(30)
	require.True(t, ok)
	assert.Equal(t, "base", name)

	_, ok = WormholeChainName(9999)
	assert.False(t, ok)

	id, ok := WormholeChainID("arbitrum")
	require.True(t, ok)
	assert.Equal(t, uint16(23), id)

	assert.Equal(t, FamilySolana, FamilyOf("solana"))
	assert.Equal(t, FamilyEVM, FamilyOf("linea"))
	assert.Equal(t, ChainFamily(""), FamilyOf("unknown"))
}

func TestAddress32Normalization(t *testing.T) {
	fromHex, err := Address32FromString(dlnSource)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 12), fromHex[:12])

	padded, err := PadEvmAddress(dlnSource)
	require.NoError(t, err)
	fromWord, err := Address32FromString(padded)
	require.NoError(t, err)
	assert.Equal(t, fromHex, fromWord)

	zero, err := Address32FromString(systemKeyB58)
	require.NoError(t, err)
	assert.Equal(t, Address32{}, zero)

	_, err = Address32FromString("abc")
	var fe *FormatError
	require.True(t, errors.As(err, &fe))

	_, err = Address32FromInts([]int{1, 256})
	assert.Error(t, err)
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func TestOrderHashDeterministicAcrossEncodings(t *testing.T) {
	trader := "0x1111111111111111111111111111111111111111"
	destAddr := "0x2222222222222222222222222222222222222222"
	random := "0x" + strings.Repeat("ab", 32)

	mustStr := func(s string) Address32 {
		a, err := Address32FromString(s)
		require.NoError(t, err)
		return a
	}
	mustInts := func(v []int) Address32 {
		a, err := Address32FromInts(v)
		require.NoError(t, err)
		return a
	}

	evmStyle := MayanOrderParams{
		Trader:       mustStr(trader),
		SrcChainID:   1,
		TokenIn:      mustStr(wrappedSOL),
		DestAddr:     mustStr(destAddr),
		DestChainID:  23,
		TokenOut:     mustStr("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		MinAmountOut: 1_000_000,
		GasDrop:      0,
		CancelFee:    2_500,
		RefundFee:    1_200,
		Deadline:     1733014800,
		ReferrerAddr: mustStr(systemKeyB58),
		ReferrerBps:  0,
		MayanBps:     3,
		AuctionMode:  2,
		RandomKey:    mustStr(random),
	}

	solTrader, err := DecodeHex(trader)
	require.NoError(t, err)
	solDest, err := DecodeHex(destAddr)
	require.NoError(t, err)
	mint, err := SolanaAddressToBytes(wrappedSOL)
	require.NoError(t, err)
	rnd, err := DecodeHex(random)
	require.NoError(t, err)
	tokenOut, err := DecodeHex("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	require.NoError(t, err)

	solanaStyle := evmStyle
	solanaStyle.Trader = mustInts(toInts(common.LeftPadBytes(solTrader, 32)))
	solanaStyle.TokenIn = mustInts(toInts(mint))
	solanaStyle.DestAddr = mustInts(toInts(solDest))
	solanaStyle.TokenOut = mustInts(toInts(tokenOut))
	solanaStyle.ReferrerAddr = mustInts(toInts(make([]byte, 32)))
	solanaStyle.RandomKey = mustInts(toInts(rnd))

	h1 := ReconstructOrderHash(evmStyle)
	h2 := ReconstructOrderHash(solanaStyle)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 66)
	assert.Equal(t, strings.ToLower(h1), h1)

	changed := evmStyle
	changed.Deadline++
	assert.NotEqual(t, h1, ReconstructOrderHash(changed))
}

func TestOrderEncodingLayout(t *testing.T) {
	p := MayanOrderParams{SrcChainID: 0x0102, DestChainID: 0x0304, MinAmountOut: 5, AuctionMode: 7}
	p.Trader[31] = 0xaa
	p.RandomKey[0] = 0xbb

	buf := p.Encode()
	require.Len(t, buf, OrderHashBufferLength)
	assert.Equal(t, byte(0xaa), buf[31])
	assert.Equal(t, []byte{0x01, 0x02}, buf[32:34])
	assert.Equal(t, []byte{0x03, 0x04}, buf[98:100])
	assert.Equal(t, byte(5), buf[139])
	assert.Equal(t, byte(7), buf[206])
	assert.Equal(t, byte(0xbb), buf[207])
}
