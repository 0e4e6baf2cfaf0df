package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Instruction names emitted by the IDL decoder.
const (
	IxTransfer        = "transfer"
	IxTransferChecked = "transferChecked"
	IxSwapEvent       = "swapEvent"

	IxDlnCreateOrderWithNonce = "create_order_with_nonce"
	IxDlnCreatedOrderID       = "CreatedOrderId"
	IxDlnFulfillOrder         = "fulfill_order"
	IxDlnClaimUnlock          = "claim_unlock"

	IxSwiftInitOrder     = "init_order"
	IxSwiftRegisterOrder = "register_order"
	IxSwiftFulfill       = "fulfill"
	IxSwiftUnlock        = "unlock"

	IxAuctionBid   = "bid"
	IxAuctionClose = "close_auction"
)

// AccountMeta is one named account of a decoded instruction.
type AccountMeta struct {
	Name   string `json:"name"`
	Pubkey string `json:"pubkey"`
}

// Instruction is a decoded Solana instruction. Inner (CPI) instructions are
// flattened into the transaction's list in execution order.
type Instruction struct {
	ProgramID string          `json:"programId"`
	Name      string          `json:"name"`
	Args      json.RawMessage `json:"args"`
	Accounts  []AccountMeta   `json:"accounts"`
}

// Account returns the pubkey of the named account.
func (ix Instruction) Account(name string) (string, bool) {
	for _, a := range ix.Accounts {
		if a.Name == name {
			return a.Pubkey, true
		}
	}
	return "", false
}

// MustAccount is Account for accounts the instruction layout guarantees.
func (ix Instruction) MustAccount(name string) (string, error) {
	pk, ok := ix.Account(name)
	if !ok {
		return "", fmt.Errorf("instruction %s: missing account %q", ix.Name, name)
	}
	return pk, nil
}

// DecodeArgs unmarshals the instruction args into out.
func (ix Instruction) DecodeArgs(out interface{}) error {
	if len(ix.Args) == 0 {
		return fmt.Errorf("instruction %s: no args", ix.Name)
	}
	if err := json.Unmarshal(ix.Args, out); err != nil {
		return fmt.Errorf("instruction %s: decode args: %w", ix.Name, err)
	}
	return nil
}

// SolanaTransaction is one decoded transaction as supplied by the chain-data collaborator.
type SolanaTransaction struct {
	Signature    string        `json:"signature"`
	Slot         uint64        `json:"slot"`
	BlockTime    int64         `json:"block_time"`
	Fee          uint64        `json:"fee"`
	Signer       string        `json:"signer"`
	Success      bool          `json:"success"`
	Instructions []Instruction `json:"instructions"`
}

// ByteArray accepts a JSON array of byte values, a 0x hex string, or null.
type ByteArray []byte

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw, err := hexutil.Decode(s)
		if err != nil {
			return fmt.Errorf("byte array %q: %w", s, err)
		}
		*b = raw
		return nil
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("byte array: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte array: element %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

func (b ByteArray) Ints() []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// U64 accepts both JSON numbers and decimal strings (large u64 values are often quoted).
type U64 uint64

func (u *U64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("u64 %q: %w", s, err)
	}
	*u = U64(v)
	return nil
}

// ===== SPL token =====

type TransferArgs struct {
	Amount   U64  `json:"amount"`
	Decimals *int `json:"decimals,omitempty"`
}

// ===== Jupiter =====

// SwapEventArgs is one AMM leg; amounts are hex strings.
type SwapEventArgs struct {
	Amm          string `json:"amm"`
	InputMint    string `json:"input_mint"`
	InputAmount  string `json:"input_amount"`
	OutputMint   string `json:"output_mint"`
	OutputAmount string `json:"output_amount"`
}

// ===== deBridge DLN (Solana) =====

type DlnOffer struct {
	ChainID      ByteArray `json:"chain_id"`
	TokenAddress ByteArray `json:"token_address"`
	Amount       ByteArray `json:"amount"`
}

type DlnCreateOrderArgs struct {
	GiveOriginalAmount          U64       `json:"give_original_amount"`
	Take                        DlnOffer  `json:"take"`
	ReceiverDst                 ByteArray `json:"receiver_dst"`
	ExternalCall                ByteArray `json:"external_call"`
	GivePatchAuthoritySrc       string    `json:"give_patch_authority_src"`
	AllowedCancelBeneficiarySrc *string   `json:"allowed_cancel_beneficiary_src"`
	OrderAuthorityAddressDst    ByteArray `json:"order_authority_address_dst"`
	AllowedTakerDst             ByteArray `json:"allowed_taker_dst"`
}

type DlnAffiliateFee struct {
	Beneficiary string `json:"beneficiary"`
	Amount      U64    `json:"amount"`
}

type DlnCreateOrderWithNonceArgs struct {
	OrderArgs    DlnCreateOrderArgs `json:"order_args"`
	AffiliateFee *DlnAffiliateFee   `json:"affiliate_fee"`
	ReferralCode *uint32            `json:"referral_code"`
	Nonce        U64                `json:"nonce"`
	Metadata     ByteArray          `json:"metadata"`
}

type DlnCreatedOrderIDArgs struct {
	OrderID ByteArray `json:"order_id"`
}

type DlnSolanaOrder struct {
	MakerOrderNonce             U64       `json:"maker_order_nonce"`
	MakerSrc                    ByteArray `json:"maker_src"`
	Give                        DlnOffer  `json:"give"`
	Take                        DlnOffer  `json:"take"`
	ReceiverDst                 ByteArray `json:"receiver_dst"`
	GivePatchAuthoritySrc       ByteArray `json:"give_patch_authority_src"`
	OrderAuthorityAddressDst    ByteArray `json:"order_authority_address_dst"`
	AllowedTakerDst             ByteArray `json:"allowed_taker_dst"`
	AllowedCancelBeneficiarySrc ByteArray `json:"allowed_cancel_beneficiary_src"`
	ExternalCall                ByteArray `json:"external_call"`
}

type DlnFulfillOrderArgs struct {
	UnvalidatedOrder DlnSolanaOrder `json:"unvalidated_order"`
	OrderID          ByteArray      `json:"order_id"`
	UnlockAuthority  *string        `json:"unlock_authority"`
}

type DlnClaimUnlockArgs struct {
	OrderID ByteArray `json:"order_id"`
}

// ===== Mayan Swift (Solana) =====

type SwiftInitOrderParams struct {
	Trader       ByteArray `json:"trader"`
	AmountInMin  U64       `json:"amount_in_min"`
	NativeInput  bool      `json:"native_input"`
	FeeSubmit    U64       `json:"fee_submit"`
	AddrDest     ByteArray `json:"addr_dest"`
	ChainDest    uint16    `json:"chain_dest"`
	TokenOut     ByteArray `json:"token_out"`
	AmountOutMin U64       `json:"amount_out_min"`
	GasDrop      U64       `json:"gas_drop"`
	FeeCancel    U64       `json:"fee_cancel"`
	FeeRefund    U64       `json:"fee_refund"`
	Deadline     U64       `json:"deadline"`
	AddrRef      ByteArray `json:"addr_ref"`
	FeeRateRef   uint8     `json:"fee_rate_ref"`
	FeeRateMayan uint8     `json:"fee_rate_mayan"`
	AuctionMode  uint8     `json:"auction_mode"`
	KeyRnd       ByteArray `json:"key_rnd"`
}

type SwiftInitOrderArgs struct {
	Params SwiftInitOrderParams `json:"params"`
}

// SwiftOrderInfo is the full order description used by register_order and auction bids.
type SwiftOrderInfo struct {
	Trader       ByteArray `json:"trader"`
	ChainSource  uint16    `json:"chain_source"`
	TokenIn      ByteArray `json:"token_in"`
	AddrDest     ByteArray `json:"addr_dest"`
	ChainDest    uint16    `json:"chain_dest"`
	TokenOut     ByteArray `json:"token_out"`
	AmountOutMin U64       `json:"amount_out_min"`
	GasDrop      U64       `json:"gas_drop"`
	FeeCancel    U64       `json:"fee_cancel"`
	FeeRefund    U64       `json:"fee_refund"`
	Deadline     U64       `json:"deadline"`
	AddrRef      ByteArray `json:"addr_ref"`
	FeeRateRef   uint8     `json:"fee_rate_ref"`
	FeeRateMayan uint8     `json:"fee_rate_mayan"`
	AuctionMode  uint8     `json:"auction_mode"`
	KeyRnd       ByteArray `json:"key_rnd"`
}

type SwiftRegisterOrderArgs struct {
	Args SwiftOrderInfo `json:"args"`
}

type SwiftFulfillArgs struct {
	AddrUnlocker ByteArray `json:"addr_unlocker"`
}

type AuctionBidArgs struct {
	Order     SwiftOrderInfo `json:"order"`
	AmountBid U64            `json:"amount_bid"`
}
