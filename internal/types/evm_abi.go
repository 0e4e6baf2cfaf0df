// Package types holds the typed payloads decoded from bridge contracts and programs.
package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// mustNewType creates a new ABI type, panicking on error (for use in package-level vars)
func mustNewType(t string, components ...abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("failed to create ABI type %s: %v", t, err))
	}
	return typ
}

func arg(name, t string) abi.Argument {
	return abi.Argument{Name: name, Type: mustNewType(t)}
}

// ===== deBridge DLN =====

// DlnOrder is the DLN order struct shared by DlnSource and DlnDestination events.
// Field order and names follow the Solidity struct so abi can copy into it.
type DlnOrder struct {
	MakerOrderNonce             uint64
	MakerSrc                    []byte
	GiveChainId                 *big.Int
	GiveTokenAddress            []byte
	GiveAmount                  *big.Int
	TakeChainId                 *big.Int
	TakeTokenAddress            []byte
	TakeAmount                  *big.Int
	ReceiverDst                 []byte
	GivePatchAuthoritySrc       []byte
	OrderAuthorityAddressDst    []byte
	AllowedTakerDst             []byte
	AllowedCancelBeneficiarySrc []byte
	ExternalCall                []byte
}

var dlnOrderType = mustNewType("tuple",
	abi.ArgumentMarshaling{Name: "makerOrderNonce", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "makerSrc", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "giveChainId", Type: "uint256"},
	abi.ArgumentMarshaling{Name: "giveTokenAddress", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "giveAmount", Type: "uint256"},
	abi.ArgumentMarshaling{Name: "takeChainId", Type: "uint256"},
	abi.ArgumentMarshaling{Name: "takeTokenAddress", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "takeAmount", Type: "uint256"},
	abi.ArgumentMarshaling{Name: "receiverDst", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "givePatchAuthoritySrc", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "orderAuthorityAddressDst", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "allowedTakerDst", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "allowedCancelBeneficiarySrc", Type: "bytes"},
	abi.ArgumentMarshaling{Name: "externalCall", Type: "bytes"},
)

// CreatedOrder is emitted by DlnSource.
type CreatedOrder struct {
	Order        DlnOrder
	OrderId      [32]byte
	AffiliateFee []byte
	NativeFixFee *big.Int
	PercentFee   *big.Int
	ReferralCode uint32
	Metadata     []byte
}

// FulfilledOrder is emitted by DlnDestination.
type FulfilledOrder struct {
	Order           DlnOrder
	OrderId         [32]byte
	Sender          common.Address
	UnlockAuthority common.Address
}

// ClaimedUnlock is emitted by DlnSource when a solver claims the give side.
type ClaimedUnlock struct {
	OrderId          [32]byte
	Beneficiary      common.Address
	GiveAmount       *big.Int
	GiveTokenAddress common.Address
}

var (
	CreatedOrderEvent = abi.NewEvent("CreatedOrder", "CreatedOrder", false, abi.Arguments{
		{Name: "order", Type: dlnOrderType},
		arg("orderId", "bytes32"),
		arg("affiliateFee", "bytes"),
		arg("nativeFixFee", "uint256"),
		arg("percentFee", "uint256"),
		arg("referralCode", "uint32"),
		arg("metadata", "bytes"),
	})
	FulfilledOrderEvent = abi.NewEvent("FulfilledOrder", "FulfilledOrder", false, abi.Arguments{
		{Name: "order", Type: dlnOrderType},
		arg("orderId", "bytes32"),
		arg("sender", "address"),
		arg("unlockAuthority", "address"),
	})
	ClaimedUnlockEvent = abi.NewEvent("ClaimedUnlock", "ClaimedUnlock", false, abi.Arguments{
		arg("orderId", "bytes32"),
		arg("beneficiary", "address"),
		arg("giveAmount", "uint256"),
		arg("giveTokenAddress", "address"),
	})
)

// ===== Mayan Swift =====

// SwiftOrderCreated is emitted by the Swift contract; Key is the order hash.
type SwiftOrderCreated struct {
	Key [32]byte
}

type SwiftOrderFulfilled struct {
	Key       [32]byte
	Sequence  uint64
	NetAmount *big.Int
}

type SwiftOrderUnlocked struct {
	Key [32]byte
}

type SwiftOrderRefunded struct {
	Key       [32]byte
	NetAmount *big.Int
}

var (
	SwiftOrderCreatedEvent = abi.NewEvent("OrderCreated", "OrderCreated", false, abi.Arguments{
		arg("key", "bytes32"),
	})
	SwiftOrderFulfilledEvent = abi.NewEvent("OrderFulfilled", "OrderFulfilled", false, abi.Arguments{
		arg("key", "bytes32"),
		arg("sequence", "uint64"),
		arg("netAmount", "uint256"),
	})
	SwiftOrderUnlockedEvent = abi.NewEvent("OrderUnlocked", "OrderUnlocked", false, abi.Arguments{
		arg("key", "bytes32"),
	})
	SwiftOrderRefundedEvent = abi.NewEvent("OrderRefunded", "OrderRefunded", false, abi.Arguments{
		arg("key", "bytes32"),
		arg("netAmount", "uint256"),
	})
)

// SwiftOrderParams is the OrderParams struct taken by Swift's createOrderWith* entry points.
type SwiftOrderParams struct {
	Trader       [32]byte
	TokenOut     [32]byte
	MinAmountOut uint64
	GasDrop      uint64
	CancelFee    uint64
	RefundFee    uint64
	Deadline     uint64
	DestAddr     [32]byte
	DestChainId  uint16
	ReferrerAddr [32]byte
	ReferrerBps  uint8
	AuctionMode  uint8
	Random       [32]byte
}

var swiftOrderParamsType = mustNewType("tuple",
	abi.ArgumentMarshaling{Name: "trader", Type: "bytes32"},
	abi.ArgumentMarshaling{Name: "tokenOut", Type: "bytes32"},
	abi.ArgumentMarshaling{Name: "minAmountOut", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "gasDrop", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "cancelFee", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "refundFee", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "deadline", Type: "uint64"},
	abi.ArgumentMarshaling{Name: "destAddr", Type: "bytes32"},
	abi.ArgumentMarshaling{Name: "destChainId", Type: "uint16"},
	abi.ArgumentMarshaling{Name: "referrerAddr", Type: "bytes32"},
	abi.ArgumentMarshaling{Name: "referrerBps", Type: "uint8"},
	abi.ArgumentMarshaling{Name: "auctionMode", Type: "uint8"},
	abi.ArgumentMarshaling{Name: "random", Type: "bytes32"},
)

var (
	SwiftCreateOrderWithEth = abi.NewMethod("createOrderWithEth", "createOrderWithEth", abi.Function, "payable", false, true,
		abi.Arguments{{Name: "params", Type: swiftOrderParamsType}}, nil)
	SwiftCreateOrderWithToken = abi.NewMethod("createOrderWithToken", "createOrderWithToken", abi.Function, "nonpayable", false, false,
		abi.Arguments{
			arg("tokenIn", "address"),
			arg("amountIn", "uint256"),
			{Name: "params", Type: swiftOrderParamsType},
		}, nil)
)

// SwiftCreateOrder is the decoded Swift calldata carried inside a forwarder event.
// TokenIn is the zero address and AmountIn nil for createOrderWithEth.
type SwiftCreateOrder struct {
	Method   string
	TokenIn  common.Address
	AmountIn *big.Int
	Params   SwiftOrderParams
}

// ===== Mayan Forwarder =====

type ForwardedEth struct {
	MayanProtocol common.Address
	ProtocolData  []byte
}

type ForwardedERC20 struct {
	Token         common.Address
	Amount        *big.Int
	MayanProtocol common.Address
	ProtocolData  []byte
}

type SwapAndForwardedEth struct {
	AmountIn      *big.Int
	SwapProtocol  common.Address
	MiddleToken   common.Address
	MiddleAmount  *big.Int
	MayanProtocol common.Address
	MayanData     []byte
}

type SwapAndForwardedERC20 struct {
	TokenIn       common.Address
	AmountIn      *big.Int
	SwapProtocol  common.Address
	MiddleToken   common.Address
	MiddleAmount  *big.Int
	MayanProtocol common.Address
	MayanData     []byte
}

var (
	ForwardedEthEvent = abi.NewEvent("ForwardedEth", "ForwardedEth", false, abi.Arguments{
		arg("mayanProtocol", "address"),
		arg("protocolData", "bytes"),
	})
	ForwardedERC20Event = abi.NewEvent("ForwardedERC20", "ForwardedERC20", false, abi.Arguments{
		arg("token", "address"),
		arg("amount", "uint256"),
		arg("mayanProtocol", "address"),
		arg("protocolData", "bytes"),
	})
	SwapAndForwardedEthEvent = abi.NewEvent("SwapAndForwardedEth", "SwapAndForwardedEth", false, abi.Arguments{
		arg("amountIn", "uint256"),
		arg("swapProtocol", "address"),
		arg("middleToken", "address"),
		arg("middleAmount", "uint256"),
		arg("mayanProtocol", "address"),
		arg("mayanData", "bytes"),
	})
	SwapAndForwardedERC20Event = abi.NewEvent("SwapAndForwardedERC20", "SwapAndForwardedERC20", false, abi.Arguments{
		arg("tokenIn", "address"),
		arg("amountIn", "uint256"),
		arg("swapProtocol", "address"),
		arg("middleToken", "address"),
		arg("middleAmount", "uint256"),
		arg("mayanProtocol", "address"),
		arg("mayanData", "bytes"),
	})
)

// UnpackEvent decodes the non-indexed data of a log into out (a pointer to one of the event structs above).
func UnpackEvent(ev abi.Event, data []byte, out interface{}) error {
	values, err := ev.Inputs.Unpack(data)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", ev.Name, err)
	}
	if err := ev.Inputs.Copy(out, values); err != nil {
		return fmt.Errorf("copy %s: %w", ev.Name, err)
	}
	return nil
}

// DecodeSwiftCreateOrder decodes createOrderWithEth / createOrderWithToken calldata.
func DecodeSwiftCreateOrder(calldata []byte) (*SwiftCreateOrder, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("swift calldata too short: %d bytes", len(calldata))
	}
	selector, body := calldata[:4], calldata[4:]

	switch {
	case bytes.Equal(selector, SwiftCreateOrderWithEth.ID):
		values, err := SwiftCreateOrderWithEth.Inputs.Unpack(body)
		if err != nil {
			return nil, fmt.Errorf("unpack createOrderWithEth: %w", err)
		}
		var decoded struct{ Params SwiftOrderParams }
		if err := SwiftCreateOrderWithEth.Inputs.Copy(&decoded, values); err != nil {
			return nil, fmt.Errorf("copy createOrderWithEth: %w", err)
		}
		return &SwiftCreateOrder{Method: SwiftCreateOrderWithEth.Name, Params: decoded.Params}, nil

	case bytes.Equal(selector, SwiftCreateOrderWithToken.ID):
		values, err := SwiftCreateOrderWithToken.Inputs.Unpack(body)
		if err != nil {
			return nil, fmt.Errorf("unpack createOrderWithToken: %w", err)
		}
		var decoded struct {
			TokenIn  common.Address
			AmountIn *big.Int
			Params   SwiftOrderParams
		}
		if err := SwiftCreateOrderWithToken.Inputs.Copy(&decoded, values); err != nil {
			return nil, fmt.Errorf("copy createOrderWithToken: %w", err)
		}
		return &SwiftCreateOrder{
			Method:   SwiftCreateOrderWithToken.Name,
			TokenIn:  decoded.TokenIn,
			AmountIn: decoded.AmountIn,
			Params:   decoded.Params,
		}, nil
	}
	return nil, fmt.Errorf("unknown swift selector 0x%x", selector)
}

