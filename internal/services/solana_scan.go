package services

import (
	"math/big"
	"time"

	"bridge-indexer/internal/swaps"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"
)

var transferNames = []string{types.IxTransfer, types.IxTransferChecked}

// scanDirection is the side of the decoded instruction a sibling is searched on.
type scanDirection int

const (
	scanForward  scanDirection = iota // index+1 .. index+window
	scanBackward                      // index-1 .. index-window
)

// findSibling looks for an instruction named in want within window instructions of index.
func findSibling(tx *types.SolanaTransaction, index, window int, dir scanDirection, want ...string) (*types.Instruction, int, error) {
	ixs := tx.Instructions
	step := 1
	if dir == scanBackward {
		step = -1
	}
	for n := 1; n <= window; n++ {
		i := index + n*step
		if i < 0 || i >= len(ixs) {
			break
		}
		for _, name := range want {
			if ixs[i].Name == name {
				return &ixs[i], i, nil
			}
		}
	}
	return nil, -1, utils.NewSiblingNotFoundError(ixs[index].Name, index, window, want)
}

// siblingTransferAmount returns the amount of the token transfer that follows the instruction at index.
func siblingTransferAmount(tx *types.SolanaTransaction, index, window int) (*big.Int, error) {
	ix, _, err := findSibling(tx, index, window, scanForward, transferNames...)
	if err != nil {
		return nil, err
	}
	var args types.TransferArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(uint64(args.Amount)), nil
}

// swapLegsBefore collects the aggregator swap legs executed before the instruction at index.
func swapLegsBefore(tx *types.SolanaTransaction, index int, aggregator string) ([]swaps.Leg, error) {
	var legs []swaps.Leg
	for i := 0; i < index && i < len(tx.Instructions); i++ {
		ix := tx.Instructions[i]
		if ix.Name != types.IxSwapEvent || (aggregator != "" && ix.ProgramID != aggregator) {
			continue
		}
		var ev types.SwapEventArgs
		if err := ix.DecodeArgs(&ev); err != nil {
			return nil, err
		}
		legs = append(legs, swaps.Leg{
			Amm:          ev.Amm,
			InputMint:    ev.InputMint,
			InputAmount:  ev.InputAmount,
			OutputMint:   ev.OutputMint,
			OutputAmount: ev.OutputAmount,
		})
	}
	return legs, nil
}

// netSwapBefore resolves the swap legs preceding index into one net swap (nil when there was none).
func netSwapBefore(tx *types.SolanaTransaction, index int, aggregator string) (*swapAmounts, error) {
	legs, err := swapLegsBefore(tx, index, aggregator)
	if err != nil {
		return nil, err
	}
	net, err := swaps.Resolve(legs)
	if err != nil || net == nil {
		return nil, err
	}
	in, err := utils.HexToDecimal(net.InputAmount)
	if err != nil {
		return nil, err
	}
	out, err := utils.HexToDecimal(net.OutputAmount)
	if err != nil {
		return nil, err
	}
	return &swapAmounts{InputMint: net.InputMint, InputAmount: in, OutputMint: net.OutputMint, OutputAmount: out}, nil
}

// swapAmounts is a resolved swap with decimal amounts, ready for storage.
type swapAmounts struct {
	InputMint    string
	InputAmount  string
	OutputMint   string
	OutputAmount string
}

func solanaTime(tx *types.SolanaTransaction) time.Time {
	if tx.BlockTime == 0 {
		return time.Time{}
	}
	return time.Unix(tx.BlockTime, 0).UTC()
}
