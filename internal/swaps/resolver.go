// Package swaps reduces the AMM legs executed inside one transaction to the net swap they perform.
package swaps

import (
	"errors"
	"fmt"
	"math/big"

	"bridge-indexer/internal/utils"
)

// ErrUnresolvedSwap is returned when the legs neither aggregate nor link down to a single swap.
var ErrUnresolvedSwap = errors.New("swap legs could not be resolved to a single swap")

// Leg is one AMM hop as reported by the aggregator's swap event. Amounts are hex strings.
type Leg struct {
	Amm          string `json:"amm,omitempty"`
	InputMint    string `json:"input_mint"`
	InputAmount  string `json:"input_amount"`
	OutputMint   string `json:"output_mint"`
	OutputAmount string `json:"output_amount"`
}

type leg struct {
	inMint  string
	inAmt   *big.Int
	outMint string
	outAmt  *big.Int
}

type pairKey struct{ in, out string }

type inputKey struct{ mint, amount string }

// Resolve reduces legs to the single swap they perform.
// No legs means no swap happened and yields nil without error.
func Resolve(legs []Leg) (*Leg, error) {
	switch len(legs) {
	case 0:
		return nil, nil
	case 1:
		return &Leg{
			InputMint:    legs[0].InputMint,
			InputAmount:  legs[0].InputAmount,
			OutputMint:   legs[0].OutputMint,
			OutputAmount: legs[0].OutputAmount,
		}, nil
	}

	arena := make([]leg, 0, len(legs))
	for i, l := range legs {
		in, err := utils.ParseHexBigInt(l.InputAmount)
		if err != nil {
			return nil, fmt.Errorf("leg %d input amount: %w", i, err)
		}
		out, err := utils.ParseHexBigInt(l.OutputAmount)
		if err != nil {
			return nil, fmt.Errorf("leg %d output amount: %w", i, err)
		}
		arena = append(arena, leg{inMint: l.InputMint, inAmt: in, outMint: l.OutputMint, outAmt: out})
	}

	for len(arena) > 1 {
		before := len(arena)
		arena = link(aggregate(arena))
		if len(arena) >= before {
			return nil, fmt.Errorf("%w: %d legs remain", ErrUnresolvedSwap, len(arena))
		}
	}

	net := arena[0]
	return &Leg{
		InputMint:    net.inMint,
		InputAmount:  utils.FormatHexBigInt(net.inAmt),
		OutputMint:   net.outMint,
		OutputAmount: utils.FormatHexBigInt(net.outAmt),
	}, nil
}

// aggregate sums legs sharing the same (input mint, output mint) pair, keeping first-seen order.
func aggregate(legs []leg) []leg {
	index := make(map[pairKey]int, len(legs))
	out := make([]leg, 0, len(legs))
	for _, l := range legs {
		k := pairKey{l.inMint, l.outMint}
		if i, ok := index[k]; ok {
			out[i].inAmt = new(big.Int).Add(out[i].inAmt, l.inAmt)
			out[i].outAmt = new(big.Int).Add(out[i].outAmt, l.outAmt)
			continue
		}
		index[k] = len(out)
		out = append(out, leg{
			inMint:  l.inMint,
			inAmt:   new(big.Int).Set(l.inAmt),
			outMint: l.outMint,
			outAmt:  new(big.Int).Set(l.outAmt),
		})
	}
	return out
}

// link collapses every chain where one leg's output (mint, amount) is exactly the next leg's input.
func link(legs []leg) []leg {
	byInput := make(map[inputKey]int, len(legs))
	for i, l := range legs {
		k := inputKey{l.inMint, utils.FormatHexBigInt(l.inAmt)}
		if _, ok := byInput[k]; !ok {
			byInput[k] = i
		}
	}

	// legs fed by another leg's output are visited after chain heads
	fed := make([]bool, len(legs))
	for i, l := range legs {
		if j, ok := byInput[inputKey{l.outMint, utils.FormatHexBigInt(l.outAmt)}]; ok && j != i {
			fed[j] = true
		}
	}
	order := make([]int, 0, len(legs))
	for i := range legs {
		if !fed[i] {
			order = append(order, i)
		}
	}
	for i := range legs {
		if fed[i] {
			order = append(order, i)
		}
	}

	consumed := make([]bool, len(legs))
	out := make([]leg, 0, len(legs))
	for _, i := range order {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		head, tail := legs[i], legs[i]
		for {
			next, ok := byInput[inputKey{tail.outMint, utils.FormatHexBigInt(tail.outAmt)}]
			if !ok || consumed[next] {
				break
			}
			consumed[next] = true
			tail = legs[next]
		}
		out = append(out, leg{inMint: head.inMint, inAmt: head.inAmt, outMint: tail.outMint, outAmt: tail.outAmt})
	}
	return out
}
