package clients

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient lists program signatures and reads transaction metadata.
type SolanaClient struct {
	rpc      *rpc.Client
	pageSize int
	timeout  time.Duration
}

func NewSolanaClient(network *config.NetworkConfig, pageSize int) (*SolanaClient, error) {
	if len(network.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("solana has no rpc endpoints")
	}
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}
	log.Printf("🔗 [solana] Using endpoint %s", network.RPCEndpoints[0])
	return &SolanaClient{
		rpc:      rpc.New(network.RPCEndpoints[0]),
		pageSize: pageSize,
		timeout:  30 * time.Second,
	}, nil
}

// SignaturesInRange pages backwards from the newest signature of program and keeps
// the successful and failed ones with start <= block time < end, oldest first.
func (c *SolanaClient) SignaturesInRange(ctx context.Context, program string, start, end time.Time) ([]string, error) {
	address, err := solana.PublicKeyFromBase58(program)
	if err != nil {
		return nil, fmt.Errorf("bad program id %s: %w", program, err)
	}

	var (
		out    []string
		before solana.Signature
		limit  = c.pageSize
	)
	for {
		page, err := c.signaturePage(ctx, address, before, limit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		reachedStart := false
		for _, s := range page {
			if s.BlockTime == nil {
				continue
			}
			bt := s.BlockTime.Time()
			if !bt.Before(end) {
				continue
			}
			if bt.Before(start) {
				reachedStart = true
				break
			}
			out = append(out, s.Signature.String())
		}
		if reachedStart || len(page) < limit {
			break
		}
		before = page[len(page)-1].Signature
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	log.Printf("📜 [solana] %d signatures for %s in [%s, %s)", len(out), program, start.Format(time.RFC3339), end.Format(time.RFC3339))
	return out, nil
}

func (c *SolanaClient) signaturePage(ctx context.Context, address solana.PublicKey, before solana.Signature, limit int) ([]*rpc.TransactionSignature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Before:     before,
		Commitment: rpc.CommitmentFinalized,
	}
	page, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, opts)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress %s: %w", address, err)
	}
	return page, nil
}

// TransactionMeta returns slot, block time, fee payer, fee and status of a transaction.
// Solana transactions carry no value; Value is always 0.
func (c *SolanaClient) TransactionMeta(ctx context.Context, signature string) (*models.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("bad signature %s: %w", signature, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxVersion := uint64(0)
	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("getTransaction %s: %w", signature, err)
	}

	tx := &models.Transaction{
		Blockchain:      "solana",
		TransactionHash: signature,
		BlockNumber:     res.Slot,
		Value:           "0",
		Fee:             "0",
	}
	if res.BlockTime != nil {
		tx.Timestamp = res.BlockTime.Time().UTC()
	}
	if res.Meta != nil {
		tx.Fee = strconv.FormatUint(res.Meta.Fee, 10)
		tx.Status = res.Meta.Err == nil
	}
	if res.Transaction != nil {
		parsed, err := res.Transaction.GetTransaction()
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
		}
		if len(parsed.Message.AccountKeys) > 0 {
			tx.FromAddress = parsed.Message.AccountKeys[0].String()
		}
		if len(parsed.Message.Instructions) > 0 {
			idx := parsed.Message.Instructions[0].ProgramIDIndex
			if int(idx) < len(parsed.Message.AccountKeys) {
				tx.ToAddress = parsed.Message.AccountKeys[idx].String()
			}
		}
	}
	return tx, nil
}
