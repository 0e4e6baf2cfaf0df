package clients

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EVMClient reads logs, blocks and transactions of one EVM chain.
type EVMClient struct {
	chain   string
	client  *ethclient.Client
	timeout time.Duration
}

// NewEVMClient dials the first endpoint that answers net_version
func NewEVMClient(chain string, network *config.NetworkConfig) (*EVMClient, error) {
	var lastErr error
	for i, endpoint := range network.RPCEndpoints {
		log.Printf("🔗 [%s] Trying endpoint %d/%d", chain, i+1, len(network.RPCEndpoints))
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			log.Printf("   ❌ Dial failed: %v", err)
			lastErr = err
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		networkID, err := client.NetworkID(ctx)
		cancel()
		if err != nil {
			log.Printf("   ❌ NetworkID check failed: %v", err)
			client.Close()
			lastErr = err
			continue
		}
		log.Printf("   ✅ [%s] Connected, network ID %s", chain, networkID)
		return &EVMClient{chain: chain, client: client, timeout: 30 * time.Second}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no rpc endpoints")
	}
	return nil, fmt.Errorf("failed to connect to %s: %w", chain, lastErr)
}

func (c *EVMClient) Close() {
	c.client.Close()
}

// BlockByTimestamp returns the first block whose timestamp is at or after ts.
// When ts is past the head, head+1 is returned.
func (c *EVMClient) BlockByTimestamp(ctx context.Context, ts time.Time) (uint64, error) {
	head, err := c.header(ctx, nil)
	if err != nil {
		return 0, err
	}
	target := uint64(ts.Unix())
	if head.Time < target {
		return head.Number.Uint64() + 1, nil
	}

	lo, hi := uint64(0), head.Number.Uint64()
	for lo < hi {
		mid := lo + (hi-lo)/2
		h, err := c.header(ctx, new(big.Int).SetUint64(mid))
		if err != nil {
			return 0, err
		}
		if h.Time < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

func (c *EVMClient) FilterLogs(ctx context.Context, from, to uint64, addresses []common.Address, topics []common.Hash) ([]types.Log, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
	}
	if len(topics) > 0 {
		query.Topics = [][]common.Hash{topics}
	}
	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs on %s: %w", c.chain, err)
	}
	return logs, nil
}

func (c *EVMClient) BlockTimes(ctx context.Context, numbers []uint64) (map[uint64]time.Time, error) {
	out := make(map[uint64]time.Time, len(numbers))
	for _, n := range numbers {
		h, err := c.header(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return nil, err
		}
		out[n] = time.Unix(int64(h.Time), 0).UTC()
	}
	return out, nil
}

// TransactionDetails fills sender, recipient, value, fee, calldata and status from the
// transaction and its receipt. Fee is gas used times the effective gas price.
func (c *EVMClient) TransactionDetails(ctx context.Context, hash common.Hash) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, _, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %w", err)
	}
	to := ""
	if tx.To() != nil {
		to = strings.ToLower(tx.To().Hex())
	}

	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), gasPrice)

	return &models.Transaction{
		Blockchain:      c.chain,
		TransactionHash: strings.ToLower(hash.Hex()),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		FromAddress:     strings.ToLower(from.Hex()),
		ToAddress:       to,
		Value:           tx.Value().String(),
		Fee:             fee.String(),
		InputData:       hexutil.Encode(tx.Data()),
		Status:          receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

func (c *EVMClient) header(ctx context.Context, number *big.Int) (*types.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	h, err := c.client.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get header %v on %s: %w", number, c.chain, err)
	}
	return h, nil
}
