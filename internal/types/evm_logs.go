package types

import (
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// EVMLogBatch is the unit handed to an EVM decoder: logs of one chain with the
// timestamps of the blocks they were mined in.
type EVMLogBatch struct {
	Blockchain string
	FromBlock  uint64
	ToBlock    uint64
	Logs       []ethtypes.Log
	BlockTimes map[uint64]time.Time
}

// BlockTime returns the timestamp of the log's block (zero time when unknown).
func (b *EVMLogBatch) BlockTime(number uint64) time.Time {
	if b.BlockTimes == nil {
		return time.Time{}
	}
	return b.BlockTimes[number]
}

// ValuationTuple is a unique token pair handed to the valuation collaborator.
type ValuationTuple struct {
	SrcBlockchain      string `json:"src_blockchain"`
	SrcContractAddress string `json:"src_contract_address"`
	DstBlockchain      string `json:"dst_blockchain"`
	DstContractAddress string `json:"dst_contract_address"`
}
