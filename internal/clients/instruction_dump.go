package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bridge-indexer/internal/types"
)

// DumpInstructionDecoder reads transactions decoded by the external IDL decoder.
// Each transaction lives in <dir>/<signature>.json.
type DumpInstructionDecoder struct {
	dir string
}

func NewDumpInstructionDecoder(dir string) *DumpInstructionDecoder {
	return &DumpInstructionDecoder{dir: dir}
}

func (d *DumpInstructionDecoder) Decode(_ context.Context, signature string) (*types.SolanaTransaction, error) {
	path := filepath.Join(d.dir, signature+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decoded transaction: %w", err)
	}

	var tx types.SolanaTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tx.Signature == "" {
		tx.Signature = signature
	}
	if tx.Signature != signature {
		return nil, fmt.Errorf("%s holds signature %s", path, tx.Signature)
	}
	return &tx, nil
}
