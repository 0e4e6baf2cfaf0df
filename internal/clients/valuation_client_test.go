package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuationClientPrepareAndApply(t *testing.T) {
	var paths []string
	var prepared valuationPrepareRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if r.URL.Path == "/v1/valuation/prepare" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&prepared))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewValuationClient(config.ValuationConfig{BaseURL: srv.URL, Timeout: 5})
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tuples := []types.ValuationTuple{{SrcBlockchain: "ethereum", SrcContractAddress: "0xa", DstBlockchain: "solana", DstContractAddress: "mint"}}

	require.NoError(t, c.Prepare(context.Background(), models.BridgeMayan, tuples, from, from.Add(time.Hour)))
	require.NoError(t, c.Apply(context.Background(), models.BridgeMayan))

	assert.Equal(t, []string{"/v1/valuation/prepare", "/v1/valuation/apply"}, paths)
	assert.Equal(t, "mayan", prepared.Bridge)
	assert.Equal(t, models.BridgeMayan.CctxTable(), prepared.Table)
	assert.Equal(t, tuples, prepared.Tuples)
	assert.True(t, from.Equal(prepared.From))
}

func TestValuationClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "prices unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewValuationClient(config.ValuationConfig{BaseURL: srv.URL}).Apply(context.Background(), models.BridgeDeBridge)
	assert.ErrorContains(t, err, "status 502")
	assert.ErrorContains(t, err, "prices unavailable")
}

func TestDumpInstructionDecoder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o600))
	}
	write("sigA", `{"slot":12,"success":true,"instructions":[{"programId":"p","name":"unlock","args":{},"accounts":[]}]}`)
	write("sigB", `{"signature":"sigC"}`)
	write("sigD", `{not json`)

	d := NewDumpInstructionDecoder(dir)

	tx, err := d.Decode(context.Background(), "sigA")
	require.NoError(t, err)
	assert.Equal(t, "sigA", tx.Signature)
	assert.Equal(t, uint64(12), tx.Slot)
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, types.IxSwiftUnlock, tx.Instructions[0].Name)

	_, err = d.Decode(context.Background(), "sigB")
	assert.ErrorContains(t, err, "holds signature sigC")
	_, err = d.Decode(context.Background(), "sigD")
	assert.Error(t, err)
	_, err = d.Decode(context.Background(), "missing")
	assert.Error(t, err)
}
