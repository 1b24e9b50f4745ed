package brc8888

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyMint(id, minter string, qty uint64) *Operation {
	return &Operation{
		Kind:          OperationMint,
		InscriptionId: id,
		Inscriber:     minter,
		BlockHeight:   925_010,
		Timestamp:     t0,
		Content:       []byte(fmt.Sprintf(`{"tick":"TINY","qty":"%d"}`, qty)),
	}
}

func mixedLog() []*Operation {
	return []*Operation{
		deployOp("unqi0", unqDeployContent("")),
		tinyMint("t0", "bc1puser", 1), // before the TINY deploy
		paidMint("m0", "bc1puser", 100, 925_002),
		deployOp("tinyi0", []byte(`{"tick":"TINY","supply":"100"}`)),
		tinyMint("t1", "bc1puser", 60),
		paidMint("m1", "bc1puser", 100, 925_003), // cooldown
		tinyMint("t2", "bc1pother", 60),          // supply exceeded
		tinyMint("m0", "bc1pother", 10),          // id already used by a UNQ mint
		evolveOp("e0", "unqi0", rootA),
		deployOp("alti0", []byte(`{"tick":"ALT","supply":"5"}`)),
		{Kind: OperationMint, InscriptionId: "bad", Content: []byte(`{not json`)},
		paidMint("m2", "bc1pother", 10, 925_004),
	}
}

type resultView struct {
	Valid  bool
	Kind   ErrorKind
	Op     OperationKind
	Tick   string
	Reason string
}

func viewResults(results []Result) []resultView {
	views := make([]resultView, 0, len(results))
	for _, r := range results {
		views = append(views, resultView{Valid: r.Valid, Kind: r.Kind, Op: r.Op, Tick: r.Tick, Reason: r.Reason})
	}
	return views
}

func TestReplay(t *testing.T) {
	results, ledger, err := Replay(context.Background(), DefaultConfig(), mixedLog())
	require.NoError(t, err)
	require.Len(t, results, 12)

	kinds := make([]ErrorKind, 0, len(results))
	for _, r := range results {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []ErrorKind{
		"", ErrDeployNotFound, "", "", "", ErrCooldownActive, ErrSupplyExceeded,
		ErrDuplicateInscription, "", "", ErrMalformedInput, "",
	}, kinds)
	assert.Equal(t, []string{"ALT", "TINY", "UNQ"}, ledger.Tickers())
	assert.Equal(t, "60", ledger.TotalMinted("TINY").String())
	assert.Equal(t, "110", ledger.TotalMinted("UNQ").String())
}

func TestReplayShardedMatchesSequential(t *testing.T) {
	ops := mixedLog()
	sequential, seqLedger, err := Replay(context.Background(), DefaultConfig(), ops)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			sharded, ledger, err := ReplaySharded(context.Background(), DefaultConfig(), ops, workers)
			require.NoError(t, err)
			assert.Equal(t, viewResults(sequential), viewResults(sharded))

			want, err := json.Marshal(seqLedger.Snapshot())
			require.NoError(t, err)
			got, err := json.Marshal(ledger.Snapshot())
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
		})
	}
}

func TestShardOperations(t *testing.T) {
	shards := shardOperations(mixedLog())

	// UNQ and TINY share inscription "m0", ALT and the malformed op stand alone
	assert.Equal(t, [][]int{
		{10},
		{9},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 11},
	}, shards)
}

func TestReplayCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Replay(ctx, DefaultConfig(), mixedLog())
	assert.ErrorIs(t, err, context.Canceled)
}
