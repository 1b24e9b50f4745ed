package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	badgerrepo "github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/repository/badger"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/usecase"
	"github.com/gaze-network/brc8888-indexer/pkg/errorhandler"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	holderA = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	holderB = "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0"
	root    = "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
)

type staticLedger struct {
	ledger   *brc8888.Ledger
	sequence uint64
	hash     []byte
}

func (s staticLedger) View(fn func(ledger *brc8888.Ledger) error) error {
	return fn(s.ledger)
}

func (s staticLedger) CurrentState() (uint64, []byte) {
	return s.sequence, s.hash
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	ops := []*brc8888.Operation{
		{InscriptionId: "tinyi0", Inscriber: holderA, BlockHeight: 1, Content: []byte(`{"op":"deploy","tick":"TINY","supply":"1000","mint_rules":{"phases":[{"start_minted":"0","end_minted":"1000","price_sats":0}]}}`)},
		{InscriptionId: "m0", Inscriber: holderA, BlockHeight: 2, Content: []byte(`{"op":"mint","tick":"TINY","qty":"100"}`)},
		{InscriptionId: "m1", Inscriber: holderB, BlockHeight: 3, Content: []byte(`{"op":"mint","tick":"TINY","qty":"300"}`)},
		{InscriptionId: "e0", Inscriber: holderA, BlockHeight: 4, Content: []byte(`{"op":"evolve","tick":"TINY","ref":"tinyi0","merkle_root":"` + root + `"}`)},
	}
	_, ledger, err := brc8888.Replay(ctx, brc8888.DefaultConfig(), ops)
	require.NoError(t, err)

	db, err := badgerrepo.Open(badgerrepo.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := badgerrepo.NewRepository(db)
	require.NoError(t, repo.CreateEvents(ctx, []*entity.Event{
		{Sequence: 1, InscriptionId: "tinyi0", Op: "deploy", Tick: "TINY", Valid: true, Address: holderA, Amount: uint128.From64(1000), EventHash: []byte{1}, CumulativeEventHash: []byte{1}},
		{Sequence: 2, InscriptionId: "m0", Op: "mint", Tick: "TINY", Valid: true, Address: holderA, Amount: uint128.From64(100), EventHash: []byte{2}, CumulativeEventHash: []byte{2}},
		{Sequence: 3, InscriptionId: "m1", Op: "mint", Tick: "TINY", Valid: true, Address: holderB, Amount: uint128.From64(300), EventHash: []byte{3}, CumulativeEventHash: []byte{3}},
		{Sequence: 4, InscriptionId: "e0", Op: "evolve", Tick: "TINY", Valid: true, Address: holderA, Amount: uint128.Zero, EventHash: []byte{4}, CumulativeEventHash: []byte{4}},
	}))

	uc := usecase.New(repo, staticLedger{ledger: ledger, sequence: 4, hash: []byte{0xab, 0xcd}})
	app := fiber.New(fiber.Config{ErrorHandler: errorhandler.NewHTTPErrorHandler()})
	require.NoError(t, New(common.NetworkMainnet, uc).Mount(app))
	return app
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestGetTokenInfo(t *testing.T) {
	app := newTestApp(t)

	var resp getTokenInfoResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/tokens/TINY", &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, "TINY", resp.Result.Tick)
	assert.Equal(t, "1000", resp.Result.Supply)
	assert.Equal(t, "400", resp.Result.TotalMinted)
	assert.Equal(t, 2, resp.Result.HolderCount)
	assert.Equal(t, 1, resp.Result.LineageDepth)
	assert.Equal(t, "e0", resp.Result.LineageHead)
	require.Len(t, resp.Result.Phases, 1)
	require.NotNil(t, resp.Result.CurrentPrice)
	assert.Equal(t, "0", *resp.Result.CurrentPrice)

	assert.Equal(t, http.StatusNotFound, get(t, app, "/v1/brc8888/tokens/NOPE", nil))

	var list getTokensResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/tokens", &list))
	require.Len(t, list.Result.List, 1)
}

func TestGetHolders(t *testing.T) {
	app := newTestApp(t)

	var resp getHoldersResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/tokens/TINY/holders", &resp))
	require.Len(t, resp.Result.List, 2)
	assert.Equal(t, holderB, resp.Result.List[0].Address)
	assert.Equal(t, "300", resp.Result.List[0].Amount)
	assert.InDelta(t, 0.3, resp.Result.List[0].Percent, 1e-9)
	assert.Equal(t, holderA, resp.Result.List[1].Address)
}

func TestGetLineage(t *testing.T) {
	app := newTestApp(t)

	var resp getLineageResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/tokens/TINY/lineage", &resp))
	require.Len(t, resp.Result.List, 1)
	assert.Equal(t, "tinyi0", resp.Result.List[0].Ref)
	assert.Equal(t, root, resp.Result.List[0].MerkleRoot)
}

func TestGetBalances(t *testing.T) {
	app := newTestApp(t)

	var resp getBalancesResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/balances/"+holderA, &resp))
	require.Len(t, resp.Result.List, 1)
	assert.Equal(t, balance{Tick: "TINY", Amount: "100", Minted: "100", LastMintBlock: 2}, resp.Result.List[0])

	var errResp getBalancesResponse
	assert.Equal(t, http.StatusBadRequest, get(t, app, "/v1/brc8888/balances/not-an-address", &errResp))
	require.NotNil(t, errResp.Error)
	assert.Contains(t, *errResp.Error, "validation error")
}

func TestGetEvents(t *testing.T) {
	app := newTestApp(t)

	var resp getEventsResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/events?from=2&limit=2", &resp))
	require.Len(t, resp.Result.List, 2)
	assert.Equal(t, uint64(2), resp.Result.List[0].Sequence)
	assert.Equal(t, "02", resp.Result.List[0].EventHash)
	assert.Equal(t, uint64(4), resp.Result.Next)

	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/events?from=4", &resp))
	require.Len(t, resp.Result.List, 1)
	assert.Zero(t, resp.Result.Next)

	assert.Equal(t, http.StatusBadRequest, get(t, app, "/v1/brc8888/events?limit=5000", nil))

	var eventResp getEventResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/events/m1", &eventResp))
	assert.Equal(t, "300", eventResp.Result.Amount)
	assert.Equal(t, http.StatusNotFound, get(t, app, "/v1/brc8888/events/unknown", nil))
}

func TestGetState(t *testing.T) {
	app := newTestApp(t)

	var resp getStateResponse
	require.Equal(t, http.StatusOK, get(t, app, "/v1/brc8888/state", &resp))
	assert.Equal(t, getStateResult{
		Network:             common.NetworkMainnet,
		Sequence:            4,
		CumulativeEventHash: "abcd",
		TickerCount:         1,
	}, *resp.Result)
}
