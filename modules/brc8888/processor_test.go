package brc8888

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	brc8888config "github.com/gaze-network/brc8888-indexer/modules/brc8888/config"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/oplog"
	brc8888badger "github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/repository/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)

// testRecords deploys TINY with a supply of 100, mints 10 to four minters
// and ends with a mint over the remaining supply.
func testRecords() []*oplog.Record {
	ops := []*brc8888.Operation{
		{
			Kind:          brc8888.OperationDeploy,
			InscriptionId: "tinyi0",
			Inscriber:     "bc1pdeployer",
			BlockHeight:   925_000,
			Timestamp:     testTime,
			Tx:            brc8888.TxView{TxHash: "deploytx"},
			Content:       []byte(`{"tick":"TINY","supply":"100"}`),
		},
	}
	for i := 0; i < 4; i++ {
		ops = append(ops, testMint(fmt.Sprintf("m%d", i), fmt.Sprintf("bc1pminter%d", i), 10))
	}
	ops = append(ops, testMint("m4", "bc1pwhale", 100))

	records := make([]*oplog.Record, 0, len(ops))
	for i, op := range ops {
		records = append(records, &oplog.Record{Sequence: uint64(i + 1), Operation: op})
	}
	return records
}

func testMint(id, minter string, qty uint64) *brc8888.Operation {
	return &brc8888.Operation{
		Kind:          brc8888.OperationMint,
		InscriptionId: id,
		Inscriber:     minter,
		BlockHeight:   925_010,
		Timestamp:     testTime,
		Content:       []byte(fmt.Sprintf(`{"tick":"TINY","qty":"%d"}`, qty)),
	}
}

func newTestProcessor(t *testing.T, repo *brc8888badger.Repository, checkpointInterval uint64) *Processor {
	t.Helper()
	p := NewProcessor(repo, repo, brc8888.DefaultConfig(), common.NetworkMainnet, checkpointInterval, nil)
	require.NoError(t, p.VerifyStates(context.Background()))
	return p
}

func newTestRepository(t *testing.T) *brc8888badger.Repository {
	t.Helper()
	db, err := brc8888badger.Open(brc8888badger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return brc8888badger.NewRepository(db)
}

func totalMinted(t *testing.T, p *Processor, tick string) string {
	t.Helper()
	var total string
	require.NoError(t, p.View(func(ledger *brc8888.Ledger) error {
		total = ledger.TotalMinted(tick).String()
		return nil
	}))
	return total
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	p := newTestProcessor(t, repo, 2)

	require.NoError(t, p.Process(ctx, testRecords()))

	cursor, err := p.CurrentCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), cursor)
	assert.Equal(t, "40", totalMinted(t, p, "TINY"))

	latest, err := repo.GetLatestEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), latest.Sequence)
	assert.False(t, latest.Valid)
	assert.Equal(t, string(brc8888.ErrSupplyExceeded), latest.Kind)

	_, cumulative := p.CurrentState()
	assert.Equal(t, latest.CumulativeEventHash, cumulative)

	checkpoint, err := repo.GetLatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), checkpoint.Sequence)
	assert.Equal(t, cumulative, checkpoint.CumulativeEventHash)

	// already processed records are skipped
	require.NoError(t, p.Process(ctx, testRecords()[4:]))
	cursor, err = p.CurrentCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), cursor)
}

func TestProcessGap(t *testing.T) {
	p := newTestProcessor(t, newTestRepository(t), 2)
	err := p.Process(context.Background(), testRecords()[1:])
	assert.True(t, errors.Is(err, errs.InternalError))
}

func TestProcessEventChain(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	p := newTestProcessor(t, repo, 100)
	require.NoError(t, p.Process(ctx, testRecords()))

	events, err := repo.GetEvents(ctx, "", 1, 100)
	require.NoError(t, err)
	require.Len(t, events, 6)
	assert.Equal(t, events[0].EventHash, events[0].CumulativeEventHash)
	for i := 1; i < len(events); i++ {
		assert.NotEqual(t, events[i-1].CumulativeEventHash, events[i].CumulativeEventHash)
	}
	assert.Equal(t, "bc1pminter0", events[1].Address)
	assert.Equal(t, "10", events[1].Amount.String())
	assert.Equal(t, "100", events[0].Amount.String())
}

func TestVerifyStatesRestoresCheckpoint(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	records := testRecords()

	p := newTestProcessor(t, repo, 4)
	require.NoError(t, p.Process(ctx, records))
	_, want := p.CurrentState()

	// restart: events 5 and 6 were never checkpointed and are re-derived
	restarted := newTestProcessor(t, repo, 4)
	cursor, err := restarted.CurrentCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cursor)
	assert.Equal(t, "30", totalMinted(t, restarted, "TINY"))

	latest, err := repo.GetLatestEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), latest.Sequence)

	require.NoError(t, restarted.Process(ctx, records[cursor:]))
	_, got := restarted.CurrentState()
	assert.Equal(t, want, got)
	assert.Equal(t, "40", totalMinted(t, restarted, "TINY"))
}

func TestRevertData(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	records := testRecords()

	p := newTestProcessor(t, repo, 2)
	require.NoError(t, p.Process(ctx, records))
	_, want := p.CurrentState()

	require.NoError(t, p.RevertData(ctx, 4))
	cursor, err := p.CurrentCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cursor)
	assert.Equal(t, "10", totalMinted(t, p, "TINY"))

	checkpoint, err := repo.GetLatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), checkpoint.Sequence)

	require.NoError(t, p.Process(ctx, records[cursor:]))
	_, got := p.CurrentState()
	assert.Equal(t, want, got)
}

func TestRevertDataToEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	p := newTestProcessor(t, repo, 2)
	require.NoError(t, p.Process(ctx, testRecords()))
	require.NoError(t, p.RevertData(ctx, 1))

	sequence, cumulative := p.CurrentState()
	assert.Zero(t, sequence)
	assert.Empty(t, cumulative)
	_, err := repo.GetLatestEvent(ctx)
	assert.True(t, errors.Is(err, errs.NotFound))
}

type mockIndexerInfoDataGateway struct {
	mock.Mock
}

func (m *mockIndexerInfoDataGateway) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.IndexerState), args.Error(1)
}

func (m *mockIndexerInfoDataGateway) CreateIndexerState(ctx context.Context, state entity.IndexerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func TestVerifyStatesConflict(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	testCases := []struct {
		name  string
		state entity.IndexerState
	}{
		{
			name:  "network",
			state: entity.IndexerState{DBVersion: DBVersion, EventHashVersion: EventHashVersion, Network: common.NetworkTestnet},
		},
		{
			name:  "db version",
			state: entity.IndexerState{DBVersion: DBVersion + 1, EventHashVersion: EventHashVersion, Network: common.NetworkMainnet},
		},
		{
			name:  "event hash version",
			state: entity.IndexerState{DBVersion: DBVersion, EventHashVersion: EventHashVersion + 1, Network: common.NetworkMainnet},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			infoDg := &mockIndexerInfoDataGateway{}
			infoDg.On("GetLatestIndexerState", mock.Anything).Return(tc.state, nil)

			p := NewProcessor(repo, infoDg, brc8888.DefaultConfig(), common.NetworkMainnet, 2, nil)
			err := p.VerifyStates(ctx)
			assert.True(t, errors.Is(err, errs.ConflictSetting))
			infoDg.AssertNotCalled(t, "CreateIndexerState", mock.Anything, mock.Anything)
		})
	}
}

func TestVerifyStatesCreatesIndexerState(t *testing.T) {
	infoDg := &mockIndexerInfoDataGateway{}
	infoDg.On("GetLatestIndexerState", mock.Anything).Return(entity.IndexerState{}, errors.WithStack(errs.NotFound))
	infoDg.On("CreateIndexerState", mock.Anything, mock.MatchedBy(func(state entity.IndexerState) bool {
		return state.Network == common.NetworkMainnet && state.DBVersion == DBVersion && state.ClientVersion == ClientVersion
	})).Return(nil)

	p := NewProcessor(newTestRepository(t), infoDg, brc8888.DefaultConfig(), common.NetworkMainnet, 2, nil)
	require.NoError(t, p.VerifyStates(context.Background()))
	infoDg.AssertExpectations(t)
}

const testLog = `{"inscription_id":"tinyi0","op":"deploy","inscriber":"bc1pdeployer","block_height":925000,"content":{"tick":"TINY","supply":"100"},"tx":{"txid":"0000000000000000000000000000000000000000000000000000000000000001","outputs":[]}}
{"inscription_id":"m0","op":"mint","inscriber":"bc1pminter0","block_height":925010,"content":{"tick":"TINY","qty":"60"}}
{"inscription_id":"m1","op":"mint","inscriber":"bc1pminter1","block_height":925010,"content":{"tick":"TINY","qty":"60"}}
{"inscription_id":"m2","op":"mint","inscriber":"bc1pminter2","block_height":925010,"content":{"tick":"NOPE","qty":"1"}}
`

func TestOperationLogDatasource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "operations.jsonl")
	datasource := NewOperationLogDatasource(path, common.NetworkMainnet)

	// a missing log is empty
	head, err := datasource.Head(ctx)
	require.NoError(t, err)
	assert.Zero(t, head)

	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o600))
	head, err = datasource.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), head)

	records, err := datasource.Fetch(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2), records[0].Cursor())
	assert.Equal(t, "m1", records[1].Operation.InscriptionId)
}

func TestReplayFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "operations.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o600))

	report, err := ReplayFile(ctx, path, common.NetworkMainnet, brc8888config.Config{}, 1, true)
	require.NoError(t, err)
	require.Len(t, report.Operations, 4)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 2, report.Rejected)
	assert.Equal(t, string(brc8888.ErrSupplyExceeded), report.Operations[2].Kind)
	assert.Equal(t, string(brc8888.ErrDeployNotFound), report.Operations[3].Kind)
	assert.Len(t, report.Operations[0].EventHash, 64)
	require.NotNil(t, report.State)
	assert.Equal(t, "60", report.State.Ticks["TINY"].TotalMinted)

	sharded, err := ReplayFile(ctx, path, common.NetworkMainnet, brc8888config.Config{}, 4, false)
	require.NoError(t, err)
	assert.Equal(t, report.Operations, sharded.Operations)
	assert.Equal(t, report.CumulativeEventHash, sharded.CumulativeEventHash)
	assert.Nil(t, sharded.State)

	// the replayed hash chain matches the one the processor persists
	records, err := oplog.ReadFile(ctx, path, common.NetworkMainnet, 1, 0)
	require.NoError(t, err)
	p := newTestProcessor(t, newTestRepository(t), 100)
	require.NoError(t, p.Process(ctx, records))
	_, cumulative := p.CurrentState()
	assert.Equal(t, report.CumulativeEventHash, fmt.Sprintf("%x", cumulative))
}
