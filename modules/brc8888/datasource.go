package brc8888

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/core/indexer"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/oplog"
)

// Make sure to implement the indexer Datasource interface
var _ indexer.Datasource[*oplog.Record] = (*OperationLogDatasource)(nil)

// OperationLogDatasource feeds the processor from an append-only JSON-lines operation log.
// A missing file is treated as an empty log.
type OperationLogDatasource struct {
	path    string
	network common.Network
}

func NewOperationLogDatasource(path string, network common.Network) *OperationLogDatasource {
	return &OperationLogDatasource{
		path:    path,
		network: network,
	}
}

func (d *OperationLogDatasource) Name() string {
	return "operation_log"
}

// Fetch implements indexer.Datasource.
func (d *OperationLogDatasource) Fetch(ctx context.Context, from uint64, limit int) ([]*oplog.Record, error) {
	records, err := oplog.ReadFile(ctx, d.path, d.network, from, limit)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return records, nil
}

// Head implements indexer.Datasource.
func (d *OperationLogDatasource) Head(ctx context.Context) (uint64, error) {
	head, err := oplog.Count(ctx, d.path)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return 0, nil
		}
		return 0, errors.WithStack(err)
	}
	return head, nil
}
