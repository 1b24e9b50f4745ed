// Package oplog reads recorded BRC-8888 operations from a JSON lines log.
//
// Each non-empty line is one operation:
//
//	{"inscription_id": "...", "op": "mint", "inscriber": "bc1p...", "block_height": 925002,
//	 "timestamp": "2025-11-18T00:00:00Z", "content": {...},
//	 "tx": {"txid": "...", "outputs": [{"address": "bc1p...", "sats": 210000}]}}
//
// "raw_tx" may replace "tx" with the hex serialized transaction, its outputs are
// then resolved to addresses for the configured network. Lines starting with
// '#' are comments. Sequences count operations from 1 and ignore comments.
package oplog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/pkg/btcutils"
	"github.com/samber/lo"
)

const maxLineSize = 16 << 20

// Record is an operation and its position in the log.
type Record struct {
	Sequence  uint64
	Operation *brc8888.Operation
}

func (r *Record) Cursor() uint64 {
	return r.Sequence
}

type rawOperation struct {
	Op            string          `json:"op"`
	InscriptionId string          `json:"inscription_id"`
	Inscriber     string          `json:"inscriber"`
	BlockHeight   uint64          `json:"block_height"`
	Timestamp     json.RawMessage `json:"timestamp"`
	Content       json.RawMessage `json:"content"`
	Tx            *brc8888.TxView `json:"tx"`
	RawTx         string          `json:"raw_tx"`
}

// DecodeOperation decodes one log line.
func DecodeOperation(line []byte, network common.Network) (*brc8888.Operation, error) {
	var raw rawOperation
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errs.InvalidArgument), "invalid operation json")
	}

	op := &brc8888.Operation{
		Kind:          brc8888.OperationKind(raw.Op),
		InscriptionId: raw.InscriptionId,
		Inscriber:     raw.Inscriber,
		BlockHeight:   raw.BlockHeight,
	}
	if len(raw.Timestamp) > 0 && string(raw.Timestamp) != "null" {
		timestamp, err := brc8888.ParseTimestamp(raw.Timestamp)
		if err != nil {
			return nil, errors.Wrap(errors.Mark(err, errs.InvalidArgument), "invalid timestamp")
		}
		op.Timestamp = timestamp
	}

	// content is usually the payload object, inscriptions recorded as text carry it as a string
	content := bytes.TrimSpace(raw.Content)
	if len(content) > 0 && content[0] == '"' {
		var text string
		if err := json.Unmarshal(content, &text); err != nil {
			return nil, errors.Wrap(errors.Mark(err, errs.InvalidArgument), "invalid content string")
		}
		content = []byte(text)
	}
	op.Content = content

	switch {
	case raw.RawTx != "":
		msgTx, err := btcutils.DecodeRawTx(raw.RawTx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		op.Tx = brc8888.TxView{
			TxHash: msgTx.TxHash().String(),
			Outputs: lo.Map(btcutils.TxOutputs(msgTx, network), func(out btcutils.TxOut, _ int) brc8888.TxOutput {
				return brc8888.TxOutput{Address: out.Address, Sats: uint64(max(out.Value, 0))}
			}),
		}
	case raw.Tx != nil:
		if raw.Tx.TxHash != "" {
			if _, err := chainhash.NewHashFromStr(raw.Tx.TxHash); err != nil {
				return nil, errors.Wrapf(errs.InvalidArgument, "invalid txid %q", raw.Tx.TxHash)
			}
		}
		op.Tx = *raw.Tx
	}
	return op, nil
}

// Read decodes every operation of r with a sequence of at least from, up to
// limit records. A limit of zero reads to the end.
func Read(ctx context.Context, r io.Reader, network common.Network, from uint64, limit int) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		records  []*Record
		sequence uint64
		line     int
	)
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		sequence++
		if sequence < from {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		op, err := DecodeOperation(text, network)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, &Record{Sequence: sequence, Operation: op})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read operation log")
	}
	return records, nil
}

// ReadFile is Read over the file at path.
func ReadFile(ctx context.Context, path string, network common.Network, from uint64, limit int) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(errs.NotFound, "operation log %s", path)
		}
		return nil, errors.Wrap(err, "failed to open operation log")
	}
	defer f.Close()

	records, err := Read(ctx, f, network, from, limit)
	return records, errors.WithStack(err)
}

// Count returns the number of operations in the file at path, the sequence of its last record.
func Count(ctx context.Context, path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, errors.Wrapf(errs.NotFound, "operation log %s", path)
		}
		return 0, errors.Wrap(err, "failed to open operation log")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var count uint64
	for scanner.Scan() {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		count++
		if count%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, errors.WithStack(err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrap(err, "failed to read operation log")
	}
	return count, nil
}
