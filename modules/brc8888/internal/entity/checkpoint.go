package entity

import "time"

// Checkpoint is a persisted ledger snapshot taken after the operation at Sequence.
type Checkpoint struct {
	Sequence            uint64
	BlockHeight         uint64
	CumulativeEventHash []byte
	Snapshot            []byte // JSON encoded brc8888.LedgerSnapshot
	CreatedAt           time.Time
}
