package brc8888

import "time"

// Operation is one inscription of the protocol as observed in the
// transaction log, with everything the validator needs already resolved.
type Operation struct {
	// Kind is optional when Content carries an "op" field.
	Kind          OperationKind
	InscriptionId string
	Inscriber     string
	BlockHeight   uint64
	Timestamp     time.Time
	Tx            TxView
	Content       []byte
}

// Tick returns the ticker named by the operation's payload, or "" if the
// payload does not name one.
func (op *Operation) Tick() string {
	return PeekTick(op.Content)
}
