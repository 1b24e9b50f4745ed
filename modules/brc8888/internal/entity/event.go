package entity

import (
	"time"

	"github.com/gaze-network/uint128"
)

// Event is the recorded outcome of one operation of the log.
type Event struct {
	Sequence      uint64
	InscriptionId string
	Op            string
	Tick          string
	Valid         bool
	Kind          string // rejection kind, empty when valid
	Reason        string
	Address       string // minter for mints, deployer for deploys, inscriber for evolves
	Amount        uint128.Uint128
	BlockHeight   uint64
	TxHash        string

	EventHash           []byte
	CumulativeEventHash []byte
	CreatedAt           time.Time
}
