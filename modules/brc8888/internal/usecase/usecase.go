package usecase

import (
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
)

// LedgerReader gives read access to the live ledger of the processor.
type LedgerReader interface {
	// View calls fn with the ledger under a read lock. fn must not retain it.
	View(fn func(ledger *brc8888.Ledger) error) error
	CurrentState() (sequence uint64, cumulativeEventHash []byte)
}

type Usecase struct {
	dg     datagateway.BRC8888ReaderDataGateway
	ledger LedgerReader
}

func New(dg datagateway.BRC8888ReaderDataGateway, ledger LedgerReader) *Usecase {
	return &Usecase{
		dg:     dg,
		ledger: ledger,
	}
}
