package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/uint128"
)

type Balance struct {
	Tick          string
	Balance       uint128.Uint128
	Minted        uint128.Uint128
	LastMintBlock uint64
}

// GetBalancesByAddress returns every non-zero balance of address, by tick.
func (u *Usecase) GetBalancesByAddress(_ context.Context, address string) ([]Balance, error) {
	var balances []Balance
	err := u.ledger.View(func(ledger *brc8888.Ledger) error {
		for _, tick := range ledger.Tickers() {
			balance := ledger.Balance(tick, address)
			if balance.IsZero() {
				continue
			}
			lastMint, _ := ledger.LastMintBlock(tick, address)
			balances = append(balances, Balance{
				Tick:          tick,
				Balance:       balance,
				Minted:        ledger.MintedBy(tick, address),
				LastMintBlock: lastMint,
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return balances, nil
}
