package usecase

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/uint128"
)

type TokenInfo struct {
	Deploy       *brc8888.Deploy
	TotalMinted  uint128.Uint128
	HolderCount  int
	LineageDepth int
	LineageHead  string
	// CurrentPrice is the phase price of the next unit, unset when no phase covers it.
	CurrentPrice *uint128.Uint128
}

func (u *Usecase) GetToken(_ context.Context, tick string) (*TokenInfo, error) {
	var info *TokenInfo
	err := u.ledger.View(func(ledger *brc8888.Ledger) error {
		deploy, ok := ledger.DeployByTick(tick)
		if !ok {
			return errors.Wrapf(errs.NotFound, "tick %q", tick)
		}
		head, _ := ledger.LineageHead(tick)
		info = &TokenInfo{
			Deploy:       deploy,
			TotalMinted:  ledger.TotalMinted(tick),
			HolderCount:  len(ledger.Holders(tick)),
			LineageDepth: len(ledger.Lineage(tick)),
			LineageHead:  head,
		}
		if price, ok := brc8888.PriceAt(deploy.Rules.Phases, info.TotalMinted); ok {
			info.CurrentPrice = &price
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return info, nil
}

func (u *Usecase) GetTokens(_ context.Context) ([]*TokenInfo, error) {
	var infos []*TokenInfo
	err := u.ledger.View(func(ledger *brc8888.Ledger) error {
		for _, tick := range ledger.Tickers() {
			deploy, _ := ledger.DeployByTick(tick)
			head, _ := ledger.LineageHead(tick)
			infos = append(infos, &TokenInfo{
				Deploy:       deploy,
				TotalMinted:  ledger.TotalMinted(tick),
				HolderCount:  len(ledger.Holders(tick)),
				LineageDepth: len(ledger.Lineage(tick)),
				LineageHead:  head,
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return infos, nil
}

type Holding struct {
	Address string
	Balance uint128.Uint128
	Minted  uint128.Uint128
}

// GetHolders returns the holders of tick by balance, largest first.
func (u *Usecase) GetHolders(_ context.Context, tick string) ([]Holding, error) {
	var holdings []Holding
	err := u.ledger.View(func(ledger *brc8888.Ledger) error {
		if _, ok := ledger.DeployByTick(tick); !ok {
			return errors.Wrapf(errs.NotFound, "tick %q", tick)
		}
		for address, balance := range ledger.Holders(tick) {
			holdings = append(holdings, Holding{
				Address: address,
				Balance: balance,
				Minted:  ledger.MintedBy(tick, address),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	slices.SortFunc(holdings, func(a, b Holding) int {
		if c := b.Balance.Cmp(a.Balance); c != 0 {
			return c
		}
		return strings.Compare(a.Address, b.Address)
	})
	return holdings, nil
}

func (u *Usecase) GetLineage(_ context.Context, tick string) ([]brc8888.LineageEntry, error) {
	var lineage []brc8888.LineageEntry
	err := u.ledger.View(func(ledger *brc8888.Ledger) error {
		if _, ok := ledger.DeployByTick(tick); !ok {
			return errors.Wrapf(errs.NotFound, "tick %q", tick)
		}
		lineage = ledger.Lineage(tick)
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return lineage, nil
}
