// Package addressresolver provides the AddressResolver implementations used to
// derive the reserve and treasury of reduced-payload deploys from the deploy
// transaction: output 0 pays the reserve, output 1 the treasury.
package addressresolver

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
)

type (
	DerivedAddresses = brc8888.DerivedAddresses
	AddressResolver  = brc8888.AddressResolver
)

func derive(txHash string, addresses []string) (DerivedAddresses, error) {
	if len(addresses) == 0 || addresses[0] == "" {
		return DerivedAddresses{}, errors.Wrapf(errs.NotFound, "tx %s has no reserve output", txHash)
	}
	derived := DerivedAddresses{Reserve: addresses[0]}
	if len(addresses) > 1 {
		derived.Treasury = addresses[1]
	}
	return derived, nil
}
