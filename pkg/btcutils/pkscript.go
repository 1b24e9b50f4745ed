package btcutils

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
)

// PkScriptToAddress returns the address from the given pkScript. Non-standard,
// multisig and OP_RETURN scripts have no single address and return an error.
func PkScriptToAddress(pkScript []byte, network common.Network) (string, error) {
	if len(pkScript) > 0 && pkScript[0] == txscript.OP_RETURN {
		return "", errors.Wrap(errs.Unsupported, "OP_RETURN script")
	}
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, network.ChainParams())
	if err != nil {
		return "", errors.Wrap(err, "error extracting addresses from pkscript")
	}
	if len(addrs) != 1 {
		return "", errors.Wrapf(errs.Unsupported, "pkscript has %d addresses", len(addrs))
	}
	return addrs[0].EncodeAddress(), nil
}

// IsAddress reports whether address decodes for network.
func IsAddress(address string, network common.Network) bool {
	params := network.ChainParams()
	if address == "" || params == nil {
		return false
	}
	decoded, err := btcutil.DecodeAddress(address, params)
	return err == nil && decoded.IsForNet(params)
}
