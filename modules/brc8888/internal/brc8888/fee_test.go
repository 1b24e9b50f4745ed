package brc8888

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	creatorAddr  = "bc1pcreator"
	protocolAddr = "bc1pprotocol"
	reserveAddr  = "bc1p8px4vg2c4w79smuwts8s49xxzt6r8mlk9nyyf3jxa767flyhdres0xkz5c"
)

func txPaying(outputs ...TxOutput) TxView {
	return TxView{TxHash: "f00d", Outputs: outputs}
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, uint128.From64(2100), PercentOf(uint128.From64(210_000), 1))
	assert.Equal(t, uint128.From64(0), PercentOf(uint128.From64(99), 1), "floor")
	assert.Equal(t, uint128.From64(33), PercentOf(uint128.From64(333), 10))
	assert.Equal(t, uint128.Max, PercentOf(uint128.Max, 100))
	assert.True(t, PercentOf(uint128.Max, 0).IsZero())
}

func TestSumToAddress(t *testing.T) {
	tx := txPaying(
		TxOutput{Address: reserveAddr, Sats: 100},
		TxOutput{Address: "bc1pother", Sats: 5},
		TxOutput{Address: reserveAddr, Sats: 50},
		TxOutput{Address: "", Sats: 7},
	)
	assert.Equal(t, uint128.From64(150), tx.SumToAddress(reserveAddr))
	assert.True(t, tx.SumToAddress("BC1P8PX4VG2C4W79SMUWTS8S49XXZT6R8MLK9NYYF3JXA767FLYHDRES0XKZ5C").IsZero(), "exact match only")
	assert.True(t, tx.SumToAddress("").IsZero())
	assert.Equal(t, uint128.From64(12), tx.SumExcept(reserveAddr))
}

func TestVerifyDeployFee(t *testing.T) {
	fees := FeeConfig{
		DeployCreationFeeSats: uint128.From64(10_050),
		ProtocolFeePercent:    1,
		CreatorFeeAddress:     creatorAddr,
		ProtocolFeeAddress:    protocolAddr,
	}

	t.Run("genesis is exempt", func(t *testing.T) {
		breakdown, err := VerifyDeployFee(TxView{}, fees, true, DefaultProtocolTreasury)
		require.NoError(t, err)
		assert.True(t, breakdown.CreationFee.IsZero())
	})
	t.Run("paid", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: creatorAddr, Sats: 10_050}, TxOutput{Address: protocolAddr, Sats: 100})
		breakdown, err := VerifyDeployFee(tx, fees, false, DefaultProtocolTreasury)
		require.NoError(t, err)
		assert.Equal(t, uint128.From64(100), breakdown.ProtocolShare, "floor(10050 * 1 / 100)")
	})
	t.Run("creation fee short", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: creatorAddr, Sats: 10_049}, TxOutput{Address: protocolAddr, Sats: 100})
		_, err := VerifyDeployFee(tx, fees, false, DefaultProtocolTreasury)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientFee))

		var shortfall *FeeShortfall
		require.True(t, errors.As(err, &shortfall))
		assert.Equal(t, creatorAddr, shortfall.Address)
		assert.Equal(t, uint128.From64(10_050), shortfall.Required)
		assert.Equal(t, uint128.From64(10_049), shortfall.Paid)
	})
	t.Run("protocol share short", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: creatorAddr, Sats: 10_050}, TxOutput{Address: protocolAddr, Sats: 99})
		_, err := VerifyDeployFee(tx, fees, false, DefaultProtocolTreasury)
		assert.True(t, errors.Is(err, ErrInsufficientFee))
	})
	t.Run("protocol address falls back to treasury", func(t *testing.T) {
		fees := fees
		fees.ProtocolFeeAddress = ""
		tx := txPaying(TxOutput{Address: creatorAddr, Sats: 10_050}, TxOutput{Address: DefaultProtocolTreasury, Sats: 100})
		breakdown, err := VerifyDeployFee(tx, fees, false, DefaultProtocolTreasury)
		require.NoError(t, err)
		assert.Equal(t, DefaultProtocolTreasury, breakdown.ProtocolAddress)
	})
	t.Run("no creator address", func(t *testing.T) {
		fees := fees
		fees.CreatorFeeAddress = ""
		tx := txPaying(TxOutput{Address: creatorAddr, Sats: 10_050}, TxOutput{Address: protocolAddr, Sats: 100})
		_, err := VerifyDeployFee(tx, fees, false, DefaultProtocolTreasury)
		assert.True(t, errors.Is(err, ErrInsufficientFee))
	})
}

func TestVerifyMintFee(t *testing.T) {
	fees := FeeConfig{ProtocolFeePercent: 1, ReserveAddress: reserveAddr}

	t.Run("phased cost paid", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: reserveAddr, Sats: 210_000}, TxOutput{Address: DefaultProtocolTreasury, Sats: 2100})
		breakdown, err := VerifyMintFee(tx, fees, unqPhases, uint128.From64(100), uint128.Zero, DefaultProtocolTreasury)
		require.NoError(t, err)
		assert.Equal(t, uint128.From64(210_000), breakdown.PhasedCost)
		assert.Equal(t, uint128.From64(2100), breakdown.ProtocolShare)
		assert.Equal(t, reserveAddr, breakdown.ReserveAddress)
		assert.Equal(t, DefaultProtocolTreasury, breakdown.ProtocolAddress)
	})
	t.Run("reserve short", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: reserveAddr, Sats: 200_000}, TxOutput{Address: DefaultProtocolTreasury, Sats: 2100})
		_, err := VerifyMintFee(tx, fees, unqPhases, uint128.From64(100), uint128.Zero, DefaultProtocolTreasury)
		assert.True(t, errors.Is(err, ErrInsufficientFee))
	})
	t.Run("protocol share short", func(t *testing.T) {
		tx := txPaying(TxOutput{Address: reserveAddr, Sats: 210_000}, TxOutput{Address: DefaultProtocolTreasury, Sats: 2099})
		_, err := VerifyMintFee(tx, fees, unqPhases, uint128.From64(100), uint128.Zero, DefaultProtocolTreasury)
		assert.True(t, errors.Is(err, ErrInsufficientFee))
	})
	t.Run("unpriced mint is free", func(t *testing.T) {
		breakdown, err := VerifyMintFee(TxView{}, fees, nil, uint128.From64(100), uint128.Zero, DefaultProtocolTreasury)
		require.NoError(t, err)
		assert.True(t, breakdown.PhasedCost.IsZero())
		assert.True(t, breakdown.ProtocolShare.IsZero())
	})
	t.Run("gap is not free", func(t *testing.T) {
		phases := []Phase{phase(0, 10, 100), phase(11, 20, 100)}
		_, err := VerifyMintFee(TxView{}, fees, phases, uint128.From64(5), uint128.From64(8), DefaultProtocolTreasury)
		assert.True(t, errors.Is(err, ErrNoValidPhase))
	})
}

func TestVerifyEvolveFee(t *testing.T) {
	fees := EvolveFees{ProtocolFeePercent: 10, FeeAddress: protocolAddr}

	tx := txPaying(TxOutput{Address: "bc1pholder", Sats: 546}, TxOutput{Address: "bc1pchange", Sats: 9_454}, TxOutput{Address: protocolAddr, Sats: 1_000})
	breakdown, err := VerifyEvolveFee(tx, fees, DefaultProtocolTreasury)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(10_000), breakdown.TransferredValue)
	assert.Equal(t, uint128.From64(1_000), breakdown.ProtocolShare)

	tx.Outputs[2].Sats = 999
	_, err = VerifyEvolveFee(tx, fees, DefaultProtocolTreasury)
	assert.True(t, errors.Is(err, ErrInsufficientFee))

	_, err = VerifyEvolveFee(tx, EvolveFees{}, DefaultProtocolTreasury)
	assert.NoError(t, err, "no fee block requires nothing")
}
