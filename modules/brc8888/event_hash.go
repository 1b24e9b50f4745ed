package brc8888

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

const eventHashSeparator = ";"

// newEvent records the outcome of the operation at sequence.
func newEvent(sequence uint64, op *brc8888.Operation, result brc8888.Result) *entity.Event {
	event := &entity.Event{
		Sequence:      sequence,
		InscriptionId: op.InscriptionId,
		Op:            lo.Ternary(result.Op != "", result.Op, op.Kind).String(),
		Tick:          result.Tick,
		Valid:         result.Valid,
		Kind:          string(result.Kind),
		Reason:        result.Reason,
		Address:       op.Inscriber,
		Amount:        uint128.Zero,
		BlockHeight:   op.BlockHeight,
		TxHash:        op.Tx.TxHash,
		CreatedAt:     time.Now(),
	}
	switch {
	case result.Deploy != nil:
		event.Amount = result.Deploy.Supply
	case result.Mint != nil:
		event.Address = result.Mint.Minter
		event.Amount = result.Mint.Qty
	}
	return event
}

// getEventString is the canonical form hashed into the event chain. Reason
// text is excluded so wording changes never fork the hash.
func getEventString(event *entity.Event) string {
	var sb strings.Builder
	sb.WriteString("v" + strconv.Itoa(EventHashVersion) + eventHashSeparator)
	sb.WriteString(strconv.FormatUint(event.Sequence, 10) + eventHashSeparator)
	sb.WriteString(event.InscriptionId + eventHashSeparator)
	sb.WriteString(event.Op + eventHashSeparator)
	sb.WriteString(event.Tick + eventHashSeparator)
	sb.WriteString(lo.Ternary(event.Valid, "True", "False") + eventHashSeparator)
	sb.WriteString(event.Kind + eventHashSeparator)
	sb.WriteString(event.Address + eventHashSeparator)
	sb.WriteString(event.Amount.String())
	return sb.String()
}

// hashEvent sets the event hash and chains it onto prevCumulative. The first
// event of the chain has a cumulative hash equal to its own hash.
func hashEvent(event *entity.Event, prevCumulative []byte) {
	eventHash := sha256.Sum256([]byte(getEventString(event)))
	cumulative := eventHash
	if len(prevCumulative) > 0 {
		cumulative = sha256.Sum256([]byte(hex.EncodeToString(prevCumulative) + hex.EncodeToString(eventHash[:])))
	}
	event.EventHash = eventHash[:]
	event.CumulativeEventHash = cumulative[:]
}
