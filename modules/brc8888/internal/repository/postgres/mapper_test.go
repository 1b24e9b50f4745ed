package postgres

import (
	"testing"
	"time"

	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMapping(t *testing.T) {
	event := &entity.Event{
		Sequence:            42,
		InscriptionId:       "abci0",
		Op:                  "mint",
		Tick:                "UNQ",
		Valid:               true,
		Address:             "bc1puser",
		Amount:              uint128.From64(100),
		BlockHeight:         925_002,
		TxHash:              "abc",
		EventHash:           []byte{1, 2},
		CumulativeEventHash: []byte{3, 4},
	}
	params := mapEventTypeToParams(event)
	require.Len(t, params, 13)
	assert.Equal(t, "100", params[8])

	model := eventModel{
		Sequence:            params[0].(int64),
		InscriptionId:       params[1].(string),
		Op:                  params[2].(string),
		Tick:                params[3].(string),
		Valid:               params[4].(bool),
		Kind:                params[5].(string),
		Reason:              params[6].(string),
		Address:             params[7].(string),
		Amount:              params[8].(string),
		BlockHeight:         params[9].(int64),
		TxHash:              params[10].(string),
		EventHash:           params[11].([]byte),
		CumulativeEventHash: params[12].([]byte),
		CreatedAt:           time.Time{},
	}
	mapped, err := mapEventModelToType(model)
	require.NoError(t, err)
	assert.Equal(t, event, mapped)
}

func TestEventMappingInvalidAmount(t *testing.T) {
	_, err := mapEventModelToType(eventModel{Amount: "-1"})
	assert.Error(t, err)
}
