package cmd

import (
	"bytes"
	"testing"

	"github.com/gaze-network/brc8888-indexer/modules/brc8888"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReplayReport(t *testing.T) {
	report := &brc8888.ReplayReport{
		Operations: []brc8888.ReplayedOperation{
			{Sequence: 1, InscriptionId: "tinyi0", Op: "deploy", Tick: "TINY", Valid: true, Reason: "deploy TINY registered"},
			{Sequence: 2, InscriptionId: "m0", Op: "mint", Tick: "NOPE", Kind: "deploy not found", Reason: "tick \"NOPE\": deploy not found"},
		},
		Accepted:            1,
		Rejected:            1,
		CumulativeEventHash: "abcd",
	}

	var buf bytes.Buffer
	require.NoError(t, printReplayReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "1\ttinyi0\tdeploy\tTINY\tok\tdeploy TINY registered\n")
	assert.Contains(t, out, "2\tm0\tmint\tNOPE\trejected\tdeploy not found\t")
	assert.Contains(t, out, "2 operations, 1 accepted, 1 rejected")
	assert.Contains(t, out, "cumulative event hash: abcd")
	assert.NotContains(t, out, "state:")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd := NewVersionCommand()
	versionCmd.SetOut(&buf)
	versionCmd.SetArgs([]string{"--module", "brc8888"})
	require.NoError(t, versionCmd.Execute())
	assert.Equal(t, brc8888.Version+"\n", buf.String())
}
