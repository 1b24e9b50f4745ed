package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/internal/config"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888"
	"github.com/gaze-network/brc8888-indexer/pkg/logger"
	"github.com/gaze-network/brc8888-indexer/pkg/logger/slogx"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type replayCmdOptions struct {
	Workers int
	JSON    bool
	State   bool
}

func NewReplayCommand() *cobra.Command {
	opts := &replayCmdOptions{}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Validate an operation log against a fresh ledger without persisting anything",
		Args:  cobra.ExactArgs(1),
		Example: `brc8888 replay ./operations.jsonl
brc8888 replay ./operations.jsonl --workers 8 --json --state`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Workers, "workers", 0, "Validate tickers concurrently with N workers. Defaults to `modules.brc8888.replay_workers`, 1 disables sharding, -1 uses every CPU.")
	flags.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	flags.BoolVar(&opts.State, "state", false, "Include the final ledger snapshot")

	return cmd
}

func replayHandler(opts *replayCmdOptions, cmd *cobra.Command, args []string) error {
	conf := config.Load()
	if !conf.Network.IsSupported() {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
	}

	workers := lo.Ternary(opts.Workers != 0, opts.Workers, conf.Modules.BRC8888.ReplayWorkers)
	if workers < 0 {
		workers = runtime.NumCPU()
	}

	ctx := cmd.Context()
	start := time.Now()
	report, err := brc8888.ReplayFile(ctx, args[0], conf.Network, conf.Modules.BRC8888, workers, opts.State)
	if err != nil {
		return errors.Wrapf(err, "can't replay %s", args[0])
	}
	logger.DebugContext(ctx, "Replayed operation log",
		slogx.String("file", args[0]),
		slogx.Int("operations", len(report.Operations)),
		slogx.Int("workers", workers),
		slogx.Duration("duration", time.Since(start)),
	)

	out := cmd.OutOrStdout()
	if opts.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return errors.WithStack(encoder.Encode(report))
	}
	return errors.WithStack(printReplayReport(out, report))
}

func printReplayReport(w io.Writer, report *brc8888.ReplayReport) error {
	for _, op := range report.Operations {
		status := lo.Ternary(op.Valid, "ok", "rejected")
		line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s", op.Sequence, op.InscriptionId, op.Op, op.Tick, status)
		if !op.Valid {
			line += "\t" + op.Kind
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", line, op.Reason); err != nil {
			return errors.WithStack(err)
		}
	}
	if _, err := fmt.Fprintf(w, "\n%d operations, %d accepted, %d rejected\ncumulative event hash: %s\n",
		len(report.Operations), report.Accepted, report.Rejected, report.CumulativeEventHash); err != nil {
		return errors.WithStack(err)
	}
	if report.State != nil {
		state, err := json.MarshalIndent(report.State, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := fmt.Fprintf(w, "\nstate:\n%s\n", state); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
