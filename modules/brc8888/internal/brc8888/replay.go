package brc8888

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Replay applies ops in order to a fresh validator and returns one result per
// operation together with the final ledger.
func Replay(ctx context.Context, config Config, ops []*Operation, opts ...Option) ([]Result, *Ledger, error) {
	v := NewValidator(config, opts...)
	results := make([]Result, len(ops))
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.WithStack(err)
		}
		result, err := v.Apply(ctx, op)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to apply operation %d (%s)", i, op.InscriptionId)
		}
		results[i] = result
	}
	return results, v.Ledger(), nil
}

// ReplaySharded is Replay with operations partitioned by ticker and the
// partitions validated concurrently, at most workers at a time. Results are
// identical to Replay and returned in log order. The resolver and trigger
// policy in opts are shared between shards and must be safe for concurrent use.
func ReplaySharded(ctx context.Context, config Config, ops []*Operation, workers int, opts ...Option) ([]Result, *Ledger, error) {
	if workers <= 1 {
		return Replay(ctx, config, ops, opts...)
	}

	shards := shardOperations(ops)
	results := make([]Result, len(ops))
	ledgers := make([]*Ledger, len(shards))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for n, shard := range shards {
		eg.Go(func() error {
			v := NewValidator(config, opts...)
			for _, i := range shard {
				if err := ectx.Err(); err != nil {
					return errors.WithStack(err)
				}
				result, err := v.Apply(ectx, ops[i])
				if err != nil {
					return errors.Wrapf(err, "failed to apply operation %d (%s)", i, ops[i].InscriptionId)
				}
				results[i] = result
			}
			ledgers[n] = v.Ledger()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, errors.WithStack(err)
	}

	ledger := NewLedger()
	for _, shardLedger := range ledgers {
		ledger.merge(shardLedger)
	}
	return results, ledger, nil
}

// shardOperations groups operation indexes by ticker. Tickers that share an
// inscription id land in the same shard so duplicate detection sees both.
func shardOperations(ops []*Operation) [][]int {
	parent := make(map[string]string)
	find := func(tick string) string {
		for parent[tick] != tick {
			parent[tick] = parent[parent[tick]]
			tick = parent[tick]
		}
		return tick
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	ticks := make([]string, len(ops))
	tickOfId := make(map[string]string)
	for i, op := range ops {
		tick := op.Tick()
		ticks[i] = tick
		if _, ok := parent[tick]; !ok {
			parent[tick] = tick
		}
		if op.InscriptionId == "" {
			continue
		}
		if other, ok := tickOfId[op.InscriptionId]; ok {
			union(other, tick)
		} else {
			tickOfId[op.InscriptionId] = tick
		}
	}

	groups := lo.GroupBy(lo.Range(len(ops)), func(i int) string {
		return find(ticks[i])
	})
	keys := lo.Keys(groups)
	slices.Sort(keys)
	return lo.Map(keys, func(key string, _ int) []int {
		return groups[key]
	})
}
