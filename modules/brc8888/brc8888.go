package brc8888

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/core/indexer"
	"github.com/gaze-network/brc8888-indexer/internal/config"
	"github.com/gaze-network/brc8888-indexer/internal/postgres"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/addressresolver"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/api/httphandler"
	brc8888config "github.com/gaze-network/brc8888-indexer/modules/brc8888/config"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/oplog"
	brc8888badger "github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/repository/badger"
	brc8888postgres "github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/repository/postgres"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/usecase"
	"github.com/gaze-network/brc8888-indexer/pkg/httpclient"
	"github.com/gaze-network/brc8888-indexer/pkg/logger"
	"github.com/gaze-network/brc8888-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

func New(injector do.Injector) (indexer.IndexerWorker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.BRC8888

	var (
		brc8888Dg     datagateway.BRC8888DataGateway
		indexerInfoDg datagateway.IndexerInfoDataGateway
	)
	var cleanupFuncs []func(context.Context) error
	switch strings.ToLower(moduleConf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for indexer")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		repo := brc8888postgres.NewRepository(pg)
		brc8888Dg = repo
		indexerInfoDg = repo
	case "badger", "":
		db, err := brc8888badger.Open(brc8888badger.Config{
			Path:     moduleConf.Badger.Path,
			InMemory: moduleConf.Badger.InMemory,
		})
		if err != nil {
			return nil, errors.Wrap(err, "can't open Badger database")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			return errors.WithStack(db.Close())
		})
		repo := brc8888badger.NewRepository(db)
		brc8888Dg = repo
		indexerInfoDg = repo
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for indexer is not supported", moduleConf.Database)
	}

	opts, err := newValidatorOptions(injector, moduleConf, conf.Network)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	processor := NewProcessor(brc8888Dg, indexerInfoDg, NewValidatorConfig(moduleConf), conf.Network, moduleConf.CheckpointInterval, cleanupFuncs, opts...)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			uc := usecase.New(brc8888Dg, processor)
			httpHandler := httphandler.New(conf.Network, uc)
			if err := httpHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	datasource := NewOperationLogDatasource(moduleConf.OperationLog.Path, conf.Network)
	indexer := indexer.New[*oplog.Record](processor, datasource,
		indexer.WithPollingInterval[*oplog.Record](moduleConf.OperationLog.PollInterval),
		indexer.WithBatchSize[*oplog.Record](lo.Ternary(moduleConf.OperationLog.BatchSize > 0, moduleConf.OperationLog.BatchSize, defaultBatchSize)),
	)
	return indexer, nil
}

// NewValidatorConfig returns the protocol constants of moduleConf, empty values fall back to the protocol defaults.
func NewValidatorConfig(moduleConf brc8888config.Config) brc8888.Config {
	validatorConfig := brc8888.DefaultConfig()
	if moduleConf.GenesisTick != "" {
		validatorConfig.GenesisTick = strings.ToUpper(moduleConf.GenesisTick)
	}
	if moduleConf.DisableGenesis {
		validatorConfig.GenesisTick = ""
	}
	if moduleConf.ProtocolTreasuryAddress != "" {
		validatorConfig.ProtocolTreasury = moduleConf.ProtocolTreasuryAddress
	}
	validatorConfig.ReducedPayload = moduleConf.ReducedPayload
	return validatorConfig
}

func newValidatorOptions(injector do.Injector, moduleConf brc8888config.Config, network common.Network) ([]brc8888.Option, error) {
	if !moduleConf.ReducedPayload {
		return nil, nil
	}

	var resolver addressresolver.AddressResolver
	switch strings.ToLower(moduleConf.AddressResolver.Type) {
	case "bitcoin-node":
		btcClient, err := do.Invoke[*rpcclient.Client](injector)
		if err != nil {
			return nil, errors.Wrap(err, "can't get Bitcoin node client")
		}
		resolver = addressresolver.NewNodeResolver(btcClient, network)
	case "mempool":
		client, err := httpclient.New(moduleConf.AddressResolver.MempoolURL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid mempool url")
		}
		resolver = addressresolver.NewMempoolResolver(client)
	case "none", "":
		return nil, errors.Wrap(errs.InvalidArgument, "reduced_payload requires a `bitcoin-node` or `mempool` address resolver")
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q address resolver is not supported", moduleConf.AddressResolver.Type)
	}

	cached, err := addressresolver.NewCachedResolver(resolver, moduleConf.AddressResolver.CacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	logger.Info("Using address resolver for reduced-payload deploys", slogx.String("type", moduleConf.AddressResolver.Type))
	return []brc8888.Option{brc8888.WithAddressResolver(cached)}, nil
}
