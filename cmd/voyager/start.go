package main

import (
	"context"
	"fmt"
	"net"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/chain/evm"
	"github.com/cosmos/voyager-eureka/internal/chain/union"
	"github.com/cosmos/voyager-eureka/internal/config"
	"github.com/cosmos/voyager-eureka/internal/engine"
	"github.com/cosmos/voyager-eureka/internal/hasura"
	"github.com/cosmos/voyager-eureka/internal/ingress"
	"github.com/cosmos/voyager-eureka/internal/log"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
	"github.com/cosmos/voyager-eureka/internal/telemetry"
	"github.com/cosmos/voyager-eureka/pkg/relayerpb"
)

const FlagConfig = "config"

// StartCmd runs the engine: ingress fan-in and the single-writer
// dispatch loop share one queue until ctx is canceled.
func StartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the relayer engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString(FlagConfig)
			return runStart(cmd.Context(), configPath)
		},
	}
	cmd.Flags().String(FlagConfig, "", "path to the engine's YAML config file")
	return cmd
}

func runStart(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("voyager: %w", err)
	}

	logger, err := log.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return fmt.Errorf("voyager: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	q, err := buildQueue(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("voyager: %w", err)
	}
	defer q.Close()

	registry := chain.NewRegistry()
	for name, chainCfg := range cfg.Chains {
		if err := registerChain(ctx, registry, name, chainCfg, logger); err != nil {
			return fmt.Errorf("voyager: %w", err)
		}
	}

	var sink *hasura.Sink
	if cfg.Hasura != nil {
		sink = hasura.NewSink(cfg.Hasura.Endpoint, cfg.Hasura.AdminToken, logger)
	}

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.New()
	}

	eng := &engine.Engine{Queue: q, Registry: registry, Log: logger, Hasura: sink, Metrics: metrics}
	ing := &ingress.Ingress{Registry: registry, Queue: q, Log: logger}
	commands := make(chan ingress.Command)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return eng.Run(gctx) })
	group.Go(func() error { return ing.Run(gctx, ingress.StartHeights{}, commands) })

	if metrics != nil {
		group.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.ListenAddr) })
	}

	if cfg.Commands.ListenAddr != "" {
		grpcServer, err := buildRelayerServer(cfg, registry, commands)
		if err != nil {
			return fmt.Errorf("voyager: %w", err)
		}
		lis, err := net.Listen("tcp", cfg.Commands.ListenAddr)
		if err != nil {
			return fmt.Errorf("voyager: listen %s: %w", cfg.Commands.ListenAddr, err)
		}
		group.Go(func() error { return grpcServer.Serve(lis) })
		group.Go(func() error {
			<-gctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	logger.Info("voyager: engine started", zap.Int("chains", len(cfg.Chains)))
	return group.Wait()
}

// buildRelayerServer wires relayerpb.Server's CreateClient/Info
// against this engine's chain config and registry: CreateClient
// resolves the client_id/counterparty_client_id pair this engine
// already tracks between srcChain and dstChain and feeds it into the
// same operator command channel ingress.Run consumes; Info answers
// from the registry and config directly.
func buildRelayerServer(cfg *config.Config, registry *chain.Registry, commands chan<- ingress.Command) (*grpc.Server, error) {
	byChainID := make(map[string]config.ChainConfig, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		byChainID[chainCfg.ChainID] = chainCfg
	}

	requests := make(chan relayerpb.UpdateClientRequest)
	go func() {
		for req := range requests {
			dst, ok := byChainID[req.DstChain]
			if !ok {
				continue
			}
			commands <- ingress.Command{UpdateClient: &ingress.UpdateClientCommand{
				ChainID:              message.ChainID(req.DstChain),
				LightClient:          dst.CounterpartyLightClient,
				ClientID:             message.ClientID(req.ClientID),
				CounterpartyClientID: message.ClientID(req.CounterpartyClientID),
			}}
		}
	}()

	srv := &relayerpb.Server{
		Requests: requests,
		Resolve: func(srcChain, dstChain string) (string, string, bool) {
			src, ok := byChainID[srcChain]
			if !ok {
				return "", "", false
			}
			dst, ok := byChainID[dstChain]
			if !ok {
				return "", "", false
			}
			return dst.ClientID, src.CounterpartyClientID, true
		},
		Lookup: func(chainID string) (relayerpb.Chain, bool) {
			cc, ok := byChainID[chainID]
			if !ok {
				return relayerpb.Chain{}, false
			}
			return relayerpb.Chain{ChainID: cc.ChainID, IBCContract: cc.IBCHandlerAddress}, true
		},
	}

	grpcServer := grpc.NewServer()
	relayerpb.RegisterRelayerServiceServer(grpcServer, srv)
	return grpcServer, nil
}

func buildQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (queue.Queue, error) {
	switch cfg.Queue.Kind {
	case "", "in-memory":
		return queue.NewInMemory(), nil
	case "pg-queue":
		return queue.NewPGQueue(ctx, cfg.Queue.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown queue.kind %q", cfg.Queue.Kind)
	}
}

func registerChain(ctx context.Context, registry *chain.Registry, name string, chainCfg config.ChainConfig, logger *zap.Logger) error {
	switch chainCfg.Type {
	case "evm":
		adapter, err := evm.Dial(ctx, evm.Config{
			ChainID:              message.ChainID(chainCfg.ChainID),
			RPC:                  chainCfg.EthRPCURL,
			BeaconAPI:            chainCfg.BeaconRPCURL,
			IBCHandlerAddr:       ethcommon.HexToAddress(chainCfg.IBCHandlerAddress),
			SignerKey:            chainCfg.SignerKey,
			CounterpartyKind:     chainCfg.CounterpartyLightClient,
			CounterpartyChainID:  message.ChainID(chainCfg.CounterpartyChainID),
		}, logger)
		if err != nil {
			return fmt.Errorf("chain %q: %w", name, err)
		}
		registry.Register(adapter)
	case "union":
		adapter, err := union.Dial(ctx, union.Config{
			ChainID:              message.ChainID(chainCfg.ChainID),
			RPC:                  chainCfg.RPCURL,
			GRPC:                 chainCfg.GRPCURL,
			CounterpartyKind:     chainCfg.CounterpartyLightClient,
			CounterpartyChainID:  message.ChainID(chainCfg.CounterpartyChainID),
			CounterpartyClientID: message.ClientID(chainCfg.CounterpartyClientID),
			SignerMnemonic:       chainCfg.SignerMnemonic,
		}, logger)
		if err != nil {
			return fmt.Errorf("chain %q: %w", name, err)
		}
		registry.Register(adapter)
	default:
		return fmt.Errorf("chain %q: unknown type %q", name, chainCfg.Type)
	}
	return nil
}
