package cmd

import (
	"proposal-core/internal/service"
	"proposal-core/pkg/config"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/kms"
)

// core CLI 不连数据库和 Redis，只组装链上相关服务
type core struct {
	proposals *service.ProposalService
	query     *service.QueryService
	sweeper   *service.SweeperService
}

func loadCore() (*core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if network != "" {
		cfg.Flow.Network = network
	}

	preset, err := cfg.Flow.Preset()
	if err != nil {
		return nil, err
	}
	signer, err := kms.LoadAccountSigner(cfg.Flow, kms.NewLocalKMS())
	if err != nil {
		return nil, err
	}

	ledger := client.New(preset.RestURL, cfg.Flow.RequestTimeout)
	renderer, err := scripts.NewRenderer(cfg.Flow.ContractName, cfg.Flow.EffectiveContractAddress())
	if err != nil {
		return nil, err
	}
	tx, err := service.NewTransactor(ledger, signer, cfg.Flow, preset)
	if err != nil {
		return nil, err
	}

	query := service.NewQueryService(ledger, renderer, nil, 0)
	return &core{
		proposals: service.NewProposalService(service.ProposalServiceDeps{
			Client:     ledger,
			Transactor: tx,
			Query:      query,
			Scripts:    renderer,
			MinBalance: cfg.Flow.MinBalanceDecimal(),
		}),
		query:   query,
		sweeper: service.NewSweeperService(tx, query, renderer, nil),
	}, nil
}
