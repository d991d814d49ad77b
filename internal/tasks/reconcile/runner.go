package reconcile

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/inbox"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

// Runner 负责消费孤儿候选事件。
type Runner struct {
	delegate *inbox.Runner[events.OrphanCandidate]
}

// RunnerParams 注入构建 Runner 所需的依赖。
type RunnerParams struct {
	Subscriber gcpubsub.Subscriber
	InboxRepo  *repositories.InboxRepository
	References referenceChecker
	Objects    objectRemover
	Encoder    assetDeleter
	TxManager  txmanager.Manager
	Logger     log.Logger
	Config     config.InboxConfig
}

// NewRunner 构造对账 Runner。
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Subscriber == nil {
		return nil, fmt.Errorf("reconcile: subscriber is required")
	}
	if params.InboxRepo == nil {
		return nil, fmt.Errorf("reconcile: inbox repository is required")
	}
	if params.References == nil {
		return nil, fmt.Errorf("reconcile: reference checker is required")
	}
	if params.TxManager == nil {
		return nil, fmt.Errorf("reconcile: transaction manager is required")
	}

	handler := NewHandler(params.References, params.Objects, params.Encoder, params.Logger)

	delegate, err := inbox.NewRunner[events.OrphanCandidate](inbox.RunnerParams[events.OrphanCandidate]{
		Store:      params.InboxRepo.Shared(),
		Subscriber: params.Subscriber,
		TxManager:  params.TxManager,
		Decoder:    newDecoder(),
		Handler:    handler,
		Config:     params.Config,
		Logger:     params.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Runner{delegate: delegate}, nil
}

// Run 启动消费循环。
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.delegate == nil {
		return nil
	}
	return r.delegate.Run(ctx)
}
