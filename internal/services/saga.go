package services

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// OrphanReporter 接收清理失败后遗留的外部资源，交由对账通道处理。
type OrphanReporter interface {
	Report(ctx context.Context, candidate events.OrphanCandidate) error
}

// CleanupAction 为一次尽力而为的清理动作。Orphan 非空时，失败会上报孤儿候选。
type CleanupAction struct {
	Name   string
	Run    func(ctx context.Context) error
	Orphan func() events.OrphanCandidate
}

// SagaStep 为一个前向动作及其补偿。
type SagaStep struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate *CleanupAction
}

// Saga 描述跨存储的一次变更：顺序执行 Steps，全部成功后执行 OnSuccess 清理。
type Saga struct {
	Name      string
	Steps     []SagaStep
	OnSuccess []CleanupAction
}

// SagaExecutor 执行 Saga，失败时按逆序补偿已完成的步骤。
type SagaExecutor struct {
	reporter OrphanReporter
	metrics  *sagaMetrics
	log      *log.Helper
}

// NewSagaExecutor 构造执行器，reporter 可为 nil（仅记录日志）。
func NewSagaExecutor(reporter OrphanReporter, logger log.Logger) *SagaExecutor {
	return &SagaExecutor{
		reporter: reporter,
		metrics:  newSagaMetrics(),
		log:      log.NewHelper(logger),
	}
}

// Run 顺序执行前向动作；某一步失败时补偿此前已完成的步骤并返回该步的错误。
func (e *SagaExecutor) Run(ctx context.Context, saga Saga) error {
	completed := make([]SagaStep, 0, len(saga.Steps))
	for _, step := range saga.Steps {
		if err := step.Forward(ctx); err != nil {
			e.log.WithContext(ctx).Warnf("saga step failed: saga=%s step=%s err=%v", saga.Name, step.Name, err)
			e.compensate(ctx, saga.Name, completed)
			return err
		}
		completed = append(completed, step)
	}
	e.BestEffort(ctx, saga.Name, saga.OnSuccess...)
	return nil
}

func (e *SagaExecutor) compensate(ctx context.Context, sagaName string, completed []SagaStep) {
	for i := len(completed) - 1; i >= 0; i-- {
		action := completed[i].Compensate
		if action == nil {
			continue
		}
		failed := e.runCleanup(ctx, sagaName, *action)
		e.metrics.recordCompensation(ctx, sagaName, action.Name, failed)
	}
}

// BestEffort 执行清理动作，错误不会返回给调用方。
func (e *SagaExecutor) BestEffort(ctx context.Context, sagaName string, actions ...CleanupAction) {
	for _, action := range actions {
		e.runCleanup(ctx, sagaName, action)
	}
}

func (e *SagaExecutor) runCleanup(ctx context.Context, sagaName string, action CleanupAction) bool {
	if action.Run == nil {
		return false
	}
	// 清理不受请求取消影响
	cleanupCtx := context.WithoutCancel(ctx)
	err := action.Run(cleanupCtx)
	if err == nil {
		return false
	}
	e.log.WithContext(ctx).Warnf("cleanup failed: saga=%s action=%s err=%v", sagaName, action.Name, err)
	e.metrics.recordCleanupFailure(cleanupCtx, sagaName, action.Name)
	if action.Orphan != nil {
		e.reportOrphan(cleanupCtx, sagaName, action.Orphan(), err)
	}
	return true
}

func (e *SagaExecutor) reportOrphan(ctx context.Context, sagaName string, candidate events.OrphanCandidate, cause error) {
	if candidate.EventID == uuid.Nil {
		candidate.EventID = uuid.New()
	}
	if candidate.DetectedAt.IsZero() {
		candidate.DetectedAt = time.Now().UTC()
	}
	if candidate.Operation == "" {
		candidate.Operation = sagaName
	}
	if candidate.Reason == "" && cause != nil {
		candidate.Reason = cause.Error()
	}
	if e.reporter == nil {
		e.log.WithContext(ctx).Warnf("orphan candidate dropped: kind=%s namespace=%s path=%s asset=%s",
			candidate.Kind, candidate.Namespace, candidate.Path, candidate.AssetID)
		e.metrics.recordOrphan(ctx, string(candidate.Kind), false)
		return
	}
	if err := e.reporter.Report(ctx, candidate); err != nil {
		e.log.WithContext(ctx).Errorf("report orphan candidate failed: kind=%s err=%v", candidate.Kind, err)
		e.metrics.recordOrphan(ctx, string(candidate.Kind), false)
		return
	}
	e.metrics.recordOrphan(ctx, string(candidate.Kind), true)
}
