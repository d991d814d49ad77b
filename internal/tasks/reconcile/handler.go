package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/models/po"

	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
)

type referenceChecker interface {
	IsObjectReferenced(ctx context.Context, kind po.AssetKind, path string) (bool, error)
	IsAssetLive(ctx context.Context, assetID string) (bool, error)
}

type objectRemover interface {
	Remove(ctx context.Context, kind po.AssetKind, path string) error
}

type assetDeleter interface {
	DeleteAsset(ctx context.Context, assetID string) error
}

// Handler 处理单个孤儿候选：资源仍被引用则放弃，否则删除。
// 返回错误时 inbox 不会标记完成，消息将被重新投递。
type Handler struct {
	refs    referenceChecker
	objects objectRemover
	encoder assetDeleter
	log     *log.Helper
	metrics *reconcileMetrics
	clock   func() time.Time
}

// NewHandler 构造孤儿对账处理器。
func NewHandler(refs referenceChecker, objects objectRemover, encoder assetDeleter, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Handler{
		refs:    refs,
		objects: objects,
		encoder: encoder,
		log:     log.NewHelper(logger),
		metrics: newMetrics(),
		clock:   time.Now,
	}
}

// WithClock 替换时间源，测试使用。
func (h *Handler) WithClock(fn func() time.Time) {
	if h == nil || fn == nil {
		return
	}
	h.clock = fn
}

// Handle 实现 inbox.Handler。
func (h *Handler) Handle(ctx context.Context, _ txmanager.Session, evt *events.OrphanCandidate, inboxEvt *store.InboxEvent) error {
	if evt == nil {
		return fmt.Errorf("reconcile: nil event payload")
	}
	if inboxEvt != nil && inboxEvt.EventType != "" && inboxEvt.EventType != events.OrphanDetectedEventType {
		h.log.WithContext(ctx).Debugw("msg", "reconcile: skip unsupported event", "event_type", inboxEvt.EventType, "event_id", evt.EventID)
		return nil
	}
	if h.refs == nil {
		return fmt.Errorf("reconcile: handler not initialized")
	}

	var (
		outcome string
		err     error
	)
	switch evt.Kind {
	case events.OrphanKindObject:
		outcome, err = h.reconcileObject(ctx, evt)
	case events.OrphanKindEncodedAsset:
		outcome, err = h.reconcileEncodedAsset(ctx, evt)
	default:
		h.log.WithContext(ctx).Warnf("reconcile: drop unsupported orphan kind=%s event_id=%s", evt.Kind, evt.EventID)
		return nil
	}
	if err != nil {
		h.metrics.recordFailure(ctx, string(evt.Kind))
		return err
	}

	h.metrics.recordHandled(ctx, string(evt.Kind), outcome, evt.DetectedAt, h.clock())
	h.log.WithContext(ctx).Infow("msg", "reconcile: orphan resolved",
		"event_id", evt.EventID,
		"kind", evt.Kind,
		"outcome", outcome,
		"operation", evt.Operation,
	)
	return nil
}

func (h *Handler) reconcileObject(ctx context.Context, evt *events.OrphanCandidate) (string, error) {
	kind := po.AssetKind(evt.Namespace)
	if !kind.Valid() {
		return "", fmt.Errorf("reconcile: unknown namespace %q", evt.Namespace)
	}
	referenced, err := h.refs.IsObjectReferenced(ctx, kind, evt.Path)
	if err != nil {
		return "", fmt.Errorf("reconcile: check object reference: %w", err)
	}
	if referenced {
		return outcomeReferenced, nil
	}
	if h.objects == nil {
		return "", fmt.Errorf("reconcile: object store not configured")
	}
	if err := h.objects.Remove(ctx, kind, evt.Path); err != nil {
		return "", fmt.Errorf("reconcile: remove object: %w", err)
	}
	return outcomeDeleted, nil
}

func (h *Handler) reconcileEncodedAsset(ctx context.Context, evt *events.OrphanCandidate) (string, error) {
	live, err := h.refs.IsAssetLive(ctx, evt.AssetID)
	if err != nil {
		return "", fmt.Errorf("reconcile: check encoded asset: %w", err)
	}
	if live {
		return outcomeReferenced, nil
	}
	if h.encoder == nil {
		return "", fmt.Errorf("reconcile: video encoder not configured")
	}
	if err := h.encoder.DeleteAsset(ctx, evt.AssetID); err != nil {
		return "", fmt.Errorf("reconcile: delete encoded asset: %w", err)
	}
	return outcomeDeleted, nil
}
