// Package events 定义 outbox 领域事件的载荷与消息属性辅助函数。
package events

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// SchemaVersionV1 为当前事件载荷版本。
const SchemaVersionV1 = "v1"

// BuildAttributes 构造符合 Pub/Sub 约定的 message attributes。
func BuildAttributes(c OrphanCandidate, traceID string) map[string]string {
	attrs := map[string]string{
		"event_id":       c.EventID.String(),
		"event_type":     OrphanDetectedEventType,
		"aggregate_id":   c.AggregateID().String(),
		"aggregate_type": OrphanAggregateType,
		"occurred_at":    c.DetectedAt.UTC().Format(time.RFC3339),
		"schema_version": SchemaVersionV1,
		"orphan_kind":    string(c.Kind),
	}
	if traceID != "" {
		attrs["trace_id"] = traceID
	}
	return attrs
}

// TraceIDFromContext 提取 OTel Trace ID，若不存在返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}
