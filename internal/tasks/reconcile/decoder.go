// Package reconcile 消费孤儿候选事件，在确认资源无引用后重试删除外部对象。
package reconcile

import (
	"github.com/bionicotaku/lingo-services-course/internal/models/events"
)

type eventDecoder struct{}

func newDecoder() *eventDecoder {
	return &eventDecoder{}
}

// Decode 将 Pub/Sub 消息数据解析为孤儿候选。
func (d *eventDecoder) Decode(data []byte) (*events.OrphanCandidate, error) {
	return events.DecodeOrphanCandidate(data)
}
