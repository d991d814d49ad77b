package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrphanKind 标识孤儿资源类型。
type OrphanKind string

const (
	// OrphanKindObject 表示对象存储中的孤儿对象。
	OrphanKindObject OrphanKind = "object"
	// OrphanKindEncodedAsset 表示视频编码服务中的孤儿资源。
	OrphanKindEncodedAsset OrphanKind = "encoded_asset"
)

const (
	// OrphanDetectedEventType 为孤儿候选事件类型。
	OrphanDetectedEventType = "course.orphan.detected"
	// OrphanAggregateType 为孤儿候选事件的聚合类型。
	OrphanAggregateType = "course_asset"
)

// OrphanCandidate 描述一次尽力清理失败后遗留的外部资源，由对账任务重试删除。
type OrphanCandidate struct {
	EventID    uuid.UUID  `json:"event_id"`
	Kind       OrphanKind `json:"kind"`
	Namespace  string     `json:"namespace,omitempty"`
	Path       string     `json:"path,omitempty"`
	AssetID    string     `json:"asset_id,omitempty"`
	CourseID   uuid.UUID  `json:"course_id"`
	ChapterID  uuid.UUID  `json:"chapter_id,omitempty"`
	Operation  string     `json:"operation"`
	Reason     string     `json:"reason,omitempty"`
	DetectedAt time.Time  `json:"detected_at"`
}

// AggregateID 返回用于 outbox 的聚合标识，优先章节。
func (c OrphanCandidate) AggregateID() uuid.UUID {
	if c.ChapterID != uuid.Nil {
		return c.ChapterID
	}
	return c.CourseID
}

// Validate 检查事件是否可被对账任务处理。
func (c OrphanCandidate) Validate() error {
	switch c.Kind {
	case OrphanKindObject:
		if c.Namespace == "" || c.Path == "" {
			return fmt.Errorf("orphan object requires namespace and path")
		}
	case OrphanKindEncodedAsset:
		if c.AssetID == "" {
			return fmt.Errorf("orphan encoded asset requires asset_id")
		}
	default:
		return fmt.Errorf("unsupported orphan kind %q", c.Kind)
	}
	return nil
}

// EncodeOrphanCandidate 将事件编码为 JSON 载荷。
func EncodeOrphanCandidate(c OrphanCandidate) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

// DecodeOrphanCandidate 解析 JSON 载荷。
func DecodeOrphanCandidate(data []byte) (*OrphanCandidate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("orphan: empty payload")
	}
	var c OrphanCandidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("orphan: decode payload: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("orphan: %w", err)
	}
	return &c, nil
}
