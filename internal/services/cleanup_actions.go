package services

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/models/po"
)

// removeObjectAction 删除对象存储中的文件；path 在执行时求值，空路径视为无操作。
func removeObjectAction(store AssetStore, name string, kind po.AssetKind, owner po.AssetOwner, path func() string) CleanupAction {
	return CleanupAction{
		Name: name,
		Run: func(ctx context.Context) error {
			p := path()
			if p == "" {
				return nil
			}
			return store.Remove(ctx, kind, p)
		},
		Orphan: func() events.OrphanCandidate {
			return events.OrphanCandidate{
				Kind:      events.OrphanKindObject,
				Namespace: string(kind),
				Path:      path(),
				CourseID:  owner.CourseID,
				ChapterID: owner.ChapterID,
			}
		},
	}
}

// deleteEncodedAssetAction 删除视频编码服务中的资源。
func deleteEncodedAssetAction(encoder VideoEncoder, name string, owner po.AssetOwner, assetID string) CleanupAction {
	return CleanupAction{
		Name: name,
		Run: func(ctx context.Context) error {
			if assetID == "" {
				return nil
			}
			return encoder.DeleteAsset(ctx, assetID)
		},
		Orphan: func() events.OrphanCandidate {
			return events.OrphanCandidate{
				Kind:      events.OrphanKindEncodedAsset,
				AssetID:   assetID,
				CourseID:  owner.CourseID,
				ChapterID: owner.ChapterID,
			}
		},
	}
}

func fixedPath(p *string) func() string {
	return func() string {
		if p == nil {
			return ""
		}
		return *p
	}
}
