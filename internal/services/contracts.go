package services

import (
	"context"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
)

// CourseRepo 定义课程聚合需要的持久化行为。
type CourseRepo interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateCourseInput) (*po.Course, error)
	Get(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (*po.Course, error)
	GetForUpdate(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (*po.Course, error)
	ListByOwner(ctx context.Context, sess txmanager.Session, ownerID uuid.UUID) ([]*po.Course, error)
	ListPublished(ctx context.Context, sess txmanager.Session, filter repositories.ListPublishedFilter) ([]*po.CourseListing, error)
	UpdateTitle(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, title string) error
	UpdateDescription(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, description string) error
	UpdateCategory(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, categoryID *uuid.UUID) error
	UpdatePrice(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, price *float64) error
	UpdateImagePath(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, path *string) error
	SetPublished(ctx context.Context, sess txmanager.Session, courseID uuid.UUID, published bool) error
	Delete(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) error
}

// ChapterRepo 定义章节聚合需要的持久化行为。
type ChapterRepo interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateChapterInput) (*po.Chapter, error)
	MaxPosition(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int32, error)
	Get(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) (*po.Chapter, error)
	ListByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Chapter, error)
	UpdateTitle(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, title string) error
	UpdateDescription(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, description string) error
	UpdateAccess(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, isFree bool) error
	UpdateVideoPath(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, path *string) error
	SetPublished(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, published bool) error
	Delete(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) error
	DeleteByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int64, error)
	CountPublished(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int, error)
	ListPublishedIDs(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]uuid.UUID, error)
	CountPublishedByCourses(ctx context.Context, sess txmanager.Session, courseIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// AttachmentRepo 定义课程附件的持久化行为。
type AttachmentRepo interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateAttachmentInput) (*po.Attachment, error)
	Get(ctx context.Context, sess txmanager.Session, attachmentID uuid.UUID) (*po.Attachment, error)
	ListByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Attachment, error)
	Delete(ctx context.Context, sess txmanager.Session, attachmentID uuid.UUID) error
	DeleteByCourse(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) (int64, error)
}

// EncodedVideoRepo 定义视频编码记录的持久化行为。
type EncodedVideoRepo interface {
	GetByChapter(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID) (*po.EncodedVideo, error)
	ListByChapters(ctx context.Context, sess txmanager.Session, chapterIDs []uuid.UUID) (map[uuid.UUID]*po.EncodedVideo, error)
	Create(ctx context.Context, sess txmanager.Session, chapterID uuid.UUID, asset po.EncodedAsset) (*po.EncodedVideo, error)
	Delete(ctx context.Context, sess txmanager.Session, id uuid.UUID) error
}

// CategoryRepo 定义分类只读查询。
type CategoryRepo interface {
	List(ctx context.Context, sess txmanager.Session) ([]*po.Category, error)
	Exists(ctx context.Context, sess txmanager.Session, categoryID uuid.UUID) (bool, error)
}

// EnrollmentRepo 定义购买与学习进度的只读查询。
type EnrollmentRepo interface {
	PurchasedCourseIDs(ctx context.Context, sess txmanager.Session, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	CountCompleted(ctx context.Context, sess txmanager.Session, userID uuid.UUID, chapterIDs []uuid.UUID) (int, error)
}

// AssetStore 抽象对象存储，kind 决定命名空间。
type AssetStore interface {
	Upload(ctx context.Context, kind po.AssetKind, owner po.AssetOwner, file po.UploadFile) (string, error)
	Remove(ctx context.Context, kind po.AssetKind, path string) error
	PublicURL(kind po.AssetKind, path string) string
}

// VideoEncoder 抽象外部视频编码服务。
type VideoEncoder interface {
	CreateAsset(ctx context.Context, sourceURL string) (po.EncodedAsset, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// OutboxWriter 定义 Outbox 写入行为。
type OutboxWriter interface {
	Enqueue(ctx context.Context, sess txmanager.Session, msg repositories.OutboxMessage) error
}
