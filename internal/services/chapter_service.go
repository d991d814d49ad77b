package services

import (
	"context"
	"errors"
	"strings"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/models/vo"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ChapterDescriptionInput 为章节描述载荷，空字符串表示清空描述。
type ChapterDescriptionInput struct {
	Description string `json:"description" validate:"omitempty,max=5000"`
}

// ChapterAccessInput 为章节免费访问开关。
type ChapterAccessInput struct {
	IsFree *bool `json:"is_free" validate:"required"`
}

// ChapterService 封装章节聚合的写操作。
type ChapterService struct {
	guard     *OwnershipGuard
	courses   CourseRepo
	chapters  ChapterRepo
	encoded   EncodedVideoRepo
	assets    AssetStore
	encoder   VideoEncoder
	saga      *SagaExecutor
	validator *PayloadValidator
	txManager txmanager.Manager
	log       *log.Helper
}

// ChapterServiceDeps 聚合 ChapterService 的依赖。
type ChapterServiceDeps struct {
	Guard     *OwnershipGuard
	Courses   CourseRepo
	Chapters  ChapterRepo
	Encoded   EncodedVideoRepo
	Assets    AssetStore
	Encoder   VideoEncoder
	Saga      *SagaExecutor
	Validator *PayloadValidator
	TxManager txmanager.Manager
}

// NewChapterService 构造章节聚合服务。
func NewChapterService(deps ChapterServiceDeps, logger log.Logger) *ChapterService {
	return &ChapterService{
		guard:     deps.Guard,
		courses:   deps.Courses,
		chapters:  deps.Chapters,
		encoded:   deps.Encoded,
		assets:    deps.Assets,
		encoder:   deps.Encoder,
		saga:      deps.Saga,
		validator: deps.Validator,
		txManager: deps.TxManager,
		log:       log.NewHelper(logger),
	}
}

// LoadChapterEditor 返回章节、编码记录与视频公开地址。
func (s *ChapterService) LoadChapterEditor(ctx context.Context, principal, courseID, chapterID uuid.UUID) (*vo.ChapterWithMeta, error) {
	chapter, _, err := s.resolve(ctx, principal, courseID, chapterID)
	if err != nil {
		return nil, err
	}
	encoded, err := s.currentEncoded(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}
	return vo.NewChapterWithMeta(chapter, encoded, func(path string) string {
		return s.assets.PublicURL(po.AssetKindChapterVideo, path)
	}), nil
}

// UpdateTitle 更新章节标题。
func (s *ChapterService) UpdateTitle(ctx context.Context, principal, courseID, chapterID uuid.UUID, input ChapterTitleInput) (*vo.MutationResult, error) {
	if _, _, err := s.resolve(ctx, principal, courseID, chapterID); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.chapters.UpdateTitle(ctx, nil, chapterID, input.Title); err != nil {
		return nil, s.rowFailure(ctx, "update chapter title", chapterID, err)
	}
	return &vo.MutationResult{Message: "successfully updated chapter title"}, nil
}

// UpdateDescription 更新章节描述。
func (s *ChapterService) UpdateDescription(ctx context.Context, principal, courseID, chapterID uuid.UUID, input ChapterDescriptionInput) (*vo.MutationResult, error) {
	if _, _, err := s.resolve(ctx, principal, courseID, chapterID); err != nil {
		return nil, err
	}
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.chapters.UpdateDescription(ctx, nil, chapterID, input.Description); err != nil {
		return nil, s.rowFailure(ctx, "update chapter description", chapterID, err)
	}
	return &vo.MutationResult{Message: "successfully updated chapter description"}, nil
}

// UpdateAccess 更新章节是否免费试看。
func (s *ChapterService) UpdateAccess(ctx context.Context, principal, courseID, chapterID uuid.UUID, input ChapterAccessInput) (*vo.MutationResult, error) {
	if _, _, err := s.resolve(ctx, principal, courseID, chapterID); err != nil {
		return nil, err
	}
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.chapters.UpdateAccess(ctx, nil, chapterID, *input.IsFree); err != nil {
		return nil, s.rowFailure(ctx, "update chapter access", chapterID, err)
	}
	return &vo.MutationResult{Message: "successfully updated chapter access settings"}, nil
}

// UpdateVideo 替换章节视频并重建编码资源。
//
// 流程：上传新对象 → 替换行内路径（失败则回收新对象）→ 尽力删除旧对象 →
// 删除旧编码资源及记录 → 以新对象的公开地址创建编码资源并落库。
// 连续两次成功调用后章节只保留一条编码记录。
func (s *ChapterService) UpdateVideo(ctx context.Context, principal, courseID, chapterID uuid.UUID, file po.UploadFile) (*vo.MutationResult, error) {
	chapter, course, err := s.resolve(ctx, principal, courseID, chapterID)
	if err != nil {
		return nil, err
	}
	if file.Empty() {
		return nil, ErrValidation(map[string]string{"video": "is required"})
	}
	existing, err := s.currentEncoded(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}

	owner := po.AssetOwner{CourseID: course.ID, ChapterID: chapter.ID}
	previous := chapter.VideoPath
	var uploaded string
	saga := Saga{
		Name: "chapter.update_video",
		Steps: []SagaStep{
			{
				Name: "upload_video",
				Forward: func(ctx context.Context) error {
					path, err := s.assets.Upload(ctx, po.AssetKindChapterVideo, owner, file)
					if err != nil {
						return storeFailure(ctx, "upload chapter video", err)
					}
					uploaded = path
					return nil
				},
				Compensate: ptr(removeObjectAction(s.assets, "remove_uploaded_video", po.AssetKindChapterVideo, owner, fixedPath(&uploaded))),
			},
			{
				Name: "swap_video_path",
				Forward: func(ctx context.Context) error {
					if err := s.chapters.UpdateVideoPath(ctx, nil, chapter.ID, &uploaded); err != nil {
						return s.rowFailure(ctx, "update chapter video", chapter.ID, err)
					}
					return nil
				},
			},
		},
		OnSuccess: []CleanupAction{
			removeObjectAction(s.assets, "remove_previous_video", po.AssetKindChapterVideo, owner, fixedPath(previous)),
		},
	}
	if err := s.saga.Run(ctx, saga); err != nil {
		return nil, err
	}

	if existing != nil {
		s.saga.BestEffort(ctx, saga.Name, deleteEncodedAssetAction(s.encoder, "delete_previous_encoded_asset", owner, existing.AssetID))
		if err := s.encoded.Delete(ctx, nil, existing.ID); err != nil && !errors.Is(err, repositories.ErrEncodedVideoNotFound) {
			s.log.WithContext(ctx).Errorf("delete encoded video record failed: chapter_id=%s err=%v", chapter.ID, err)
			return nil, storeFailure(ctx, "delete encoded video record", err)
		}
	}

	sourceURL := s.assets.PublicURL(po.AssetKindChapterVideo, uploaded)
	asset, err := s.encoder.CreateAsset(ctx, sourceURL)
	if err != nil {
		s.log.WithContext(ctx).Errorf("create encoded asset failed: chapter_id=%s err=%v", chapter.ID, err)
		return nil, storeFailure(ctx, "create encoded asset", err)
	}
	if _, err := s.encoded.Create(ctx, nil, chapter.ID, asset); err != nil {
		s.saga.BestEffort(ctx, saga.Name, deleteEncodedAssetAction(s.encoder, "delete_unrecorded_encoded_asset", owner, asset.AssetID))
		s.log.WithContext(ctx).Errorf("persist encoded video failed: chapter_id=%s asset_id=%s err=%v", chapter.ID, asset.AssetID, err)
		return nil, storeFailure(ctx, "persist encoded video", err)
	}
	s.log.WithContext(ctx).Infof("UpdateVideo: chapter_id=%s path=%s asset_id=%s", chapter.ID, uploaded, asset.AssetID)
	return &vo.MutationResult{Message: "successfully updated chapter video"}, nil
}

// DeleteChapter 清理外部资源后删除章节，并在同一事务内修复课程发布约束。
func (s *ChapterService) DeleteChapter(ctx context.Context, principal, courseID, chapterID uuid.UUID) (*vo.MutationResult, error) {
	chapter, course, err := s.resolve(ctx, principal, courseID, chapterID)
	if err != nil {
		return nil, err
	}
	existing, err := s.currentEncoded(ctx, chapter.ID)
	if err != nil {
		return nil, err
	}

	const sagaName = "chapter.delete"
	owner := po.AssetOwner{CourseID: course.ID, ChapterID: chapter.ID}
	if existing != nil {
		s.saga.BestEffort(ctx, sagaName, deleteEncodedAssetAction(s.encoder, "delete_encoded_asset", owner, existing.AssetID))
		if err := s.encoded.Delete(ctx, nil, existing.ID); err != nil && !errors.Is(err, repositories.ErrEncodedVideoNotFound) {
			// 章节删除会级联删除该记录
			s.log.WithContext(ctx).Warnf("delete encoded video record failed: chapter_id=%s err=%v", chapter.ID, err)
		}
	}
	s.saga.BestEffort(ctx, sagaName,
		removeObjectAction(s.assets, "remove_chapter_video", po.AssetKindChapterVideo, owner, fixedPath(chapter.VideoPath)))

	var unpublished bool
	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		locked, err := s.guard.RevalidateCourseOwner(txCtx, sess, course.ID, principal)
		if err != nil {
			return err
		}
		if err := s.chapters.Delete(txCtx, sess, chapter.ID); err != nil {
			return err
		}
		unpublished, err = s.repairPublishInvariant(txCtx, sess, locked)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrChapterNotFound) {
			return nil, ErrNotFound("chapter")
		}
		s.log.WithContext(ctx).Errorf("delete chapter failed: chapter_id=%s err=%v", chapter.ID, err)
		return nil, passthrough(ctx, "delete chapter", err)
	}
	s.log.WithContext(ctx).Infof("DeleteChapter: chapter_id=%s course_id=%s course_unpublished=%t", chapter.ID, course.ID, unpublished)
	return &vo.MutationResult{Message: "successfully deleted chapter"}, nil
}

// TogglePublish 翻转章节发布状态；下线时检查课程是否仍有已发布章节。
func (s *ChapterService) TogglePublish(ctx context.Context, principal, courseID, chapterID uuid.UUID) (*vo.MutationResult, error) {
	_, course, err := s.resolve(ctx, principal, courseID, chapterID)
	if err != nil {
		return nil, err
	}

	var published bool
	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		locked, err := s.guard.RevalidateCourseOwner(txCtx, sess, course.ID, principal)
		if err != nil {
			return err
		}
		current, err := s.chapters.Get(txCtx, sess, chapterID)
		if err != nil {
			return err
		}
		published = !current.IsPublished
		if err := s.chapters.SetPublished(txCtx, sess, chapterID, published); err != nil {
			return err
		}
		if published {
			return nil
		}
		_, err = s.repairPublishInvariant(txCtx, sess, locked)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrChapterNotFound) {
			return nil, ErrNotFound("chapter")
		}
		s.log.WithContext(ctx).Errorf("toggle chapter publish failed: chapter_id=%s err=%v", chapterID, err)
		return nil, passthrough(ctx, "update chapter publish state", err)
	}
	msg := "successfully unpublished chapter"
	if published {
		msg = "successfully published chapter"
	}
	return &vo.MutationResult{Message: msg}, nil
}

// repairPublishInvariant 在课程没有已发布章节时将课程下线，返回是否发生了下线。
func (s *ChapterService) repairPublishInvariant(ctx context.Context, sess txmanager.Session, course *po.Course) (bool, error) {
	count, err := s.chapters.CountPublished(ctx, sess, course.ID)
	if err != nil {
		return false, err
	}
	if count > 0 || !course.IsPublished {
		return false, nil
	}
	if err := s.courses.SetPublished(ctx, sess, course.ID, false); err != nil {
		return false, err
	}
	s.log.WithContext(ctx).Infof("course unpublished: course_id=%s reason=no_published_chapters", course.ID)
	return true, nil
}

func (s *ChapterService) resolve(ctx context.Context, principal, courseID, chapterID uuid.UUID) (*po.Chapter, *po.Course, error) {
	chapter, course, err := s.guard.ResolveOwnedChapter(ctx, chapterID, principal)
	if err != nil {
		return nil, nil, err
	}
	if chapter.CourseID != courseID {
		return nil, nil, ErrNotFound("chapter")
	}
	return chapter, course, nil
}

func (s *ChapterService) currentEncoded(ctx context.Context, chapterID uuid.UUID) (*po.EncodedVideo, error) {
	record, err := s.encoded.GetByChapter(ctx, nil, chapterID)
	if err != nil {
		if errors.Is(err, repositories.ErrEncodedVideoNotFound) {
			return nil, nil
		}
		return nil, storeFailure(ctx, "load encoded video", err)
	}
	return record, nil
}

func (s *ChapterService) rowFailure(ctx context.Context, op string, chapterID uuid.UUID, err error) error {
	if errors.Is(err, repositories.ErrChapterNotFound) {
		return ErrNotFound("chapter")
	}
	s.log.WithContext(ctx).Errorf("%s failed: chapter_id=%s err=%v", op, chapterID, err)
	return storeFailure(ctx, op, err)
}
