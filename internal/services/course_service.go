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
	"golang.org/x/sync/errgroup"
)

const cleanupConcurrency = 8

// CreateCourseInput 为创建课程的载荷。
type CreateCourseInput struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CourseTitleInput 为课程标题载荷。
type CourseTitleInput struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CourseDescriptionInput 为课程描述载荷。
type CourseDescriptionInput struct {
	Description string `json:"description" validate:"required,min=1,max=5000"`
}

// CourseCategoryInput 为课程分类载荷，空值表示清除分类。
type CourseCategoryInput struct {
	CategoryID string `json:"category_id" validate:"omitempty,uuid"`
}

// CoursePriceInput 为课程价格载荷，nil 表示清除价格。
type CoursePriceInput struct {
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// ChapterTitleInput 为章节标题载荷。
type ChapterTitleInput struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CourseService 封装课程聚合的写操作与讲师侧读取。
type CourseService struct {
	guard       *OwnershipGuard
	courses     CourseRepo
	chapters    ChapterRepo
	attachments AttachmentRepo
	encoded     EncodedVideoRepo
	categories  CategoryRepo
	assets      AssetStore
	encoder     VideoEncoder
	saga        *SagaExecutor
	validator   *PayloadValidator
	txManager   txmanager.Manager
	log         *log.Helper
}

// CourseServiceDeps 聚合 CourseService 的依赖。
type CourseServiceDeps struct {
	Guard       *OwnershipGuard
	Courses     CourseRepo
	Chapters    ChapterRepo
	Attachments AttachmentRepo
	Encoded     EncodedVideoRepo
	Categories  CategoryRepo
	Assets      AssetStore
	Encoder     VideoEncoder
	Saga        *SagaExecutor
	Validator   *PayloadValidator
	TxManager   txmanager.Manager
}

// NewCourseService 构造课程聚合服务。
func NewCourseService(deps CourseServiceDeps, logger log.Logger) *CourseService {
	return &CourseService{
		guard:       deps.Guard,
		courses:     deps.Courses,
		chapters:    deps.Chapters,
		attachments: deps.Attachments,
		encoded:     deps.Encoded,
		categories:  deps.Categories,
		assets:      deps.Assets,
		encoder:     deps.Encoder,
		saga:        deps.Saga,
		validator:   deps.Validator,
		txManager:   deps.TxManager,
		log:         log.NewHelper(logger),
	}
}

// CreateCourse 为当前主体创建一门未发布的课程。
func (s *CourseService) CreateCourse(ctx context.Context, principal uuid.UUID, input CreateCourseInput) (*vo.CreatedCourse, error) {
	if principal == uuid.Nil {
		return nil, ErrUnauthenticated()
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	course, err := s.courses.Create(ctx, nil, repositories.CreateCourseInput{
		ID:      uuid.New(),
		OwnerID: principal,
		Title:   input.Title,
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("create course failed: owner=%s err=%v", principal, err)
		return nil, storeFailure(ctx, "create course", err)
	}
	s.log.WithContext(ctx).Infof("CreateCourse: course_id=%s owner=%s", course.ID, principal)
	return &vo.CreatedCourse{
		MutationResult: vo.MutationResult{Message: "successfully created course"},
		Course:         vo.NewCourseWithAssets(course, s.imageURL),
	}, nil
}

// ListTeacherCourses 返回主体创建的课程，失败或无主体时返回空列表。
func (s *CourseService) ListTeacherCourses(ctx context.Context, principal uuid.UUID) []*vo.CourseWithAssets {
	if principal == uuid.Nil {
		return []*vo.CourseWithAssets{}
	}
	courses, err := s.courses.ListByOwner(ctx, nil, principal)
	if err != nil {
		s.log.WithContext(ctx).Warnf("list teacher courses failed: owner=%s err=%v", principal, err)
		return []*vo.CourseWithAssets{}
	}
	views := make([]*vo.CourseWithAssets, 0, len(courses))
	for _, c := range courses {
		views = append(views, vo.NewCourseWithAssets(c, s.imageURL))
	}
	return views
}

// LoadCourseEditor 并发加载讲师编辑页所需的分类、附件、章节与编码记录。
func (s *CourseService) LoadCourseEditor(ctx context.Context, principal, courseID uuid.UUID) (*vo.CourseEditor, error) {
	course, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}

	var (
		categories  []*po.Category
		attachments []*po.Attachment
		chapters    []*po.Chapter
		encoded     map[uuid.UUID]*po.EncodedVideo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.categories.List(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		attachments, err = s.attachments.ListByCourse(gctx, nil, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		chapters, err = s.chapters.ListByCourse(gctx, nil, courseID)
		if err != nil {
			return err
		}
		encoded, err = s.encoded.ListByChapters(gctx, nil, chapterIDs(chapters))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).Errorf("load course editor failed: course_id=%s err=%v", courseID, err)
		return nil, storeFailure(ctx, "load course editor", err)
	}

	editor := &vo.CourseEditor{
		Course:      vo.NewCourseWithAssets(course, s.imageURL),
		Categories:  make([]*vo.CategoryView, 0, len(categories)),
		Attachments: make([]*vo.AttachmentWithURL, 0, len(attachments)),
		Chapters:    make([]*vo.ChapterWithMeta, 0, len(chapters)),
	}
	for _, c := range categories {
		editor.Categories = append(editor.Categories, vo.NewCategoryView(c))
	}
	for _, a := range attachments {
		editor.Attachments = append(editor.Attachments, vo.NewAttachmentWithURL(a, s.attachmentURL))
	}
	for _, ch := range chapters {
		editor.Chapters = append(editor.Chapters, vo.NewChapterWithMeta(ch, encoded[ch.ID], s.videoURL))
	}
	return editor, nil
}

// UpdateTitle 更新课程标题。
func (s *CourseService) UpdateTitle(ctx context.Context, principal, courseID uuid.UUID, input CourseTitleInput) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.courses.UpdateTitle(ctx, nil, courseID, input.Title); err != nil {
		return nil, s.rowFailure(ctx, "update course title", courseID, err)
	}
	return &vo.MutationResult{Message: "successfully updated course title"}, nil
}

// UpdateDescription 更新课程描述。
func (s *CourseService) UpdateDescription(ctx context.Context, principal, courseID uuid.UUID, input CourseDescriptionInput) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.courses.UpdateDescription(ctx, nil, courseID, input.Description); err != nil {
		return nil, s.rowFailure(ctx, "update course description", courseID, err)
	}
	return &vo.MutationResult{Message: "successfully updated course description"}, nil
}

// UpdateCategory 更新或清除课程分类，未知分类视为校验失败。
func (s *CourseService) UpdateCategory(ctx context.Context, principal, courseID uuid.UUID, input CourseCategoryInput) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	var categoryID *uuid.UUID
	if input.CategoryID != "" {
		id, err := uuid.Parse(input.CategoryID)
		if err != nil {
			return nil, ErrValidation(map[string]string{"category_id": "must be a valid uuid"})
		}
		exists, err := s.categories.Exists(ctx, nil, id)
		if err != nil {
			return nil, storeFailure(ctx, "check category", err)
		}
		if !exists {
			return nil, ErrValidation(map[string]string{"category_id": "unknown category"})
		}
		categoryID = &id
	}
	if err := s.courses.UpdateCategory(ctx, nil, courseID, categoryID); err != nil {
		return nil, s.rowFailure(ctx, "update course category", courseID, err)
	}
	return &vo.MutationResult{Message: "successfully updated course category"}, nil
}

// UpdatePrice 更新或清除课程价格。
func (s *CourseService) UpdatePrice(ctx context.Context, principal, courseID uuid.UUID, input CoursePriceInput) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}
	if err := s.courses.UpdatePrice(ctx, nil, courseID, input.Price); err != nil {
		return nil, s.rowFailure(ctx, "update course price", courseID, err)
	}
	return &vo.MutationResult{Message: "successfully updated course price"}, nil
}

// UpdateImage 上传新封面后替换行内路径；替换失败时回收新对象，成功后尽力删除旧对象。
func (s *CourseService) UpdateImage(ctx context.Context, principal, courseID uuid.UUID, file po.UploadFile) (*vo.MutationResult, error) {
	course, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}
	if file.Empty() {
		return nil, ErrValidation(map[string]string{"image": "is required"})
	}

	owner := po.AssetOwner{CourseID: course.ID}
	previous := course.ImagePath
	var uploaded string
	saga := Saga{
		Name: "course.update_image",
		Steps: []SagaStep{
			{
				Name: "upload_image",
				Forward: func(ctx context.Context) error {
					path, err := s.assets.Upload(ctx, po.AssetKindCourseImage, owner, file)
					if err != nil {
						return storeFailure(ctx, "upload course image", err)
					}
					uploaded = path
					return nil
				},
				Compensate: ptr(removeObjectAction(s.assets, "remove_uploaded_image", po.AssetKindCourseImage, owner, fixedPath(&uploaded))),
			},
			{
				Name: "swap_image_path",
				Forward: func(ctx context.Context) error {
					if err := s.courses.UpdateImagePath(ctx, nil, course.ID, &uploaded); err != nil {
						return s.rowFailure(ctx, "update course image", course.ID, err)
					}
					return nil
				},
			},
		},
		OnSuccess: []CleanupAction{
			removeObjectAction(s.assets, "remove_previous_image", po.AssetKindCourseImage, owner, fixedPath(previous)),
		},
	}
	if err := s.saga.Run(ctx, saga); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infof("UpdateImage: course_id=%s path=%s", course.ID, uploaded)
	return &vo.MutationResult{Message: "successfully updated course image"}, nil
}

// CreateAttachment 上传附件后插入附件行，插入失败时回收对象。
func (s *CourseService) CreateAttachment(ctx context.Context, principal, courseID uuid.UUID, file po.UploadFile) (*vo.MutationResult, error) {
	course, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}
	if file.Empty() {
		return nil, ErrValidation(map[string]string{"file": "is required"})
	}

	owner := po.AssetOwner{CourseID: course.ID}
	var uploaded string
	saga := Saga{
		Name: "course.create_attachment",
		Steps: []SagaStep{
			{
				Name: "upload_attachment",
				Forward: func(ctx context.Context) error {
					path, err := s.assets.Upload(ctx, po.AssetKindAttachment, owner, file)
					if err != nil {
						return storeFailure(ctx, "upload attachment", err)
					}
					uploaded = path
					return nil
				},
				Compensate: ptr(removeObjectAction(s.assets, "remove_uploaded_attachment", po.AssetKindAttachment, owner, fixedPath(&uploaded))),
			},
			{
				Name: "insert_attachment",
				Forward: func(ctx context.Context) error {
					_, err := s.attachments.Create(ctx, nil, repositories.CreateAttachmentInput{
						ID:          uuid.New(),
						CourseID:    course.ID,
						Name:        attachmentName(file.Name),
						StoragePath: uploaded,
					})
					if err != nil {
						return storeFailure(ctx, "insert attachment", err)
					}
					return nil
				},
			},
		},
	}
	if err := s.saga.Run(ctx, saga); err != nil {
		return nil, err
	}
	return &vo.MutationResult{Message: "successfully added course attachment"}, nil
}

// DeleteAttachment 先删除附件行，确认删除后再尽力删除对象。
func (s *CourseService) DeleteAttachment(ctx context.Context, principal, courseID, attachmentID uuid.UUID) (*vo.MutationResult, error) {
	course, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}
	attachment, err := s.attachments.Get(ctx, nil, attachmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrAttachmentNotFound) {
			return nil, ErrNotFound("attachment")
		}
		return nil, storeFailure(ctx, "load attachment", err)
	}
	if attachment.CourseID != course.ID {
		return nil, ErrNotFound("attachment")
	}
	if err := s.attachments.Delete(ctx, nil, attachment.ID); err != nil {
		if errors.Is(err, repositories.ErrAttachmentNotFound) {
			return nil, ErrNotFound("attachment")
		}
		return nil, storeFailure(ctx, "delete attachment", err)
	}
	owner := po.AssetOwner{CourseID: course.ID}
	s.saga.BestEffort(ctx, "course.delete_attachment",
		removeObjectAction(s.assets, "remove_attachment", po.AssetKindAttachment, owner, fixedPath(&attachment.StoragePath)))
	return &vo.MutationResult{Message: "successfully deleted course attachment"}, nil
}

// CreateChapter 在课程行锁内计算下一个位置并追加章节。
func (s *CourseService) CreateChapter(ctx context.Context, principal, courseID uuid.UUID, input ChapterTitleInput) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Check(input); err != nil {
		return nil, err
	}

	var created *po.Chapter
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if _, err := s.guard.RevalidateCourseOwner(txCtx, sess, courseID, principal); err != nil {
			return err
		}
		maxPos, err := s.chapters.MaxPosition(txCtx, sess, courseID)
		if err != nil {
			return err
		}
		created, err = s.chapters.Create(txCtx, sess, repositories.CreateChapterInput{
			ID:       uuid.New(),
			CourseID: courseID,
			Title:    input.Title,
			Position: maxPos + 1,
		})
		return err
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("create chapter failed: course_id=%s err=%v", courseID, err)
		return nil, passthrough(ctx, "create chapter", err)
	}
	s.log.WithContext(ctx).Infof("CreateChapter: course_id=%s chapter_id=%s position=%d", courseID, created.ID, created.Position)
	return &vo.MutationResult{Message: "successfully added course chapter"}, nil
}

// UpdatePublish 翻转课程发布状态，不校验章节发布约束。
func (s *CourseService) UpdatePublish(ctx context.Context, principal, courseID uuid.UUID) (*vo.MutationResult, error) {
	if _, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal); err != nil {
		return nil, err
	}
	var published bool
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		course, err := s.guard.RevalidateCourseOwner(txCtx, sess, courseID, principal)
		if err != nil {
			return err
		}
		published = !course.IsPublished
		return s.courses.SetPublished(txCtx, sess, courseID, published)
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("update publish failed: course_id=%s err=%v", courseID, err)
		return nil, passthrough(ctx, "update course publish state", err)
	}
	msg := "successfully unpublished course"
	if published {
		msg = "successfully published course"
	}
	return &vo.MutationResult{Message: msg, Confetti: published}, nil
}

// DeleteCourse 级联删除课程：先尽力清理外部资源，再在单个事务内删除附件、章节与课程行。
func (s *CourseService) DeleteCourse(ctx context.Context, principal, courseID uuid.UUID) (*vo.MutationResult, error) {
	course, err := s.guard.ResolveOwnedCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}

	var (
		chapters    []*po.Chapter
		attachments []*po.Attachment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chapters, err = s.chapters.ListByCourse(gctx, nil, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		attachments, err = s.attachments.ListByCourse(gctx, nil, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure(ctx, "load course children", err)
	}
	encoded, err := s.encoded.ListByChapters(ctx, nil, chapterIDs(chapters))
	if err != nil {
		return nil, storeFailure(ctx, "load encoded videos", err)
	}

	const sagaName = "course.delete"
	var cleanup errgroup.Group
	cleanup.SetLimit(cleanupConcurrency)
	for chapterID, record := range encoded {
		owner := po.AssetOwner{CourseID: courseID, ChapterID: chapterID}
		cleanup.Go(func() error {
			s.saga.BestEffort(ctx, sagaName, deleteEncodedAssetAction(s.encoder, "delete_encoded_asset", owner, record.AssetID))
			if err := s.encoded.Delete(context.WithoutCancel(ctx), nil, record.ID); err != nil && !errors.Is(err, repositories.ErrEncodedVideoNotFound) {
				s.log.WithContext(ctx).Warnf("delete encoded video record failed: chapter_id=%s err=%v", chapterID, err)
			}
			return nil
		})
	}
	_ = cleanup.Wait()

	var objects errgroup.Group
	objects.SetLimit(cleanupConcurrency)
	for _, ch := range chapters {
		if ch.VideoPath == nil || *ch.VideoPath == "" {
			continue
		}
		owner := po.AssetOwner{CourseID: courseID, ChapterID: ch.ID}
		action := removeObjectAction(s.assets, "remove_chapter_video", po.AssetKindChapterVideo, owner, fixedPath(ch.VideoPath))
		objects.Go(func() error {
			s.saga.BestEffort(ctx, sagaName, action)
			return nil
		})
	}
	for _, att := range attachments {
		owner := po.AssetOwner{CourseID: courseID}
		action := removeObjectAction(s.assets, "remove_attachment", po.AssetKindAttachment, owner, fixedPath(&att.StoragePath))
		objects.Go(func() error {
			s.saga.BestEffort(ctx, sagaName, action)
			return nil
		})
	}
	_ = objects.Wait()

	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if _, err := s.guard.RevalidateCourseOwner(txCtx, sess, courseID, principal); err != nil {
			return err
		}
		if _, err := s.attachments.DeleteByCourse(txCtx, sess, courseID); err != nil {
			return err
		}
		if _, err := s.chapters.DeleteByCourse(txCtx, sess, courseID); err != nil {
			return err
		}
		return s.courses.Delete(txCtx, sess, courseID)
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("delete course rows failed: course_id=%s err=%v", courseID, err)
		return nil, passthrough(ctx, "delete course", err)
	}

	s.saga.BestEffort(ctx, sagaName,
		removeObjectAction(s.assets, "remove_course_image", po.AssetKindCourseImage, po.AssetOwner{CourseID: courseID}, fixedPath(course.ImagePath)))
	s.log.WithContext(ctx).Infof("DeleteCourse: course_id=%s chapters=%d attachments=%d", courseID, len(chapters), len(attachments))
	return &vo.MutationResult{Message: "successfully deleted course"}, nil
}

func (s *CourseService) rowFailure(ctx context.Context, op string, courseID uuid.UUID, err error) error {
	if errors.Is(err, repositories.ErrCourseNotFound) {
		return ErrNotFound("course")
	}
	s.log.WithContext(ctx).Errorf("%s failed: course_id=%s err=%v", op, courseID, err)
	return storeFailure(ctx, op, err)
}

func (s *CourseService) imageURL(path string) string {
	return s.assets.PublicURL(po.AssetKindCourseImage, path)
}

func (s *CourseService) attachmentURL(path string) string {
	return s.assets.PublicURL(po.AssetKindAttachment, path)
}

func (s *CourseService) videoURL(path string) string {
	return s.assets.PublicURL(po.AssetKindChapterVideo, path)
}

func chapterIDs(chapters []*po.Chapter) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(chapters))
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}
	return ids
}

func attachmentName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	return name
}

func ptr[T any](v T) *T {
	return &v
}
