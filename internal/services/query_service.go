package services

import (
	"context"
	"strings"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/models/vo"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const progressConcurrency = 8

// CourseFilter 为学员侧课程列表的过滤条件。
type CourseFilter struct {
	Principal  uuid.UUID
	Title      string
	CategoryID *uuid.UUID
}

// QueryService 提供学员侧只读查询：课程列表、学习进度与检索页。
type QueryService struct {
	courses     CourseRepo
	chapters    ChapterRepo
	categories  CategoryRepo
	enrollments EnrollmentRepo
	assets      AssetStore
	txManager   txmanager.Manager
	log         *log.Helper
}

// NewQueryService 构造查询服务。
func NewQueryService(courses CourseRepo, chapters ChapterRepo, categories CategoryRepo, enrollments EnrollmentRepo, assets AssetStore, tx txmanager.Manager, logger log.Logger) *QueryService {
	return &QueryService{
		courses:     courses,
		chapters:    chapters,
		categories:  categories,
		enrollments: enrollments,
		assets:      assets,
		txManager:   tx,
		log:         log.NewHelper(logger),
	}
}

// GetProgress 返回主体在课程已发布章节上的完成百分比，范围 [0, 100]。
// 无主体、无已发布章节或任一查询失败时返回 0。
func (s *QueryService) GetProgress(ctx context.Context, principal, courseID uuid.UUID) float64 {
	if principal == uuid.Nil {
		return 0
	}
	var progress float64
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		chapterIDs, err := s.chapters.ListPublishedIDs(txCtx, sess, courseID)
		if err != nil {
			return err
		}
		if len(chapterIDs) == 0 {
			return nil
		}
		completed, err := s.enrollments.CountCompleted(txCtx, sess, principal, chapterIDs)
		if err != nil {
			return err
		}
		progress = percentage(completed, len(chapterIDs))
		return nil
	})
	if err != nil {
		s.log.WithContext(ctx).Warnf("get progress failed: course_id=%s user=%s err=%v", courseID, principal, err)
		return 0
	}
	return progress
}

// GetCourses 返回已发布课程并补充分类、章节数、购买状态与进度；任一查询失败返回空列表。
func (s *QueryService) GetCourses(ctx context.Context, filter CourseFilter) []*vo.CourseWithMeta {
	empty := []*vo.CourseWithMeta{}
	listings, err := s.courses.ListPublished(ctx, nil, repositories.ListPublishedFilter{
		Title:      strings.TrimSpace(filter.Title),
		CategoryID: filter.CategoryID,
	})
	if err != nil {
		s.log.WithContext(ctx).Warnf("list published courses failed: err=%v", err)
		return empty
	}
	if len(listings) == 0 {
		return empty
	}

	courseIDs := make([]uuid.UUID, 0, len(listings))
	for _, l := range listings {
		courseIDs = append(courseIDs, l.ID)
	}

	var (
		purchased map[uuid.UUID]bool
		counts    map[uuid.UUID]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		purchased, err = s.enrollments.PurchasedCourseIDs(gctx, nil, filter.Principal, courseIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.chapters.CountPublishedByCourses(gctx, nil, courseIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).Warnf("enrich course listing failed: err=%v", err)
		return empty
	}

	result := make([]*vo.CourseWithMeta, len(listings))
	var progress errgroup.Group
	progress.SetLimit(progressConcurrency)
	for i, listing := range listings {
		item := &vo.CourseWithMeta{
			CourseWithAssets: *vo.NewCourseWithAssets(&listing.Course, s.imageURL),
			Category:         categoryOf(listing),
			ChapterCount:     counts[listing.ID],
			HasPurchase:      filter.Principal != uuid.Nil && purchased[listing.ID],
		}
		result[i] = item
		if !item.HasPurchase {
			continue
		}
		progress.Go(func() error {
			value := s.GetProgress(ctx, filter.Principal, listing.ID)
			item.Progress = &value
			return nil
		})
	}
	_ = progress.Wait()
	return result
}

// Search 返回检索页所需的分类与课程；分类查询失败时两者均为空。
func (s *QueryService) Search(ctx context.Context, filter CourseFilter) *vo.SearchResult {
	categories, err := s.categories.List(ctx, nil)
	if err != nil {
		s.log.WithContext(ctx).Warnf("list categories failed: err=%v", err)
		return &vo.SearchResult{Categories: []*vo.CategoryView{}, Courses: []*vo.CourseWithMeta{}}
	}
	views := make([]*vo.CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, vo.NewCategoryView(c))
	}
	return &vo.SearchResult{
		Categories: views,
		Courses:    s.GetCourses(ctx, filter),
	}
}

func (s *QueryService) imageURL(path string) string {
	return s.assets.PublicURL(po.AssetKindCourseImage, path)
}

func categoryOf(listing *po.CourseListing) *vo.CategoryView {
	if listing.CategoryID == nil || listing.CategoryName == nil {
		return nil
	}
	return &vo.CategoryView{ID: *listing.CategoryID, Name: *listing.CategoryName}
}

func percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	value := float64(completed) / float64(total) * 100
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
