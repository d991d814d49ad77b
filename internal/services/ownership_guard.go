package services

import (
	"context"
	"errors"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// OwnershipGuard 校验主体对课程/章节的所有权，所有写操作在触达存储前调用。
type OwnershipGuard struct {
	courses  CourseRepo
	chapters ChapterRepo
	log      *log.Helper
}

// NewOwnershipGuard 构造所有权校验器。
func NewOwnershipGuard(courses CourseRepo, chapters ChapterRepo, logger log.Logger) *OwnershipGuard {
	return &OwnershipGuard{courses: courses, chapters: chapters, log: log.NewHelper(logger)}
}

// ResolveOwnedCourse 依次检查主体、课程存在性与所有者，返回课程记录。
func (g *OwnershipGuard) ResolveOwnedCourse(ctx context.Context, courseID, principal uuid.UUID) (*po.Course, error) {
	if principal == uuid.Nil {
		return nil, ErrUnauthenticated()
	}
	course, err := g.courses.Get(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, ErrNotFound("course")
		}
		return nil, storeFailure(ctx, "load course", err)
	}
	if !course.OwnedBy(principal) {
		g.log.WithContext(ctx).Warnf("ownership denied: course_id=%s principal=%s", courseID, principal)
		return nil, ErrForbidden("course")
	}
	return course, nil
}

// ResolveOwnedChapter 在课程校验链之外额外解析父课程，父课程缺失视为 NotFound。
func (g *OwnershipGuard) ResolveOwnedChapter(ctx context.Context, chapterID, principal uuid.UUID) (*po.Chapter, *po.Course, error) {
	if principal == uuid.Nil {
		return nil, nil, ErrUnauthenticated()
	}
	chapter, err := g.chapters.Get(ctx, nil, chapterID)
	if err != nil {
		if errors.Is(err, repositories.ErrChapterNotFound) {
			return nil, nil, ErrNotFound("chapter")
		}
		return nil, nil, storeFailure(ctx, "load chapter", err)
	}
	course, err := g.ResolveOwnedCourse(ctx, chapter.CourseID, principal)
	if err != nil {
		return nil, nil, err
	}
	return chapter, course, nil
}

// RevalidateCourseOwner 在事务内以行锁重新确认所有权，消除检查与写入之间的竞态窗口。
func (g *OwnershipGuard) RevalidateCourseOwner(ctx context.Context, sess txmanager.Session, courseID, principal uuid.UUID) (*po.Course, error) {
	if principal == uuid.Nil {
		return nil, ErrUnauthenticated()
	}
	course, err := g.courses.GetForUpdate(ctx, sess, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, ErrNotFound("course")
		}
		return nil, err
	}
	if !course.OwnedBy(principal) {
		return nil, ErrForbidden("course")
	}
	return course, nil
}
