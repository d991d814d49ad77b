package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestChapterRepository_PositionsAndPublishedCounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	logger := log.NewStdLogger(io.Discard)
	courses := repositories.NewCourseRepository(pool, logger)
	chapters := repositories.NewChapterRepository(pool, logger)

	course, err := courses.Create(ctx, nil, repositories.CreateCourseInput{OwnerID: uuid.New(), Title: "Chaptered"})
	require.NoError(t, err)

	maxPos, err := chapters.MaxPosition(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Equal(t, int32(0), maxPos)

	first, err := chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: course.ID, Title: "one", Position: maxPos + 1})
	require.NoError(t, err)
	require.Equal(t, int32(1), first.Position)
	second, err := chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: course.ID, Title: "two", Position: 2})
	require.NoError(t, err)

	_, err = chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: course.ID, Title: "dup", Position: 2})
	require.Error(t, err)

	maxPos, err = chapters.MaxPosition(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), maxPos)

	require.NoError(t, chapters.SetPublished(ctx, nil, second.ID, true))
	require.NoError(t, chapters.UpdateAccess(ctx, nil, first.ID, true))
	require.NoError(t, chapters.UpdateDescription(ctx, nil, first.ID, "desc"))
	require.NoError(t, chapters.UpdateVideoPath(ctx, nil, first.ID, stringPtr("c/ch/1-a.mp4")))

	got, err := chapters.Get(ctx, nil, first.ID)
	require.NoError(t, err)
	require.True(t, got.IsFree)
	require.NotNil(t, got.Description)
	require.Equal(t, "desc", *got.Description)
	require.Equal(t, "c/ch/1-a.mp4", *got.VideoPath)

	count, err := chapters.CountPublished(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	ids, err := chapters.ListPublishedIDs(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{second.ID}, ids)

	other := uuid.New()
	counts, err := chapters.CountPublishedByCourses(ctx, nil, []uuid.UUID{course.ID, other})
	require.NoError(t, err)
	require.Equal(t, 1, counts[course.ID])
	require.Equal(t, 0, counts[other])

	list, err := chapters.ListByCourse(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	require.NoError(t, chapters.Delete(ctx, nil, first.ID))
	require.ErrorIs(t, chapters.Delete(ctx, nil, first.ID), repositories.ErrChapterNotFound)

	removed, err := chapters.DeleteByCourse(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestEncodedVideoRepository_OnePerChapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	logger := log.NewStdLogger(io.Discard)
	courses := repositories.NewCourseRepository(pool, logger)
	chapters := repositories.NewChapterRepository(pool, logger)
	encoded := repositories.NewEncodedVideoRepository(pool, logger)
	refs := repositories.NewAssetReferenceRepository(pool)

	course, err := courses.Create(ctx, nil, repositories.CreateCourseInput{OwnerID: uuid.New(), Title: "Video"})
	require.NoError(t, err)
	chapter, err := chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: course.ID, Title: "v", Position: 1})
	require.NoError(t, err)

	_, err = encoded.GetByChapter(ctx, nil, chapter.ID)
	require.ErrorIs(t, err, repositories.ErrEncodedVideoNotFound)

	rec, err := encoded.Create(ctx, nil, chapter.ID, po.EncodedAsset{AssetID: "asset-1", PlaybackID: "play-1"})
	require.NoError(t, err)

	_, err = encoded.Create(ctx, nil, chapter.ID, po.EncodedAsset{AssetID: "asset-2", PlaybackID: "play-2"})
	require.Error(t, err)

	live, err := refs.IsAssetLive(ctx, "asset-1")
	require.NoError(t, err)
	require.True(t, live)

	byChapter, err := encoded.ListByChapters(ctx, nil, []uuid.UUID{chapter.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, byChapter, 1)
	require.Equal(t, "play-1", byChapter[chapter.ID].PlaybackID)

	require.NoError(t, encoded.Delete(ctx, nil, rec.ID))
	require.ErrorIs(t, encoded.Delete(ctx, nil, rec.ID), repositories.ErrEncodedVideoNotFound)

	live, err = refs.IsAssetLive(ctx, "asset-1")
	require.NoError(t, err)
	require.False(t, live)
}

func TestAttachmentAndReferenceRepositories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	logger := log.NewStdLogger(io.Discard)
	courses := repositories.NewCourseRepository(pool, logger)
	attachments := repositories.NewAttachmentRepository(pool, logger)
	refs := repositories.NewAssetReferenceRepository(pool)

	course, err := courses.Create(ctx, nil, repositories.CreateCourseInput{OwnerID: uuid.New(), Title: "Docs"})
	require.NoError(t, err)

	att, err := attachments.Create(ctx, nil, repositories.CreateAttachmentInput{
		CourseID:    course.ID,
		Name:        "slides.pdf",
		StoragePath: course.ID.String() + "/x-slides.pdf",
	})
	require.NoError(t, err)

	referenced, err := refs.IsObjectReferenced(ctx, po.AssetKindAttachment, att.StoragePath)
	require.NoError(t, err)
	require.True(t, referenced)

	referenced, err = refs.IsObjectReferenced(ctx, po.AssetKindCourseImage, att.StoragePath)
	require.NoError(t, err)
	require.False(t, referenced)

	_, err = refs.IsObjectReferenced(ctx, po.AssetKind("unknown"), "x")
	require.Error(t, err)

	list, err := attachments.ListByCourse(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, attachments.Delete(ctx, nil, att.ID))
	_, err = attachments.Get(ctx, nil, att.ID)
	require.ErrorIs(t, err, repositories.ErrAttachmentNotFound)

	referenced, err = refs.IsObjectReferenced(ctx, po.AssetKindAttachment, att.StoragePath)
	require.NoError(t, err)
	require.False(t, referenced)
}

func TestEnrollmentRepository_PurchasesAndProgress(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	logger := log.NewStdLogger(io.Discard)
	courses := repositories.NewCourseRepository(pool, logger)
	chapters := repositories.NewChapterRepository(pool, logger)
	enrollment := repositories.NewEnrollmentRepository(pool)

	user := uuid.New()
	bought, err := courses.Create(ctx, nil, repositories.CreateCourseInput{OwnerID: uuid.New(), Title: "bought"})
	require.NoError(t, err)
	browsed, err := courses.Create(ctx, nil, repositories.CreateCourseInput{OwnerID: uuid.New(), Title: "browsed"})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO course.purchases (id, user_id, course_id) VALUES ($1, $2, $3)`, uuid.New(), user, bought.ID)
	require.NoError(t, err)

	purchased, err := enrollment.PurchasedCourseIDs(ctx, nil, user, []uuid.UUID{bought.ID, browsed.ID})
	require.NoError(t, err)
	require.True(t, purchased[bought.ID])
	require.False(t, purchased[browsed.ID])

	ch1, err := chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: bought.ID, Title: "1", Position: 1})
	require.NoError(t, err)
	ch2, err := chapters.Create(ctx, nil, repositories.CreateChapterInput{CourseID: bought.ID, Title: "2", Position: 2})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO course.progress_marks (id, user_id, chapter_id, is_completed) VALUES ($1, $2, $3, true), ($4, $2, $5, false)`,
		uuid.New(), user, ch1.ID, uuid.New(), ch2.ID)
	require.NoError(t, err)

	completed, err := enrollment.CountCompleted(ctx, nil, user, []uuid.UUID{ch1.ID, ch2.ID})
	require.NoError(t, err)
	require.Equal(t, 1, completed)

	completed, err = enrollment.CountCompleted(ctx, nil, uuid.Nil, []uuid.UUID{ch1.ID})
	require.NoError(t, err)
	require.Equal(t, 0, completed)
}
