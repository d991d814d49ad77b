package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/models/po"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	"github.com/bionicotaku/lingo-services-course/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

var errInjected = errors.New("injected failure")

type noopTxManager struct{}

func (noopTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, nil)
}

func (noopTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, nil)
}

// memDB 为各仓储桩共享的内存数据。
type memDB struct {
	mu          sync.Mutex
	clock       time.Time
	courses     map[uuid.UUID]*po.Course
	chapters    map[uuid.UUID]*po.Chapter
	attachments map[uuid.UUID]*po.Attachment
	encoded     map[uuid.UUID]*po.EncodedVideo
	categories  map[uuid.UUID]*po.Category
	purchases   map[uuid.UUID]map[uuid.UUID]bool
	completed   map[uuid.UUID]map[uuid.UUID]bool
	fail        map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		clock:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		courses:     map[uuid.UUID]*po.Course{},
		chapters:    map[uuid.UUID]*po.Chapter{},
		attachments: map[uuid.UUID]*po.Attachment{},
		encoded:     map[uuid.UUID]*po.EncodedVideo{},
		categories:  map[uuid.UUID]*po.Category{},
		purchases:   map[uuid.UUID]map[uuid.UUID]bool{},
		completed:   map[uuid.UUID]map[uuid.UUID]bool{},
		fail:        map[string]error{},
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	return db.clock
}

func (db *memDB) failFor(op string) error {
	return db.fail[op]
}

func (db *memDB) addCourse(owner uuid.UUID, title string, published bool) *po.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.tick()
	c := &po.Course{ID: uuid.New(), OwnerID: owner, Title: title, IsPublished: published, CreatedAt: now, UpdatedAt: now}
	db.courses[c.ID] = c
	return c
}

func (db *memDB) addChapter(courseID uuid.UUID, published bool) *po.Chapter {
	db.mu.Lock()
	defer db.mu.Unlock()
	var maxPos int32
	for _, ch := range db.chapters {
		if ch.CourseID == courseID && ch.Position > maxPos {
			maxPos = ch.Position
		}
	}
	now := db.tick()
	ch := &po.Chapter{ID: uuid.New(), CourseID: courseID, Position: maxPos + 1, Title: "chapter", IsPublished: published, CreatedAt: now, UpdatedAt: now}
	db.chapters[ch.ID] = ch
	return ch
}

func (db *memDB) addCategory(name string) *po.Category {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := &po.Category{ID: uuid.New(), Name: name, CreatedAt: db.tick()}
	db.categories[c.ID] = c
	return c
}

func (db *memDB) course(id uuid.UUID) *po.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.courses[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (db *memDB) chapter(id uuid.UUID) *po.Chapter {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.chapters[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (db *memDB) encodedFor(chapterID uuid.UUID) []*po.EncodedVideo {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*po.EncodedVideo
	for _, rec := range db.encoded {
		if rec.ChapterID == chapterID {
			out = append(out, rec)
		}
	}
	return out
}

type courseRepo struct{ db *memDB }

func (r courseRepo) Create(_ context.Context, _ txmanager.Session, in repositories.CreateCourseInput) (*po.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses.Create"); err != nil {
		return nil, err
	}
	now := r.db.tick()
	c := &po.Course{ID: in.ID, OwnerID: in.OwnerID, Title: in.Title, CreatedAt: now, UpdatedAt: now}
	r.db.courses[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r courseRepo) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses.Get"); err != nil {
		return nil, err
	}
	c, ok := r.db.courses[id]
	if !ok {
		return nil, repositories.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r courseRepo) GetForUpdate(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Course, error) {
	return r.Get(ctx, sess, id)
}

func (r courseRepo) ListByOwner(_ context.Context, _ txmanager.Session, owner uuid.UUID) ([]*po.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses.ListByOwner"); err != nil {
		return nil, err
	}
	var out []*po.Course
	for _, c := range r.db.courses {
		if c.OwnerID == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r courseRepo) ListPublished(_ context.Context, _ txmanager.Session, filter repositories.ListPublishedFilter) ([]*po.CourseListing, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses.ListPublished"); err != nil {
		return nil, err
	}
	var out []*po.CourseListing
	for _, c := range r.db.courses {
		if !c.IsPublished {
			continue
		}
		if filter.Title != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.CategoryID != nil && (c.CategoryID == nil || *c.CategoryID != *filter.CategoryID) {
			continue
		}
		listing := &po.CourseListing{Course: *c}
		if c.CategoryID != nil {
			if cat, ok := r.db.categories[*c.CategoryID]; ok {
				name := cat.Name
				listing.CategoryName = &name
			}
		}
		out = append(out, listing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r courseRepo) mutate(op string, id uuid.UUID, fn func(c *po.Course)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses." + op); err != nil {
		return err
	}
	c, ok := r.db.courses[id]
	if !ok {
		return repositories.ErrCourseNotFound
	}
	fn(c)
	c.UpdatedAt = r.db.tick()
	return nil
}

func (r courseRepo) UpdateTitle(_ context.Context, _ txmanager.Session, id uuid.UUID, title string) error {
	return r.mutate("UpdateTitle", id, func(c *po.Course) { c.Title = title })
}

func (r courseRepo) UpdateDescription(_ context.Context, _ txmanager.Session, id uuid.UUID, description string) error {
	return r.mutate("UpdateDescription", id, func(c *po.Course) { c.Description = description })
}

func (r courseRepo) UpdateCategory(_ context.Context, _ txmanager.Session, id uuid.UUID, categoryID *uuid.UUID) error {
	return r.mutate("UpdateCategory", id, func(c *po.Course) { c.CategoryID = categoryID })
}

func (r courseRepo) UpdatePrice(_ context.Context, _ txmanager.Session, id uuid.UUID, price *float64) error {
	return r.mutate("UpdatePrice", id, func(c *po.Course) { c.Price = price })
}

func (r courseRepo) UpdateImagePath(_ context.Context, _ txmanager.Session, id uuid.UUID, path *string) error {
	var value *string
	if path != nil {
		v := *path
		value = &v
	}
	return r.mutate("UpdateImagePath", id, func(c *po.Course) { c.ImagePath = value })
}

func (r courseRepo) SetPublished(_ context.Context, _ txmanager.Session, id uuid.UUID, published bool) error {
	return r.mutate("SetPublished", id, func(c *po.Course) { c.IsPublished = published })
}

func (r courseRepo) Delete(_ context.Context, _ txmanager.Session, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("courses.Delete"); err != nil {
		return err
	}
	if _, ok := r.db.courses[id]; !ok {
		return repositories.ErrCourseNotFound
	}
	delete(r.db.courses, id)
	return nil
}

type chapterRepo struct{ db *memDB }

func (r chapterRepo) Create(_ context.Context, _ txmanager.Session, in repositories.CreateChapterInput) (*po.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.Create"); err != nil {
		return nil, err
	}
	for _, ch := range r.db.chapters {
		if ch.CourseID == in.CourseID && ch.Position == in.Position {
			return nil, fmt.Errorf("duplicate position %d", in.Position)
		}
	}
	now := r.db.tick()
	ch := &po.Chapter{ID: in.ID, CourseID: in.CourseID, Title: in.Title, Position: in.Position, CreatedAt: now, UpdatedAt: now}
	r.db.chapters[ch.ID] = ch
	cp := *ch
	return &cp, nil
}

func (r chapterRepo) MaxPosition(_ context.Context, _ txmanager.Session, courseID uuid.UUID) (int32, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var maxPos int32
	for _, ch := range r.db.chapters {
		if ch.CourseID == courseID && ch.Position > maxPos {
			maxPos = ch.Position
		}
	}
	return maxPos, nil
}

func (r chapterRepo) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ch, ok := r.db.chapters[id]
	if !ok {
		return nil, repositories.ErrChapterNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r chapterRepo) ListByCourse(_ context.Context, _ txmanager.Session, courseID uuid.UUID) ([]*po.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.ListByCourse"); err != nil {
		return nil, err
	}
	var out []*po.Chapter
	for _, ch := range r.db.chapters {
		if ch.CourseID == courseID {
			cp := *ch
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r chapterRepo) mutate(op string, id uuid.UUID, fn func(ch *po.Chapter)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters." + op); err != nil {
		return err
	}
	ch, ok := r.db.chapters[id]
	if !ok {
		return repositories.ErrChapterNotFound
	}
	fn(ch)
	ch.UpdatedAt = r.db.tick()
	return nil
}

func (r chapterRepo) UpdateTitle(_ context.Context, _ txmanager.Session, id uuid.UUID, title string) error {
	return r.mutate("UpdateTitle", id, func(ch *po.Chapter) { ch.Title = title })
}

func (r chapterRepo) UpdateDescription(_ context.Context, _ txmanager.Session, id uuid.UUID, description string) error {
	return r.mutate("UpdateDescription", id, func(ch *po.Chapter) { ch.Description = &description })
}

func (r chapterRepo) UpdateAccess(_ context.Context, _ txmanager.Session, id uuid.UUID, isFree bool) error {
	return r.mutate("UpdateAccess", id, func(ch *po.Chapter) { ch.IsFree = isFree })
}

func (r chapterRepo) UpdateVideoPath(_ context.Context, _ txmanager.Session, id uuid.UUID, path *string) error {
	var value *string
	if path != nil {
		v := *path
		value = &v
	}
	return r.mutate("UpdateVideoPath", id, func(ch *po.Chapter) { ch.VideoPath = value })
}

func (r chapterRepo) SetPublished(_ context.Context, _ txmanager.Session, id uuid.UUID, published bool) error {
	return r.mutate("SetPublished", id, func(ch *po.Chapter) { ch.IsPublished = published })
}

func (r chapterRepo) Delete(_ context.Context, _ txmanager.Session, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.Delete"); err != nil {
		return err
	}
	if _, ok := r.db.chapters[id]; !ok {
		return repositories.ErrChapterNotFound
	}
	delete(r.db.chapters, id)
	for recID, rec := range r.db.encoded {
		if rec.ChapterID == id {
			delete(r.db.encoded, recID)
		}
	}
	return nil
}

func (r chapterRepo) DeleteByCourse(_ context.Context, _ txmanager.Session, courseID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.DeleteByCourse"); err != nil {
		return 0, err
	}
	var n int64
	for id, ch := range r.db.chapters {
		if ch.CourseID == courseID {
			delete(r.db.chapters, id)
			n++
		}
	}
	return n, nil
}

func (r chapterRepo) CountPublished(_ context.Context, _ txmanager.Session, courseID uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, ch := range r.db.chapters {
		if ch.CourseID == courseID && ch.IsPublished {
			n++
		}
	}
	return n, nil
}

func (r chapterRepo) ListPublishedIDs(_ context.Context, _ txmanager.Session, courseID uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.ListPublishedIDs"); err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, ch := range r.db.chapters {
		if ch.CourseID == courseID && ch.IsPublished {
			ids = append(ids, ch.ID)
		}
	}
	return ids, nil
}

func (r chapterRepo) CountPublishedByCourses(_ context.Context, _ txmanager.Session, courseIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("chapters.CountPublishedByCourses"); err != nil {
		return nil, err
	}
	wanted := map[uuid.UUID]bool{}
	for _, id := range courseIDs {
		wanted[id] = true
	}
	counts := map[uuid.UUID]int{}
	for _, ch := range r.db.chapters {
		if ch.IsPublished && wanted[ch.CourseID] {
			counts[ch.CourseID]++
		}
	}
	return counts, nil
}

type attachmentRepo struct{ db *memDB }

func (r attachmentRepo) Create(_ context.Context, _ txmanager.Session, in repositories.CreateAttachmentInput) (*po.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("attachments.Create"); err != nil {
		return nil, err
	}
	att := &po.Attachment{ID: in.ID, CourseID: in.CourseID, Name: in.Name, StoragePath: in.StoragePath, CreatedAt: r.db.tick()}
	r.db.attachments[att.ID] = att
	cp := *att
	return &cp, nil
}

func (r attachmentRepo) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	att, ok := r.db.attachments[id]
	if !ok {
		return nil, repositories.ErrAttachmentNotFound
	}
	cp := *att
	return &cp, nil
}

func (r attachmentRepo) ListByCourse(_ context.Context, _ txmanager.Session, courseID uuid.UUID) ([]*po.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*po.Attachment
	for _, att := range r.db.attachments {
		if att.CourseID == courseID {
			cp := *att
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r attachmentRepo) Delete(_ context.Context, _ txmanager.Session, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("attachments.Delete"); err != nil {
		return err
	}
	if _, ok := r.db.attachments[id]; !ok {
		return repositories.ErrAttachmentNotFound
	}
	delete(r.db.attachments, id)
	return nil
}

func (r attachmentRepo) DeleteByCourse(_ context.Context, _ txmanager.Session, courseID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, att := range r.db.attachments {
		if att.CourseID == courseID {
			delete(r.db.attachments, id)
			n++
		}
	}
	return n, nil
}

type encodedRepo struct{ db *memDB }

func (r encodedRepo) GetByChapter(_ context.Context, _ txmanager.Session, chapterID uuid.UUID) (*po.EncodedVideo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("encoded.GetByChapter"); err != nil {
		return nil, err
	}
	for _, rec := range r.db.encoded {
		if rec.ChapterID == chapterID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repositories.ErrEncodedVideoNotFound
}

func (r encodedRepo) ListByChapters(_ context.Context, _ txmanager.Session, chapterIDs []uuid.UUID) (map[uuid.UUID]*po.EncodedVideo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	wanted := map[uuid.UUID]bool{}
	for _, id := range chapterIDs {
		wanted[id] = true
	}
	out := map[uuid.UUID]*po.EncodedVideo{}
	for _, rec := range r.db.encoded {
		if wanted[rec.ChapterID] {
			cp := *rec
			out[rec.ChapterID] = &cp
		}
	}
	return out, nil
}

func (r encodedRepo) Create(_ context.Context, _ txmanager.Session, chapterID uuid.UUID, asset po.EncodedAsset) (*po.EncodedVideo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("encoded.Create"); err != nil {
		return nil, err
	}
	for _, rec := range r.db.encoded {
		if rec.ChapterID == chapterID {
			return nil, fmt.Errorf("encoded video already exists for chapter %s", chapterID)
		}
	}
	rec := &po.EncodedVideo{ID: uuid.New(), ChapterID: chapterID, AssetID: asset.AssetID, PlaybackID: asset.PlaybackID, CreatedAt: r.db.tick()}
	r.db.encoded[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (r encodedRepo) Delete(_ context.Context, _ txmanager.Session, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("encoded.Delete"); err != nil {
		return err
	}
	if _, ok := r.db.encoded[id]; !ok {
		return repositories.ErrEncodedVideoNotFound
	}
	delete(r.db.encoded, id)
	return nil
}

type categoryRepo struct{ db *memDB }

func (r categoryRepo) List(_ context.Context, _ txmanager.Session) ([]*po.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("categories.List"); err != nil {
		return nil, err
	}
	var out []*po.Category
	for _, c := range r.db.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r categoryRepo) Exists(_ context.Context, _ txmanager.Session, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.categories[id]
	return ok, nil
}

type enrollmentRepo struct{ db *memDB }

func (r enrollmentRepo) PurchasedCourseIDs(_ context.Context, _ txmanager.Session, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("enrollments.PurchasedCourseIDs"); err != nil {
		return nil, err
	}
	out := map[uuid.UUID]bool{}
	for _, id := range courseIDs {
		if r.db.purchases[userID][id] {
			out[id] = true
		}
	}
	return out, nil
}

func (r enrollmentRepo) CountCompleted(_ context.Context, _ txmanager.Session, userID uuid.UUID, chapterIDs []uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failFor("enrollments.CountCompleted"); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range chapterIDs {
		if r.db.completed[userID][id] {
			n++
		}
	}
	return n, nil
}

func (db *memDB) purchase(userID, courseID uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.purchases[userID] == nil {
		db.purchases[userID] = map[uuid.UUID]bool{}
	}
	db.purchases[userID][courseID] = true
}

func (db *memDB) complete(userID, chapterID uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.completed[userID] == nil {
		db.completed[userID] = map[uuid.UUID]bool{}
	}
	db.completed[userID][chapterID] = true
}

// fakeAssets 为内存对象存储。
type fakeAssets struct {
	mu        sync.Mutex
	objects   map[po.AssetKind]map[string]bool
	uploadErr error
	removeErr error
	removed   []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{objects: map[po.AssetKind]map[string]bool{}}
}

func (f *fakeAssets) Upload(_ context.Context, kind po.AssetKind, owner po.AssetOwner, file po.UploadFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	path := fmt.Sprintf("%s/%s-%s", owner.CourseID, uuid.NewString(), file.Name)
	if kind == po.AssetKindChapterVideo {
		path = fmt.Sprintf("%s/%s/%s-%s", owner.CourseID, owner.ChapterID, uuid.NewString(), file.Name)
	}
	if f.objects[kind] == nil {
		f.objects[kind] = map[string]bool{}
	}
	f.objects[kind][path] = true
	return path, nil
}

func (f *fakeAssets) Remove(_ context.Context, kind po.AssetKind, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects[kind], path)
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeAssets) PublicURL(kind po.AssetKind, path string) string {
	return "https://cdn.test/" + string(kind) + "/" + path
}

func (f *fakeAssets) put(kind po.AssetKind, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[kind] == nil {
		f.objects[kind] = map[string]bool{}
	}
	f.objects[kind][path] = true
}

func (f *fakeAssets) count(kind po.AssetKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects[kind])
}

func (f *fakeAssets) has(kind po.AssetKind, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[kind][path]
}

// fakeEncoder 为内存视频编码服务。
type fakeEncoder struct {
	mu        sync.Mutex
	assets    map[string]string
	createErr error
	deleteErr error
	seq       int
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{assets: map[string]string{}}
}

func (f *fakeEncoder) CreateAsset(_ context.Context, sourceURL string) (po.EncodedAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return po.EncodedAsset{}, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("asset-%d", f.seq)
	f.assets[id] = sourceURL
	return po.EncodedAsset{AssetID: id, PlaybackID: fmt.Sprintf("play-%d", f.seq)}, nil
}

func (f *fakeEncoder) DeleteAsset(_ context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.assets, assetID)
	return nil
}

func (f *fakeEncoder) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets)
}

// recordingReporter 记录上报的孤儿候选。
type recordingReporter struct {
	mu         sync.Mutex
	candidates []events.OrphanCandidate
}

func (r *recordingReporter) Report(_ context.Context, c events.OrphanCandidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, c)
	return nil
}

func (r *recordingReporter) all() []events.OrphanCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.OrphanCandidate(nil), r.candidates...)
}

// fixture 组装服务层与全部桩。
type fixture struct {
	db       *memDB
	assets   *fakeAssets
	encoder  *fakeEncoder
	reporter *recordingReporter
	guard    *services.OwnershipGuard
	course   *services.CourseService
	chapter  *services.ChapterService
	query    *services.QueryService
}

func newFixture() *fixture {
	logger := log.NewStdLogger(io.Discard)
	db := newMemDB()
	assets := newFakeAssets()
	encoder := newFakeEncoder()
	reporter := &recordingReporter{}

	courses := courseRepo{db: db}
	chapters := chapterRepo{db: db}
	encoded := encodedRepo{db: db}
	tx := noopTxManager{}
	guard := services.NewOwnershipGuard(courses, chapters, logger)
	saga := services.NewSagaExecutor(reporter, logger)
	validator := services.NewPayloadValidator()

	return &fixture{
		db:       db,
		assets:   assets,
		encoder:  encoder,
		reporter: reporter,
		guard:    guard,
		course: services.NewCourseService(services.CourseServiceDeps{
			Guard:       guard,
			Courses:     courses,
			Chapters:    chapters,
			Attachments: attachmentRepo{db: db},
			Encoded:     encoded,
			Categories:  categoryRepo{db: db},
			Assets:      assets,
			Encoder:     encoder,
			Saga:        saga,
			Validator:   validator,
			TxManager:   tx,
		}, logger),
		chapter: services.NewChapterService(services.ChapterServiceDeps{
			Guard:     guard,
			Courses:   courses,
			Chapters:  chapters,
			Encoded:   encoded,
			Assets:    assets,
			Encoder:   encoder,
			Saga:      saga,
			Validator: validator,
			TxManager: tx,
		}, logger),
		query: services.NewQueryService(courses, chapters, categoryRepo{db: db}, enrollmentRepo{db: db}, assets, tx, logger),
	}
}

func uploadFile(name string) po.UploadFile {
	body := "binary-" + name
	return po.UploadFile{Name: name, ContentType: "application/octet-stream", Size: int64(len(body)), Body: strings.NewReader(body)}
}
