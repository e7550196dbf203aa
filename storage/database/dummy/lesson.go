package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/RealCodeCrafter/ERP/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db.lesson}
}

func (repo *lessonRepository) CreateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	lsn.ID = repo.db.pkCount
	repo.db.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *lessonRepository) GetLessonByID(_ context.Context, id int) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.table[id]; ok {
		return *lsn, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryLessonsByGroup(_ context.Context, groupID int, filter lesson.QueryFilter) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons []lesson.Lesson
	for _, lsn := range repo.db.table {
		if lsn.GroupID != groupID {
			continue
		}
		if !filter.Date.IsZero() && !sameDay(lsn.Date, filter.Date) {
			continue
		}
		lessons = append(lessons, *lsn)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })
	return lessons, nil
}

func (repo *lessonRepository) QueryLessonsBetween(_ context.Context, from, to time.Time) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons []lesson.Lesson
	for _, lsn := range repo.db.table {
		if lsn.Date.Before(from) || lsn.Date.After(to) {
			continue
		}
		lessons = append(lessons, *lsn)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Date.Before(lessons[j].Date) })
	return lessons, nil
}

func (repo *lessonRepository) FirstLessonDate(_ context.Context, groupID int) (time.Time, bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var first time.Time
	found := false
	for _, lsn := range repo.db.table {
		if lsn.GroupID != groupID {
			continue
		}
		if !found || lsn.Date.Before(first) {
			first = lsn.Date
			found = true
		}
	}
	return first, found, nil
}

func (repo *lessonRepository) NextLessonNumber(_ context.Context, groupID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	max := 0
	for _, lsn := range repo.db.table {
		if lsn.GroupID == groupID && lsn.Number > max {
			max = lsn.Number
		}
	}
	return max + 1, nil
}

func (repo *lessonRepository) UpdateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[lsn.ID]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	orig.Name = lsn.Name
	orig.EndDate = lsn.EndDate
	orig.UpdatedAt = lsn.UpdatedAt
	return *orig, nil
}

func (repo *lessonRepository) DeleteLesson(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return lesson.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
