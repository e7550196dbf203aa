package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/RealCodeCrafter/ERP/core/attendance"
)

type attendanceRepository struct {
	db        *attendanceTable
	lessonTbl *lessonTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance, lessonTbl: db.lesson}
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.table {
		if a.StudentID == att.StudentID && a.LessonID == att.LessonID {
			return attendance.Attendance{}, attendance.ErrDuplicate
		}
	}
	repo.db.pkCount++
	att.ID = repo.db.pkCount
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) GetAttendanceByStudentLesson(_ context.Context, studentID, lessonID int) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.table {
		if att.StudentID == studentID && att.LessonID == lessonID {
			return *att, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryAttendanceByLesson(_ context.Context, lessonID int) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []attendance.Attendance
	for _, att := range repo.db.table {
		if att.LessonID == lessonID {
			records = append(records, *att)
		}
	}
	sortAttendance(records)
	return records, nil
}

func (repo *attendanceRepository) QueryAttendanceByStudentGroup(_ context.Context, studentID, groupID int) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []attendance.Attendance
	for _, att := range repo.db.table {
		if att.StudentID == studentID && att.GroupID == groupID {
			records = append(records, *att)
		}
	}
	sortAttendance(records)
	return records, nil
}

func (repo *attendanceRepository) QueryAttendanceByGroupDate(_ context.Context, groupID int, date time.Time) ([]attendance.Attendance, error) {
	// the lesson table lock nests inside the attendance lock here; no other
	// path locks them in the opposite order
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.lessonTbl.RLock()
	defer repo.lessonTbl.RUnlock()

	lessonsOnDay := make(map[int]struct{})
	for _, lsn := range repo.lessonTbl.table {
		if lsn.GroupID == groupID && sameDay(lsn.Date, date) {
			lessonsOnDay[lsn.ID] = struct{}{}
		}
	}

	var records []attendance.Attendance
	for _, att := range repo.db.table {
		if _, ok := lessonsOnDay[att.LessonID]; ok {
			records = append(records, *att)
		}
	}
	sortAttendance(records)
	return records, nil
}

func (repo *attendanceRepository) HasAttendanceForLesson(_ context.Context, lessonID int) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.table {
		if att.LessonID == lessonID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *attendanceRepository) UpdateAttendance(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[att.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	orig.Status = att.Status
	orig.UpdatedAt = att.UpdatedAt
	return *orig, nil
}

func sortAttendance(records []attendance.Attendance) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}
