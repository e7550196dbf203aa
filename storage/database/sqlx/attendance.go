package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/attendance"
)

type attendanceRow struct {
	ID        int       `db:"id"`
	LessonID  int       `db:"lesson_id"`
	GroupID   int       `db:"group_id"`
	StudentID int       `db:"student_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) model() attendance.Attendance {
	return attendance.Attendance{
		ID:        r.ID,
		LessonID:  r.LessonID,
		GroupID:   r.GroupID,
		StudentID: r.StudentID,
		Status:    attendance.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	const q = `
		INSERT INTO attendance (lesson_id, group_id, student_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lesson_id, student_id) DO NOTHING
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		att.LessonID, att.GroupID, att.StudentID, att.Status, att.CreatedAt, att.UpdatedAt,
	).Scan(&att.ID)
	if err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrDuplicate, "inserting attendance")
	}
	return att, nil
}

func (repo *attendanceRepository) GetAttendanceByStudentLesson(ctx context.Context, studentID, lessonID int) (attendance.Attendance, error) {
	var row attendanceRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM attendance WHERE student_id = $1 AND lesson_id = $2`, studentID, lessonID)
	if err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "getting attendance")
	}
	return row.model(), nil
}

func (repo *attendanceRepository) QueryAttendanceByLesson(ctx context.Context, lessonID int) ([]attendance.Attendance, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance WHERE lesson_id = $1 ORDER BY id`, lessonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by lesson")
	}
	return attendanceModels(rows), nil
}

func (repo *attendanceRepository) QueryAttendanceByStudentGroup(ctx context.Context, studentID, groupID int) ([]attendance.Attendance, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance WHERE student_id = $1 AND group_id = $2 ORDER BY id`, studentID, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by student")
	}
	return attendanceModels(rows), nil
}

func (repo *attendanceRepository) QueryAttendanceByGroupDate(ctx context.Context, groupID int, date time.Time) ([]attendance.Attendance, error) {
	const q = `
		SELECT a.* FROM attendance a
		JOIN lesson l ON l.id = a.lesson_id
		WHERE a.group_id = $1 AND l.date::date = $2::date
		ORDER BY a.id`
	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, groupID, date); err != nil {
		return nil, errors.Wrap(err, "querying attendance by date")
	}
	return attendanceModels(rows), nil
}

func (repo *attendanceRepository) HasAttendanceForLesson(ctx context.Context, lessonID int) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE lesson_id = $1)`, lessonID)
	if err != nil {
		return false, errors.Wrap(err, "checking attendance existence")
	}
	return exists, nil
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	const q = `UPDATE attendance SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, att.Status, att.UpdatedAt, att.ID)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return repo.GetAttendanceByStudentLesson(ctx, att.StudentID, att.LessonID)
}

func attendanceModels(rows []attendanceRow) []attendance.Attendance {
	records := make([]attendance.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.model())
	}
	return records
}
