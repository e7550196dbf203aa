package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/RealCodeCrafter/ERP/core/lesson"
)

type lessonRow struct {
	ID        int       `db:"id"`
	GroupID   int       `db:"group_id"`
	Name      string    `db:"name"`
	Number    int       `db:"number"`
	Date      time.Time `db:"date"`
	EndDate   null.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r lessonRow) model() lesson.Lesson {
	return lesson.Lesson{
		ID:        r.ID,
		GroupID:   r.GroupID,
		Name:      r.Name,
		Number:    r.Number,
		Date:      r.Date,
		EndDate:   r.EndDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) lesson.Repository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	const q = `
		INSERT INTO lesson (group_id, name, number, date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		lsn.GroupID, lsn.Name, lsn.Number, lsn.Date, lsn.EndDate, lsn.CreatedAt, lsn.UpdatedAt,
	).Scan(&lsn.ID)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo *lessonRepository) GetLessonByID(ctx context.Context, id int) (lesson.Lesson, error) {
	var row lessonRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id)
	if err != nil {
		return lesson.Lesson{}, trapNoRowsErr(err, lesson.ErrNotFound, "getting lesson")
	}
	return row.model(), nil
}

func (repo *lessonRepository) QueryLessonsByGroup(ctx context.Context, groupID int, filter lesson.QueryFilter) ([]lesson.Lesson, error) {
	q := `SELECT * FROM lesson WHERE group_id = $1`
	args := []interface{}{groupID}
	if !filter.Date.IsZero() {
		q += ` AND date::date = $2::date`
		args = append(args, filter.Date)
	}
	q += ` ORDER BY number`

	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return models(rows), nil
}

func (repo *lessonRepository) QueryLessonsBetween(ctx context.Context, from, to time.Time) ([]lesson.Lesson, error) {
	var rows []lessonRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM lesson WHERE date BETWEEN $1 AND $2 ORDER BY date`, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons between dates")
	}
	return models(rows), nil
}

func (repo *lessonRepository) FirstLessonDate(ctx context.Context, groupID int) (time.Time, bool, error) {
	var first time.Time
	err := repo.db.GetContext(ctx, &first,
		`SELECT min(date) FROM lesson WHERE group_id = $1 HAVING min(date) IS NOT NULL`, groupID)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrap(err, "querying first lesson date")
	}
	return first, true, nil
}

func (repo *lessonRepository) NextLessonNumber(ctx context.Context, groupID int) (int, error) {
	var next int
	err := repo.db.GetContext(ctx, &next,
		`SELECT coalesce(max(number), 0) + 1 FROM lesson WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, errors.Wrap(err, "querying next lesson number")
	}
	return next, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	const q = `UPDATE lesson SET name = $1, end_date = $2, updated_at = $3 WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, q, lsn.Name, lsn.EndDate, lsn.UpdatedAt, lsn.ID)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return repo.GetLessonByID(ctx, lsn.ID)
}

func (repo *lessonRepository) DeleteLesson(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lesson.ErrNotFound
	}
	return nil
}

func models(rows []lessonRow) []lesson.Lesson {
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.model())
	}
	return lessons
}
