package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/student"
)

type groupRow struct {
	ID         int             `db:"id"`
	Name       string          `db:"name"`
	CourseID   int             `db:"course_id"`
	TeacherID  *int            `db:"teacher_id"`
	Price      decimal.Decimal `db:"price"`
	StartTime  string          `db:"start_time"`
	EndTime    string          `db:"end_time"`
	DaysOfWeek pq.StringArray  `db:"days_of_week"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r groupRow) model() group.Group {
	grp := group.Group{
		ID:         r.ID,
		Name:       r.Name,
		CourseID:   r.CourseID,
		Price:      r.Price,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		DaysOfWeek: r.DaysOfWeek,
		Status:     group.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.TeacherID != nil {
		grp.TeacherID = *r.TeacherID
	}
	return grp
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CheckNameUniqueness(ctx context.Context, name string, courseID int, excludedGroups ...group.Group) error {
	q := `SELECT count(*) FROM "group" WHERE lower(name) = lower($1) AND course_id = $2`
	args := []interface{}{name, courseID}
	if len(excludedGroups) > 0 {
		ids := make([]int, 0, len(excludedGroups))
		for _, g := range excludedGroups {
			ids = append(ids, g.ID)
		}
		q += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking group name uniqueness")
	}
	if count > 0 {
		return group.ErrNameExists
	}
	return nil
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO "group" (name, course_id, teacher_id, price, start_time, end_time, days_of_week, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err = tx.QueryRowContext(ctx, q,
		grp.Name, grp.CourseID, nullableID(grp.TeacherID), grp.Price,
		grp.StartTime, grp.EndTime, pq.Array(grp.DaysOfWeek), grp.Status,
		grp.CreatedAt, grp.UpdatedAt,
	).Scan(&grp.ID)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}

	for _, std := range grp.Students {
		if err = insertMember(ctx, tx, grp.ID, std.ID); err != nil {
			return group.Group{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return group.Group{}, errors.Wrap(err, "committing tx")
	}
	return repo.GetGroupByID(ctx, grp.ID)
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id int) (group.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "group" WHERE id = $1`, id)
	if err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "getting group")
	}

	grp := row.model()
	if grp.Students, err = repo.roster(ctx, id); err != nil {
		return group.Group{}, err
	}
	return grp, nil
}

func (repo *groupRepository) roster(ctx context.Context, groupID int) ([]student.Student, error) {
	const q = `
		SELECT s.* FROM student s
		JOIN group_student gs ON gs.student_id = s.id
		WHERE gs.group_id = $1
		ORDER BY s.id`
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, groupID); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.model())
	}
	return students, nil
}

func (repo *groupRepository) FilterGroups(ctx context.Context, filter group.QueryFilter) ([]group.Group, error) {
	q := `SELECT g.* FROM "group" g`
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.TeacherName != "" {
		q += ` JOIN teacher t ON t.id = g.teacher_id`
		where = append(where, `(t.first_name || ' ' || t.last_name) ILIKE `+arg("%"+filter.TeacherName+"%"))
	}
	if filter.Name != "" {
		where = append(where, `g.name ILIKE `+arg("%"+filter.Name+"%"))
	}
	if filter.CourseID != nil {
		where = append(where, `g.course_id = `+arg(*filter.CourseID))
	}
	if filter.Status != nil {
		where = append(where, `g.status = `+arg(string(*filter.Status)))
	}
	for i, cond := range where {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY g.id`

	var rows []groupRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering groups")
	}
	return repo.hydrateAll(ctx, rows)
}

func (repo *groupRepository) QueryGroupsByTeacher(ctx context.Context, teacherID int) ([]group.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "group" WHERE teacher_id = $1 ORDER BY id`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups by teacher")
	}
	return repo.hydrateAll(ctx, rows)
}

func (repo *groupRepository) QueryGroupsByStudent(ctx context.Context, studentID int) ([]group.Group, error) {
	const q = `
		SELECT g.* FROM "group" g
		JOIN group_student gs ON gs.group_id = g.id
		WHERE gs.student_id = $1
		ORDER BY g.id`
	var rows []groupRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying groups by student")
	}
	return repo.hydrateAll(ctx, rows)
}

func (repo *groupRepository) hydrateAll(ctx context.Context, rows []groupRow) ([]group.Group, error) {
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		grp := r.model()
		var err error
		if grp.Students, err = repo.roster(ctx, grp.ID); err != nil {
			return nil, err
		}
		groups = append(groups, grp)
	}
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	const q = `
		UPDATE "group"
		SET name = $1, teacher_id = $2, price = $3, start_time = $4, end_time = $5, days_of_week = $6, updated_at = $7
		WHERE id = $8`
	res, err := repo.db.ExecContext(ctx, q,
		grp.Name, nullableID(grp.TeacherID), grp.Price, grp.StartTime, grp.EndTime,
		pq.Array(grp.DaysOfWeek), grp.UpdatedAt, grp.ID,
	)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return repo.GetGroupByID(ctx, grp.ID)
}

// SetRoster replaces the membership rows and the group status in one
// transaction.
func (repo *groupRepository) SetRoster(ctx context.Context, groupID int, studentIDs []int, status group.Status) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE "group" SET status = $1, updated_at = now() WHERE id = $2`, status, groupID)
	if err != nil {
		return errors.Wrap(err, "updating group status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_student WHERE group_id = $1`, groupID); err != nil {
		return errors.Wrap(err, "clearing roster")
	}
	for _, sid := range studentIDs {
		if err = insertMember(ctx, tx, groupID, sid); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing tx")
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "group" WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return group.ErrNotFound
	}
	return nil
}

func insertMember(ctx context.Context, tx *sqlx.Tx, groupID, studentID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO group_student (group_id, student_id) VALUES ($1, $2)`, groupID, studentID)
	return errors.Wrap(err, "inserting roster member")
}

func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
