package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/billing"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
)

var ErrNotOwner = core.NewForbiddenError("lesson belongs to another teacher's group")

type (
	// SettlementChecker answers whether a settled payment exists inside a
	// cycle window. Implemented by the payment ledger.
	SettlementChecker interface {
		IsSettled(ctx context.Context, studentID, groupID int, w billing.Window) (bool, error)
	}

	ServiceInterface interface {
		Mark(ctx context.Context, teacherID, lessonID int, entries []Entry) ([]Outcome, error)
		UpdateByLesson(ctx context.Context, teacherID, lessonID int, updates []Entry) ([]Outcome, error)
		QueryByLesson(ctx context.Context, lessonID int) ([]Attendance, error)
		DailySummary(ctx context.Context, groupID int, date time.Time) ([]Attendance, error)
		Statistics(ctx context.Context, studentID, groupID int) (Stats, error)
	}

	Service struct {
		repo     Repository
		groups   group.Repository
		lessons  lesson.Repository
		payments SettlementChecker
		logger   core.Logger

		now func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	groups group.Repository,
	lessons lesson.Repository,
	payments SettlementChecker,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		groups:   groups,
		lessons:  lessons,
		payments: payments,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Mark records attendance for a batch of students at one lesson. Outside the
// enrollment's first cycle each student must have settled the previous cycle;
// students failing the gate, duplicates, and non-members are rejected
// per entry while the rest of the batch proceeds.
func (svc *Service) Mark(ctx context.Context, teacherID, lessonID int, entries []Entry) ([]Outcome, error) {
	lsn, grp, err := svc.resolveOwnedLesson(ctx, teacherID, lessonID)
	if err != nil {
		return nil, err
	}

	first, ok, err := svc.lessons.FirstLessonDate(ctx, grp.ID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving first lesson date")
	}
	if !ok {
		return nil, lesson.ErrNoLessons
	}
	cycle := billing.ComputeCycle(first, svc.now())

	outcomes := make([]Outcome, 0, len(entries))
	for _, e := range entries {
		outcomes = append(outcomes, svc.markOne(ctx, lsn, grp, cycle, e))
	}
	return outcomes, nil
}

func (svc *Service) markOne(ctx context.Context, lsn lesson.Lesson, grp group.Group, cycle billing.Cycle, e Entry) Outcome {
	out := Outcome{StudentID: e.StudentID}

	if !e.Status.Valid() {
		out.Error = ErrBadStatus.Error()
		return out
	}
	if !grp.HasStudent(e.StudentID) {
		out.Error = ErrNotMember.Error()
		return out
	}

	if !cycle.First() {
		w := billing.PreviousWindow(cycle)
		settled, err := svc.payments.IsSettled(ctx, e.StudentID, grp.ID, w)
		if err != nil {
			out.Error = errors.Wrap(err, "checking settlement").Error()
			return out
		}
		if !settled {
			out.Error = (&core.PaymentRequiredError{
				StudentID:   e.StudentID,
				WindowStart: w.Start,
				WindowEnd:   w.End,
			}).Error()
			return out
		}
	}

	if _, err := svc.repo.GetAttendanceByStudentLesson(ctx, e.StudentID, lsn.ID); err == nil {
		out.Error = ErrDuplicate.Error()
		return out
	} else if !core.IsNotFound(err) {
		out.Error = err.Error()
		return out
	}

	now := svc.now()
	att, err := svc.repo.CreateAttendance(ctx, Attendance{
		LessonID:  lsn.ID,
		GroupID:   grp.ID,
		StudentID: e.StudentID,
		Status:    e.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Attendance = &att
	return out
}

// UpdateByLesson corrects already-marked records. It never creates rows:
// entries without an existing record are rejected as not found.
func (svc *Service) UpdateByLesson(ctx context.Context, teacherID, lessonID int, updates []Entry) ([]Outcome, error) {
	lsn, _, err := svc.resolveOwnedLesson(ctx, teacherID, lessonID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(updates))
	for _, u := range updates {
		out := Outcome{StudentID: u.StudentID}
		if !u.Status.Valid() {
			out.Error = ErrBadStatus.Error()
			outcomes = append(outcomes, out)
			continue
		}

		att, err := svc.repo.GetAttendanceByStudentLesson(ctx, u.StudentID, lsn.ID)
		if err != nil {
			out.Error = err.Error()
			outcomes = append(outcomes, out)
			continue
		}
		att.Status = u.Status
		att.UpdatedAt = svc.now()
		att, err = svc.repo.UpdateAttendance(ctx, att)
		if err != nil {
			out.Error = err.Error()
			outcomes = append(outcomes, out)
			continue
		}
		out.Attendance = &att
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (svc *Service) QueryByLesson(ctx context.Context, lessonID int) ([]Attendance, error) {
	if _, err := svc.lessons.GetLessonByID(ctx, lessonID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendanceByLesson(ctx, lessonID)
}

// DailySummary returns the group's records for one calendar day.
func (svc *Service) DailySummary(ctx context.Context, groupID int, date time.Time) ([]Attendance, error) {
	if _, err := svc.groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendanceByGroupDate(ctx, groupID, date)
}

// Statistics aggregates one student's presence record within a group.
func (svc *Service) Statistics(ctx context.Context, studentID, groupID int) (Stats, error) {
	records, err := svc.repo.QueryAttendanceByStudentGroup(ctx, studentID, groupID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying attendance")
	}

	stats := Stats{StudentID: studentID, GroupID: groupID}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		}
	}
	return stats, nil
}

func (svc *Service) resolveOwnedLesson(ctx context.Context, teacherID, lessonID int) (lesson.Lesson, group.Group, error) {
	lsn, err := svc.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return lesson.Lesson{}, group.Group{}, err
	}
	grp, err := svc.groups.GetGroupByID(ctx, lsn.GroupID)
	if err != nil {
		return lesson.Lesson{}, group.Group{}, err
	}
	if grp.TeacherID != teacherID {
		return lesson.Lesson{}, group.Group{}, ErrNotOwner
	}
	return lsn, grp, nil
}
