package lesson

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/group"
)

var (
	ErrNotOwner      = core.NewForbiddenError("group is assigned to another teacher")
	ErrGroupInactive = core.NewConflictError("group is not active")
	ErrOffSchedule   = core.NewConflictError("lesson date does not match the group schedule")
)

type (
	ServiceInterface interface {
		Create(ctx context.Context, teacherID int, nl NewLesson) (Lesson, error)
		GetByID(ctx context.Context, id int) (Lesson, error)
		QueryByGroup(ctx context.Context, groupID int, filter QueryFilter) ([]Lesson, error)
		FirstLessonDate(ctx context.Context, groupID int) (time.Time, bool, error)
		Update(ctx context.Context, id int, ul UpdateLesson) (Lesson, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo   Repository
		groups group.Repository
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)
var _ group.LessonCalendar = (*Service)(nil)

func NewService(repo Repository, groups group.Repository, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		groups: groups,
		logger: logger,
	}
}

// Create schedules a lesson for one of the teacher's groups. The group must
// be active and the lesson date must fall on one of the group's weekdays.
func (svc *Service) Create(ctx context.Context, teacherID int, nl NewLesson) (Lesson, error) {
	if err := nl.Validate(); err != nil {
		return Lesson{}, err
	}

	grp, err := svc.groups.GetGroupByID(ctx, nl.GroupID)
	if err != nil {
		return Lesson{}, err
	}
	if grp.TeacherID != teacherID {
		return Lesson{}, ErrNotOwner
	}
	if grp.Status != group.StatusActive {
		return Lesson{}, ErrGroupInactive
	}
	if !grp.MeetsOn(nl.Date.Weekday()) {
		return Lesson{}, ErrOffSchedule
	}

	number, err := svc.repo.NextLessonNumber(ctx, nl.GroupID)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "getting next lesson number")
	}

	name := nl.Name
	if name == "" {
		name = fmt.Sprintf("Lesson %d", number)
	}

	now := time.Now().UTC()
	lsn := Lesson{
		GroupID:   nl.GroupID,
		Name:      name,
		Number:    number,
		Date:      nl.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nl.EndDate != nil {
		lsn.EndDate.SetValid(*nl.EndDate)
	}
	return svc.repo.CreateLesson(ctx, lsn)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *Service) QueryByGroup(ctx context.Context, groupID int, filter QueryFilter) ([]Lesson, error) {
	if _, err := svc.groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryLessonsByGroup(ctx, groupID, filter)
}

// FirstLessonDate reports the date the group's billing anchors on.
func (svc *Service) FirstLessonDate(ctx context.Context, groupID int) (time.Time, bool, error) {
	return svc.repo.FirstLessonDate(ctx, groupID)
}

func (svc *Service) Update(ctx context.Context, id int, ul UpdateLesson) (Lesson, error) {
	lsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if ul.Name != "" {
		lsn.Name = core.CleanString(ul.Name)
	}
	if ul.EndDate != nil {
		lsn.EndDate.SetValid(*ul.EndDate)
	}
	lsn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, lsn)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteLesson(ctx, id)
}
