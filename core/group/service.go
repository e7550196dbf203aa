package group

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/billing"
	"github.com/RealCodeCrafter/ERP/core/course"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

type (
	// PaymentChecker answers settlement questions for the restore gate.
	// Implemented by the payment ledger.
	PaymentChecker interface {
		// HasSettledPayment reports whether any settled payment exists for the
		// enrollment.
		HasSettledPayment(ctx context.Context, studentID, groupID int) (bool, error)
		// HasSettledPaymentIn restricts the check to a date window.
		HasSettledPaymentIn(ctx context.Context, studentID, groupID int, from, to time.Time) (bool, error)
	}

	// LessonCalendar resolves a group's first lesson date, the anchor of its
	// payment cycles. ok is false when the group has no lessons yet.
	LessonCalendar interface {
		FirstLessonDate(ctx context.Context, groupID int) (date time.Time, ok bool, err error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ng NewGroup) (Group, error)
		GetByID(ctx context.Context, id int) (Group, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Group, error)
		QueryByTeacher(ctx context.Context, teacherID int) ([]Group, error)
		QueryByStudent(ctx context.Context, studentID int) ([]Group, error)
		Update(ctx context.Context, id int, ug UpdateGroup) (Group, error)
		Delete(ctx context.Context, id int) error

		AddStudent(ctx context.Context, groupID, studentID int) (Group, error)
		RemoveStudent(ctx context.Context, groupID, studentID int, reason RemovalReason) (Group, error)
		RestoreStudent(ctx context.Context, groupID, studentID int) (Group, error)
		TransferStudent(ctx context.Context, fromGroupID, toGroupID, studentID int) (Group, error)
	}

	Service struct {
		repo     Repository
		students student.Repository
		teachers teacher.Repository
		courses  course.Repository
		payments PaymentChecker
		lessons  LessonCalendar
		smsSvc   core.SMSService
		logger   core.Logger

		// Enrollment transitions for a group must be serialized; a concurrent
		// restore and remove would otherwise race on the roster.
		mu    sync.Mutex
		locks map[int]*sync.Mutex
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	students student.Repository,
	teachers teacher.Repository,
	courses course.Repository,
	payments PaymentChecker,
	lessons LessonCalendar,
	smsSvc core.SMSService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		teachers: teachers,
		courses:  courses,
		payments: payments,
		lessons:  lessons,
		smsSvc:   smsSvc,
		logger:   logger,
		locks:    make(map[int]*sync.Mutex),
	}
}

func (svc *Service) lockGroup(groupID int) func() {
	svc.mu.Lock()
	lock, ok := svc.locks[groupID]
	if !ok {
		lock = new(sync.Mutex)
		svc.locks[groupID] = lock
	}
	svc.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// lockGroups acquires both group locks in id order to avoid a transfer
// deadlocking against an opposite transfer.
func (svc *Service) lockGroups(aID, bID int) func() {
	if bID < aID {
		aID, bID = bID, aID
	}
	unlockA := svc.lockGroup(aID)
	unlockB := svc.lockGroup(bID)
	return func() {
		unlockB()
		unlockA()
	}
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	if _, err := svc.courses.GetCourseByID(ctx, ng.CourseID); err != nil {
		return Group{}, err
	}
	if ng.TeacherID != 0 {
		if _, err := svc.teachers.GetTeacherByID(ctx, ng.TeacherID); err != nil {
			return Group{}, err
		}
	}
	if err := svc.repo.CheckNameUniqueness(ctx, ng.Name, ng.CourseID); err != nil {
		return Group{}, err
	}

	students := make([]student.Student, 0, len(ng.StudentIDs))
	seen := make(map[int]struct{}, len(ng.StudentIDs))
	for _, id := range ng.StudentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		std, err := svc.students.GetStudentByID(ctx, id)
		if err != nil {
			return Group{}, err
		}
		students = append(students, std)
	}

	now := time.Now().UTC()
	grp := Group{
		Name:       ng.Name,
		CourseID:   ng.CourseID,
		TeacherID:  ng.TeacherID,
		Price:      ng.Price,
		StartTime:  ng.StartTime,
		EndTime:    ng.EndTime,
		DaysOfWeek: ng.DaysOfWeek,
		Status:     StatusActive,
		Students:   students,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateGroup(ctx, grp)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Group, error) {
	return svc.repo.FilterGroups(ctx, filter)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID int) ([]Group, error) {
	return svc.repo.QueryGroupsByTeacher(ctx, teacherID)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID int) ([]Group, error) {
	return svc.repo.QueryGroupsByStudent(ctx, studentID)
}

func (svc *Service) Update(ctx context.Context, id int, ug UpdateGroup) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if ug.Name != "" && ug.Name != grp.Name {
		if err := svc.repo.CheckNameUniqueness(ctx, ug.Name, grp.CourseID, grp); err != nil {
			return Group{}, err
		}
		grp.Name = ug.Name
	}
	if ug.StartTime != "" {
		grp.StartTime = ug.StartTime
	}
	if ug.EndTime != "" {
		grp.EndTime = ug.EndTime
	}
	if ug.DaysOfWeek != nil {
		grp.DaysOfWeek = ug.DaysOfWeek
	}
	grp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	defer svc.lockGroup(id)()

	if _, err := svc.repo.GetGroupByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteGroup(ctx, id)
}

// AddStudent appends the student to the roster and reactivates the group.
func (svc *Service) AddStudent(ctx context.Context, groupID, studentID int) (Group, error) {
	defer svc.lockGroup(groupID)()

	grp, err := svc.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if _, err := svc.students.GetStudentByID(ctx, studentID); err != nil {
		return Group{}, err
	}
	if grp.HasStudent(studentID) {
		return Group{}, ErrAlreadyMember
	}

	ids := append(grp.studentIDs(), studentID)
	if err := svc.repo.SetRoster(ctx, groupID, ids, StatusActive); err != nil {
		return Group{}, errors.Wrap(err, "adding student to roster")
	}
	return svc.repo.GetGroupByID(ctx, groupID)
}

// RemoveStudent drops the student from the roster. An emptied roster completes
// the group; otherwise the group freezes. reason selects the parent
// notification only.
func (svc *Service) RemoveStudent(ctx context.Context, groupID, studentID int, reason RemovalReason) (Group, error) {
	defer svc.lockGroup(groupID)()

	grp, err := svc.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if !grp.HasStudent(studentID) {
		return Group{}, ErrNotMember
	}

	ids := make([]int, 0, len(grp.Students)-1)
	for _, s := range grp.Students {
		if s.ID != studentID {
			ids = append(ids, s.ID)
		}
	}
	status := StatusFrozen
	if len(ids) == 0 {
		status = StatusCompleted
	}
	if err := svc.repo.SetRoster(ctx, groupID, ids, status); err != nil {
		return Group{}, errors.Wrap(err, "removing student from roster")
	}

	svc.notifyRemoval(ctx, grp, studentID, reason)
	return svc.repo.GetGroupByID(ctx, groupID)
}

// RestoreStudent re-enrolls a previously removed student. Restoration is gated
// on settlement: once the group has lessons the current cycle must hold a
// settled payment, before the first lesson any settled payment qualifies.
func (svc *Service) RestoreStudent(ctx context.Context, groupID, studentID int) (Group, error) {
	defer svc.lockGroup(groupID)()

	grp, err := svc.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if _, err := svc.students.GetStudentByID(ctx, studentID); err != nil {
		return Group{}, err
	}
	if grp.HasStudent(studentID) {
		return Group{}, ErrAlreadyMember
	}

	if err := svc.checkRestoreGate(ctx, groupID, studentID); err != nil {
		return Group{}, err
	}

	ids := append(grp.studentIDs(), studentID)
	if err := svc.repo.SetRoster(ctx, groupID, ids, StatusActive); err != nil {
		return Group{}, errors.Wrap(err, "restoring student to roster")
	}
	return svc.repo.GetGroupByID(ctx, groupID)
}

func (svc *Service) checkRestoreGate(ctx context.Context, groupID, studentID int) error {
	first, ok, err := svc.lessons.FirstLessonDate(ctx, groupID)
	if err != nil {
		return errors.Wrap(err, "resolving first lesson date")
	}
	if !ok {
		// no lessons yet: no cycle to anchor to, any settled payment qualifies
		settled, err := svc.payments.HasSettledPayment(ctx, studentID, groupID)
		if err != nil {
			return errors.Wrap(err, "checking settled payments")
		}
		if !settled {
			return ErrNoPaidPayment
		}
		return nil
	}

	cycle := billing.ComputeCycle(first, time.Now().UTC())
	settled, err := svc.payments.HasSettledPaymentIn(ctx, studentID, groupID, cycle.Start, cycle.End)
	if err != nil {
		return errors.Wrap(err, "checking settled payments")
	}
	if !settled {
		return ErrCycleUnsettled
	}
	return nil
}

// TransferStudent moves a student between groups. The source loses the member
// without the freeze side effect or a removal notification; it completes only
// when emptied.
func (svc *Service) TransferStudent(ctx context.Context, fromGroupID, toGroupID, studentID int) (Group, error) {
	if fromGroupID == toGroupID {
		return Group{}, ErrSameGroup
	}
	defer svc.lockGroups(fromGroupID, toGroupID)()

	fromGrp, err := svc.repo.GetGroupByID(ctx, fromGroupID)
	if err != nil {
		return Group{}, err
	}
	toGrp, err := svc.repo.GetGroupByID(ctx, toGroupID)
	if err != nil {
		return Group{}, err
	}
	if _, err := svc.students.GetStudentByID(ctx, studentID); err != nil {
		return Group{}, err
	}
	if !fromGrp.HasStudent(studentID) {
		return Group{}, ErrNotMember
	}
	if toGrp.HasStudent(studentID) {
		return Group{}, ErrAlreadyMember
	}

	fromIDs := make([]int, 0, len(fromGrp.Students)-1)
	for _, s := range fromGrp.Students {
		if s.ID != studentID {
			fromIDs = append(fromIDs, s.ID)
		}
	}
	fromStatus := fromGrp.Status
	if len(fromIDs) == 0 {
		fromStatus = StatusCompleted
	}
	if err := svc.repo.SetRoster(ctx, fromGroupID, fromIDs, fromStatus); err != nil {
		return Group{}, errors.Wrap(err, "removing student from source roster")
	}

	toIDs := append(toGrp.studentIDs(), studentID)
	if err := svc.repo.SetRoster(ctx, toGroupID, toIDs, StatusActive); err != nil {
		return Group{}, errors.Wrap(err, "adding student to target roster")
	}
	return svc.repo.GetGroupByID(ctx, toGroupID)
}

func (svc *Service) notifyRemoval(ctx context.Context, grp Group, studentID int, reason RemovalReason) {
	std, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil || std.ParentPhone == "" {
		return
	}

	var msg string
	switch reason {
	case RemovalNonPayment:
		msg = fmt.Sprintf(
			"Dear %s, the payment period for group %s has expired. %s has been temporarily removed from the group.",
			std.ParentName, grp.Name, std.FullName(),
		)
	default:
		msg = fmt.Sprintf("Dear %s, %s has been removed from group %s.", std.ParentName, std.FullName(), grp.Name)
	}
	if err := svc.smsSvc.SendSMS(ctx, std.ParentPhone, msg); err != nil {
		svc.logger.Error(fmt.Sprintf("sending removal SMS for student %d: %v", studentID, err), err)
	}
}
