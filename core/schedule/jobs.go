package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/attendance"
	"github.com/RealCodeCrafter/ERP/core/billing"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/student"
)

type (
	// SettlementChecker answers whether a settled payment exists inside a
	// cycle window. Implemented by the payment ledger.
	SettlementChecker interface {
		IsSettled(ctx context.Context, studentID, groupID int, w billing.Window) (bool, error)
	}

	// Remover drops a student from a roster. Implemented by the group
	// service, which also sends the removal notification.
	Remover interface {
		RemoveStudent(ctx context.Context, groupID, studentID int, reason group.RemovalReason) (group.Group, error)
	}
)

// AttendanceSweep flags lessons that concluded inside the last evaluation
// window with no attendance record and alerts subscribed operators. The sweep
// is bounded to its window, so an addressed lesson stops firing on its own.
type AttendanceSweep struct {
	lessons    lesson.Repository
	attendance attendance.Repository
	groups     group.Repository
	operators  operator.Repository
	smsSvc     core.SMSService
	emailSvc   core.EmailService
	logger     core.Logger

	window        time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewAttendanceSweep(
	lessons lesson.Repository,
	att attendance.Repository,
	groups group.Repository,
	operators operator.Repository,
	smsSvc core.SMSService,
	emailSvc core.EmailService,
	logger core.Logger,
	window, notifyTimeout time.Duration,
) *AttendanceSweep {
	return &AttendanceSweep{
		lessons:       lessons,
		attendance:    att,
		groups:        groups,
		operators:     operators,
		smsSvc:        smsSvc,
		emailSvc:      emailSvc,
		logger:        logger,
		window:        window,
		notifyTimeout: notifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Job returns the sweep as a scheduler job ticking once per window.
func (s *AttendanceSweep) Job() Job {
	return Job{Name: "attendance-sweep", Every: s.window, Run: s.Run}
}

func (s *AttendanceSweep) Run(ctx context.Context) error {
	now := s.now()
	lessons, err := s.lessons.QueryLessonsBetween(ctx, now.Add(-s.window), now)
	if err != nil {
		return errors.Wrap(err, "querying recent lessons")
	}

	var missed, errCount int
	for _, lsn := range lessons {
		marked, err := s.attendance.HasAttendanceForLesson(ctx, lsn.ID)
		if err != nil {
			errCount++
			s.logger.Error(fmt.Sprintf("attendance sweep: lesson %d: %v", lsn.ID, err), err)
			continue
		}
		if marked {
			continue
		}
		missed++
		if err := s.notifyMissed(ctx, lsn); err != nil {
			errCount++
			s.logger.Error(fmt.Sprintf("attendance sweep: notifying for lesson %d: %v", lsn.ID, err), err)
		}
	}

	s.logger.Info(fmt.Sprintf(
		"attendance sweep: %d lessons inspected, %d unmarked, %d errors", len(lessons), missed, errCount,
	))
	return nil
}

func (s *AttendanceSweep) notifyMissed(ctx context.Context, lsn lesson.Lesson) error {
	subscribers, err := s.operators.QueryAlertSubscribers(ctx)
	if err != nil {
		return errors.Wrap(err, "querying alert subscribers")
	}
	if len(subscribers) == 0 {
		return nil
	}

	grp, err := s.groups.GetGroupByID(ctx, lsn.GroupID)
	if err != nil {
		return errors.Wrap(err, "resolving lesson group")
	}
	msg := fmt.Sprintf(
		"Attendance has not been marked for lesson %q of group %s (scheduled %s).",
		lsn.Name, grp.Name, lsn.Date.Format("2006-01-02 15:04"),
	)

	recipients := make([]mail.Address, 0, len(subscribers))
	for _, op := range subscribers {
		if op.Phone != "" {
			notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
			if err := s.smsSvc.SendSMS(notifyCtx, op.Phone, msg); err != nil {
				s.logger.Error(fmt.Sprintf("attendance sweep: SMS to operator %d: %v", op.ID, err), err)
			}
			cancel()
		}
		if op.Email != "" {
			recipients = append(recipients, mail.Address{Name: op.FullName(), Address: op.Email})
		}
	}
	if len(recipients) > 0 {
		s.emailSvc.SendMessages(&core.EmailMessage{
			To:      recipients,
			Subject: fmt.Sprintf("Unmarked attendance: %s", grp.Name),
			Body:    msg,
		})
	}
	return nil
}

// PaymentSweep walks open groups once a day and acts on each enrollment's
// cycle calendar: a reminder ten days into an unsettled cycle, removal on the
// cycle boundary when the ended cycle is still unsettled. Decisions are
// recomputed from dates alone, so a same-day re-run repeats no action.
type PaymentSweep struct {
	groups   group.Repository
	students student.Repository
	lessons  group.LessonCalendar
	payments SettlementChecker
	remover  Remover
	smsSvc   core.SMSService
	logger   core.Logger

	interval      time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewPaymentSweep(
	groups group.Repository,
	students student.Repository,
	lessons group.LessonCalendar,
	payments SettlementChecker,
	remover Remover,
	smsSvc core.SMSService,
	logger core.Logger,
	interval, notifyTimeout time.Duration,
) *PaymentSweep {
	return &PaymentSweep{
		groups:        groups,
		students:      students,
		lessons:       lessons,
		payments:      payments,
		remover:       remover,
		smsSvc:        smsSvc,
		logger:        logger,
		interval:      interval,
		notifyTimeout: notifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Job returns the sweep as a scheduler job ticking once per interval.
func (s *PaymentSweep) Job() Job {
	return Job{Name: "payment-sweep", Every: s.interval, Run: s.Run}
}

func (s *PaymentSweep) Run(ctx context.Context) error {
	// a removal freezes its group; the remaining enrollments are still
	// enforced, so frozen groups stay in scope. Completed groups do not.
	groups := make([]group.Group, 0)
	for _, status := range []group.Status{group.StatusActive, group.StatusFrozen} {
		status := status
		batch, err := s.groups.FilterGroups(ctx, group.QueryFilter{Status: &status})
		if err != nil {
			return errors.Wrapf(err, "querying %s groups", status)
		}
		groups = append(groups, batch...)
	}

	today := s.now()
	var reminders, removals, errCount int
	for _, grp := range groups {
		r, x, e := s.sweepGroup(ctx, grp, today)
		reminders += r
		removals += x
		errCount += e
	}

	s.logger.Info(fmt.Sprintf(
		"payment sweep: %d groups, %d reminders, %d removals, %d errors",
		len(groups), reminders, removals, errCount,
	))
	return nil
}

func (s *PaymentSweep) sweepGroup(ctx context.Context, grp group.Group, today time.Time) (reminders, removals, errCount int) {
	first, ok, err := s.lessons.FirstLessonDate(ctx, grp.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("payment sweep: group %d: %v", grp.ID, err), err)
		return 0, 0, 1
	}
	if !ok {
		// no lessons, no cycle to enforce
		return 0, 0, 0
	}

	action := billing.PlanEnforcement(first, today)
	if action == billing.ActionNone {
		return 0, 0, 0
	}
	cycle := billing.ComputeCycle(first, today)
	sched := billing.ScheduleFor(first, today)

	for _, std := range grp.Students {
		switch action {
		case billing.ActionRemind:
			settled, err := s.payments.IsSettled(ctx, std.ID, grp.ID, billing.Window{Start: cycle.Start, End: cycle.End})
			if err != nil {
				errCount++
				s.logger.Error(fmt.Sprintf("payment sweep: student %d: %v", std.ID, err), err)
				continue
			}
			if settled {
				continue
			}
			if err := s.remind(ctx, grp, std, sched.DueDate); err != nil {
				errCount++
				s.logger.Error(fmt.Sprintf("payment sweep: reminder for student %d: %v", std.ID, err), err)
				continue
			}
			reminders++

		case billing.ActionEnforce:
			// today is a cycle boundary; the window to settle is the cycle
			// that just ended
			w := billing.PreviousWindow(cycle)
			settled, err := s.payments.IsSettled(ctx, std.ID, grp.ID, w)
			if err != nil {
				errCount++
				s.logger.Error(fmt.Sprintf("payment sweep: student %d: %v", std.ID, err), err)
				continue
			}
			if settled {
				continue
			}
			if _, err := s.remover.RemoveStudent(ctx, grp.ID, std.ID, group.RemovalNonPayment); err != nil {
				// already removed by an earlier run today
				if errors.Cause(err) == group.ErrNotMember {
					continue
				}
				errCount++
				s.logger.Error(fmt.Sprintf("payment sweep: removing student %d: %v", std.ID, err), err)
				continue
			}
			removals++
		}
	}
	return reminders, removals, errCount
}

func (s *PaymentSweep) remind(ctx context.Context, grp group.Group, std student.Student, due time.Time) error {
	if std.ParentPhone == "" {
		return nil
	}
	msg := fmt.Sprintf(
		"Dear %s, a payment of %s for group %s is due by %s.",
		std.ParentName, grp.Price.StringFixed(0), grp.Name, due.Format("2006-01-02"),
	)

	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	return s.smsSvc.SendSMS(notifyCtx, std.ParentPhone, msg)
}
