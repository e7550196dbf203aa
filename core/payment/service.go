package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/billing"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/student"
)

type (
	// GroupRestorer re-enrolls a student once their settlement comes through.
	// Implemented by the group service; bound after construction because the
	// group service itself depends on this ledger for its restore gate.
	GroupRestorer interface {
		RestoreStudent(ctx context.Context, groupID, studentID int) (group.Group, error)
	}

	ServiceInterface interface {
		Record(ctx context.Context, np NewPayment) (Payment, error)
		ConfirmByTeacher(ctx context.Context, teacherID, paymentID int) (Payment, error)
		GetByID(ctx context.Context, id int) (Payment, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Payment, error)
		IsSettled(ctx context.Context, studentID, groupID int, w billing.Window) (bool, error)
		FirstUnpaidCycle(ctx context.Context, studentID, groupID int) (billing.Cycle, bool, error)
		MonthlyIncome(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
		YearlyIncome(ctx context.Context, year int) (decimal.Decimal, error)
	}

	Service struct {
		repo     Repository
		groups   group.Repository
		students student.Repository
		lessons  group.LessonCalendar
		restorer GroupRestorer
		smsSvc   core.SMSService
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)
var _ group.PaymentChecker = (*Service)(nil)

func NewService(
	repo Repository,
	groups group.Repository,
	students student.Repository,
	lessons group.LessonCalendar,
	smsSvc core.SMSService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		groups:   groups,
		students: students,
		lessons:  lessons,
		smsSvc:   smsSvc,
		logger:   logger,
	}
}

// BindRestorer wires the group service in after both services exist.
func (svc *Service) BindRestorer(r GroupRestorer) { svc.restorer = r }

// Record books an installment against (student, group, month). The operator
// side of the confirmation is accepted immediately; the payment settles only
// after the teacher signs off and the month's confirmed total reaches the
// group price.
func (svc *Service) Record(ctx context.Context, np NewPayment) (Payment, error) {
	if err := np.Validate(); err != nil {
		return Payment{}, err
	}

	grp, err := svc.groups.GetGroupByID(ctx, np.GroupID)
	if err != nil {
		return Payment{}, err
	}
	if _, err := svc.students.GetStudentByID(ctx, np.StudentID); err != nil {
		return Payment{}, err
	}
	if np.Amount.LessThanOrEqual(decimal.Zero) || np.Amount.GreaterThan(grp.Price) {
		return Payment{}, core.NewValidationError(
			errors.New("invalid payment amount"),
			core.FieldError{Field: "amount", Error: "must be positive and no greater than the group price"},
		)
	}

	now := time.Now().UTC()
	pmt := Payment{
		Reference:   uuid.New(),
		StudentID:   np.StudentID,
		GroupID:     np.GroupID,
		CourseID:    grp.CourseID,
		Amount:      np.Amount,
		MonthFor:    np.MonthFor,
		AdminStatus: ConfirmationAccepted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	pmt, err = svc.repo.CreatePayment(ctx, pmt)
	if err != nil {
		return Payment{}, errors.Wrap(err, "recording payment")
	}
	return pmt, nil
}

// ConfirmByTeacher is the instructional sign-off. When it completes the
// month's settlement it also restores a student removed for non-payment.
func (svc *Service) ConfirmByTeacher(ctx context.Context, teacherID, paymentID int) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	grp, err := svc.groups.GetGroupByID(ctx, pmt.GroupID)
	if err != nil {
		return Payment{}, err
	}
	if grp.TeacherID != teacherID {
		return Payment{}, ErrNotOwner
	}
	if pmt.TeacherConfirmed() {
		return Payment{}, ErrAlreadyConfirmed
	}

	pmt.TeacherStatus.SetValid(ConfirmationAccepted)
	pmt.UpdatedAt = time.Now().UTC()
	pmt, err = svc.repo.UpdatePayment(ctx, pmt)
	if err != nil {
		return Payment{}, errors.Wrap(err, "confirming payment")
	}

	if err := svc.settleMonth(ctx, pmt, grp); err != nil {
		return Payment{}, err
	}
	return svc.repo.GetPaymentByID(ctx, paymentID)
}

// settleMonth recomputes the month's settlement after a confirmation. The
// paid flag is monotonic: settled installments stay settled even if a later
// price change would no longer cover the total.
func (svc *Service) settleMonth(ctx context.Context, pmt Payment, grp group.Group) error {
	monthly, err := svc.repo.QueryPaymentsForMonth(ctx, pmt.StudentID, pmt.GroupID, pmt.MonthFor)
	if err != nil {
		return errors.Wrap(err, "querying month payments")
	}

	total := decimal.Zero
	for _, p := range monthly {
		if p.Confirmed() {
			total = total.Add(p.Amount)
		}
	}
	if total.LessThan(grp.Price) {
		return nil
	}

	now := time.Now().UTC()
	settled := false
	for _, p := range monthly {
		if !p.Confirmed() || p.Paid {
			continue
		}
		p.Paid = true
		p.PaidAt.SetValid(now)
		p.UpdatedAt = now
		if _, err := svc.repo.UpdatePayment(ctx, p); err != nil {
			return errors.Wrap(err, "marking payment paid")
		}
		settled = true
	}
	if settled && !grp.HasStudent(pmt.StudentID) {
		svc.restoreAfterSettlement(ctx, grp, pmt.StudentID)
	}
	return nil
}

// restoreAfterSettlement re-enrolls the student and tells the parent. Failures
// are logged, not returned: the settlement itself already committed.
func (svc *Service) restoreAfterSettlement(ctx context.Context, grp group.Group, studentID int) {
	if svc.restorer == nil {
		return
	}
	if _, err := svc.restorer.RestoreStudent(ctx, grp.ID, studentID); err != nil {
		svc.logger.Error(fmt.Sprintf("restoring student %d to group %d: %v", studentID, grp.ID, err), err)
		return
	}

	std, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil || std.ParentPhone == "" {
		return
	}
	msg := fmt.Sprintf(
		"Dear %s, the payment has been confirmed. %s has been restored to group %s.",
		std.ParentName, std.FullName(), grp.Name,
	)
	if err := svc.smsSvc.SendSMS(ctx, std.ParentPhone, msg); err != nil {
		svc.logger.Error(fmt.Sprintf("sending restore SMS for student %d: %v", studentID, err), err)
	}
}

func (svc *Service) GetByID(ctx context.Context, id int) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Payment, error) {
	return svc.repo.FilterPayments(ctx, filter)
}

// IsSettled reports whether a settled payment was recorded inside the closed
// window w. The attendance gate calls this with the previous cycle's window.
func (svc *Service) IsSettled(ctx context.Context, studentID, groupID int, w billing.Window) (bool, error) {
	return svc.settledBetween(ctx, studentID, groupID, w.Start, w.End)
}

// HasSettledPayment reports whether any settled payment exists for the
// enrollment, regardless of cycle.
func (svc *Service) HasSettledPayment(ctx context.Context, studentID, groupID int) (bool, error) {
	payments, err := svc.repo.QueryPaymentsByStudentGroup(ctx, studentID, groupID)
	if err != nil {
		return false, errors.Wrap(err, "querying payments")
	}
	for _, p := range payments {
		if p.Paid {
			return true, nil
		}
	}
	return false, nil
}

// HasSettledPaymentIn restricts the check to [from, to), the half-open cycle
// window the restore gate works with.
func (svc *Service) HasSettledPaymentIn(ctx context.Context, studentID, groupID int, from, to time.Time) (bool, error) {
	return svc.settledBetween(ctx, studentID, groupID, from, to.AddDate(0, 0, -1))
}

// settledBetween checks the closed date range [from, to] at day granularity.
func (svc *Service) settledBetween(ctx context.Context, studentID, groupID int, from, to time.Time) (bool, error) {
	payments, err := svc.repo.QueryPaymentsByStudentGroup(ctx, studentID, groupID)
	if err != nil {
		return false, errors.Wrap(err, "querying payments")
	}
	for _, p := range payments {
		if !p.Paid {
			continue
		}
		d := dateOf(p.CreatedAt)
		if !d.Before(dateOf(from)) && !d.After(dateOf(to)) {
			return true, nil
		}
	}
	return false, nil
}

// FirstUnpaidCycle walks the cycle windows from the group's first lesson to
// now and returns the earliest one with no settled payment. ok is false when
// every elapsed cycle is settled or the group has no lessons.
func (svc *Service) FirstUnpaidCycle(ctx context.Context, studentID, groupID int) (billing.Cycle, bool, error) {
	first, hasLessons, err := svc.lessons.FirstLessonDate(ctx, groupID)
	if err != nil {
		return billing.Cycle{}, false, errors.Wrap(err, "resolving first lesson date")
	}
	if !hasLessons {
		return billing.Cycle{}, false, nil
	}

	payments, err := svc.repo.QueryPaymentsByStudentGroup(ctx, studentID, groupID)
	if err != nil {
		return billing.Cycle{}, false, errors.Wrap(err, "querying payments")
	}

	now := time.Now().UTC()
	current := billing.ComputeCycle(first, now)
	for n := 0; n <= current.Number; n++ {
		start := dateOf(first).AddDate(0, 0, n*billing.CycleDays)
		c := billing.Cycle{Start: start, End: start.AddDate(0, 0, billing.CycleDays), Number: n}
		if !cycleSettled(payments, c) {
			return c, true, nil
		}
	}
	return billing.Cycle{}, false, nil
}

func cycleSettled(payments []Payment, c billing.Cycle) bool {
	for _, p := range payments {
		if p.Paid && c.Contains(dateOf(p.CreatedAt)) {
			return true
		}
	}
	return false
}

// MonthlyIncome totals settled payments recorded in the given calendar month.
func (svc *Service) MonthlyIncome(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return svc.repo.SumPaidAmountBetween(ctx, from, to)
}

// YearlyIncome totals settled payments recorded in the given calendar year.
func (svc *Service) YearlyIncome(ctx context.Context, year int) (decimal.Decimal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return svc.repo.SumPaidAmountBetween(ctx, from, to)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
