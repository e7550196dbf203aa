package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/RealCodeCrafter/ERP/core"
)

// Confirmation states for the two sign-off tracks. A payment settles only
// once both the recording operator and the group's teacher have accepted it.
const (
	ConfirmationPending  = "pending"
	ConfirmationAccepted = "accepted"
)

// MonthKeyFormat is the layout of the month a payment is recorded against.
const MonthKeyFormat = "2006-01"

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("payment not found")
	ErrNotOwner         = core.NewForbiddenError("payment belongs to another teacher's group")
	ErrAlreadyConfirmed = core.NewConflictError("payment is already confirmed by the teacher")
)

type (
	Payment struct {
		ID        int             `json:"id"`
		Reference uuid.UUID       `json:"reference"` // receipt number handed to the parent
		StudentID int             `json:"student_id"`
		GroupID   int             `json:"group_id"`
		CourseID  int             `json:"course_id"`
		Amount    decimal.Decimal `json:"amount"`
		MonthFor  string          `json:"month_for"` // YYYY-MM
		// AdminStatus is set to accepted at recording time; TeacherStatus
		// stays null until the group's teacher signs off.
		AdminStatus   string      `json:"admin_status"`
		TeacherStatus null.String `json:"teacher_status,omitempty"`
		// Paid derives from the month's cumulative confirmed total reaching
		// the group price. It never flips back to false.
		Paid      bool      `json:"paid"`
		PaidAt    null.Time `json:"paid_at,omitempty"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id int) (Payment, error)
		QueryPaymentsByStudentGroup(ctx context.Context, studentID, groupID int) ([]Payment, error)
		QueryPaymentsForMonth(ctx context.Context, studentID, groupID int, monthFor string) ([]Payment, error)
		FilterPayments(ctx context.Context, filter QueryFilter) ([]Payment, error)
		// SumPaidAmountBetween totals settled payment amounts created inside
		// [from, to]. Used by the income reports.
		SumPaidAmountBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
		UpdatePayment(ctx context.Context, pmt Payment) (Payment, error)
	}
)

// TeacherConfirmed reports whether the group's teacher has signed off.
func (p Payment) TeacherConfirmed() bool {
	return p.TeacherStatus.Valid && p.TeacherStatus.String == ConfirmationAccepted
}

// Confirmed reports whether both sign-off tracks have accepted the payment.
func (p Payment) Confirmed() bool {
	return p.AdminStatus == ConfirmationAccepted && p.TeacherConfirmed()
}

// NewPayment contains the information an operator records at the front desk.
type NewPayment struct {
	StudentID int             `json:"student_id" validate:"required"`
	GroupID   int             `json:"group_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	MonthFor  string          `json:"month_for" validate:"required,monthkey"`
}

func (np *NewPayment) Validate() error {
	np.MonthFor = core.CleanString(np.MonthFor)
	return core.Validate.Struct(np)
}

type QueryFilter struct {
	StudentID *int   `query:"student_id"`
	GroupID   *int   `query:"group_id"`
	MonthFor  string `query:"month_for"`
	Paid      *bool  `query:"paid"`
}

func (f QueryFilter) IsEmpty() bool {
	return f.StudentID == nil && f.GroupID == nil && f.MonthFor == "" && f.Paid == nil
}
