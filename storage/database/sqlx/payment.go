package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/RealCodeCrafter/ERP/core/payment"
)

type paymentRow struct {
	ID            int             `db:"id"`
	Reference     uuid.UUID       `db:"reference"`
	StudentID     int             `db:"student_id"`
	GroupID       int             `db:"group_id"`
	CourseID      int             `db:"course_id"`
	Amount        decimal.Decimal `db:"amount"`
	MonthFor      string          `db:"month_for"`
	AdminStatus   string          `db:"admin_status"`
	TeacherStatus null.String     `db:"teacher_status"`
	Paid          bool            `db:"paid"`
	PaidAt        null.Time       `db:"paid_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r paymentRow) model() payment.Payment {
	return payment.Payment{
		ID:            r.ID,
		Reference:     r.Reference,
		StudentID:     r.StudentID,
		GroupID:       r.GroupID,
		CourseID:      r.CourseID,
		Amount:        r.Amount,
		MonthFor:      r.MonthFor,
		AdminStatus:   r.AdminStatus,
		TeacherStatus: r.TeacherStatus,
		Paid:          r.Paid,
		PaidAt:        r.PaidAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	const q = `
		INSERT INTO payment (reference, student_id, group_id, course_id, amount, month_for, admin_status, teacher_status, paid, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		pmt.Reference, pmt.StudentID, pmt.GroupID, pmt.CourseID, pmt.Amount, pmt.MonthFor,
		pmt.AdminStatus, pmt.TeacherStatus, pmt.Paid, pmt.PaidAt, pmt.CreatedAt, pmt.UpdatedAt,
	).Scan(&pmt.ID)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(ctx context.Context, id int) (payment.Payment, error) {
	var row paymentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM payment WHERE id = $1`, id)
	if err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "getting payment")
	}
	return row.model(), nil
}

func (repo *paymentRepository) QueryPaymentsByStudentGroup(ctx context.Context, studentID, groupID int) ([]payment.Payment, error) {
	var rows []paymentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM payment WHERE student_id = $1 AND group_id = $2 ORDER BY id`, studentID, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return paymentModels(rows), nil
}

func (repo *paymentRepository) QueryPaymentsForMonth(ctx context.Context, studentID, groupID int, monthFor string) ([]payment.Payment, error) {
	var rows []paymentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM payment WHERE student_id = $1 AND group_id = $2 AND month_for = $3 ORDER BY id`,
		studentID, groupID, monthFor)
	if err != nil {
		return nil, errors.Wrap(err, "querying month payments")
	}
	return paymentModels(rows), nil
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	q := `SELECT * FROM payment`
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.StudentID != nil {
		where = append(where, `student_id = `+arg(*filter.StudentID))
	}
	if filter.GroupID != nil {
		where = append(where, `group_id = `+arg(*filter.GroupID))
	}
	if filter.MonthFor != "" {
		where = append(where, `month_for = `+arg(filter.MonthFor))
	}
	if filter.Paid != nil {
		where = append(where, `paid = `+arg(*filter.Paid))
	}
	for i, cond := range where {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY id`

	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering payments")
	}
	return paymentModels(rows), nil
}

func (repo *paymentRepository) SumPaidAmountBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := repo.db.GetContext(ctx, &total,
		`SELECT coalesce(sum(amount), 0) FROM payment WHERE paid AND created_at BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "summing paid amounts")
	}
	return total, nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	// paid is monotonic, the update can set it but never clear it
	const q = `
		UPDATE payment
		SET admin_status = $1, teacher_status = $2, paid = paid OR $3,
		    paid_at = coalesce(paid_at, $4), updated_at = $5
		WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, q,
		pmt.AdminStatus, pmt.TeacherStatus, pmt.Paid, pmt.PaidAt, pmt.UpdatedAt, pmt.ID)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payment.Payment{}, payment.ErrNotFound
	}
	return repo.GetPaymentByID(ctx, pmt.ID)
}

func paymentModels(rows []paymentRow) []payment.Payment {
	payments := make([]payment.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.model())
	}
	return payments
}
