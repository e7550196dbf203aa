package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	pmt.ID = repo.db.pkCount
	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id int) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pmt, ok := repo.db.table[id]; ok {
		return *pmt, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryPaymentsByStudentGroup(_ context.Context, studentID, groupID int) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var payments []payment.Payment
	for _, pmt := range repo.db.table {
		if pmt.StudentID == studentID && pmt.GroupID == groupID {
			payments = append(payments, *pmt)
		}
	}
	sortPayments(payments)
	return payments, nil
}

func (repo *paymentRepository) QueryPaymentsForMonth(_ context.Context, studentID, groupID int, monthFor string) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var payments []payment.Payment
	for _, pmt := range repo.db.table {
		if pmt.StudentID == studentID && pmt.GroupID == groupID && pmt.MonthFor == monthFor {
			payments = append(payments, *pmt)
		}
	}
	sortPayments(payments)
	return payments, nil
}

func (repo *paymentRepository) FilterPayments(_ context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var payments []payment.Payment
	for _, pmt := range repo.db.table {
		if filter.StudentID != nil && pmt.StudentID != *filter.StudentID {
			continue
		}
		if filter.GroupID != nil && pmt.GroupID != *filter.GroupID {
			continue
		}
		if filter.MonthFor != "" && pmt.MonthFor != filter.MonthFor {
			continue
		}
		if filter.Paid != nil && pmt.Paid != *filter.Paid {
			continue
		}
		payments = append(payments, *pmt)
	}
	sortPayments(payments)
	return payments, nil
}

func (repo *paymentRepository) SumPaidAmountBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	total := decimal.Zero
	for _, pmt := range repo.db.table {
		if pmt.Paid && !pmt.CreatedAt.Before(from) && !pmt.CreatedAt.After(to) {
			total = total.Add(pmt.Amount)
		}
	}
	return total, nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[pmt.ID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	orig.AdminStatus = pmt.AdminStatus
	orig.TeacherStatus = pmt.TeacherStatus
	// paid is monotonic, an update never clears it
	if pmt.Paid {
		orig.Paid = true
		orig.PaidAt = pmt.PaidAt
	}
	orig.UpdatedAt = pmt.UpdatedAt
	return *orig, nil
}

func sortPayments(payments []payment.Payment) {
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
}
