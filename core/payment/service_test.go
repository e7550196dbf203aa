package payment_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/course"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
	"github.com/RealCodeCrafter/ERP/services/sms"
	"github.com/RealCodeCrafter/ERP/storage/database/dummy"
	"github.com/RealCodeCrafter/ERP/tests"
)

type env struct {
	payments payment.Repository
	groups   group.Repository
	students student.Repository
	teachers teacher.Repository
	courses  course.Repository
	lessons  lesson.Repository

	paySvc   *payment.Service
	groupSvc *group.Service
}

func setup(t *testing.T) *env {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	smssvc.ClearSentMessages()

	e := &env{
		payments: dummydb.NewPaymentRepository(db),
		groups:   dummydb.NewGroupRepository(db),
		students: dummydb.NewStudentRepository(db),
		teachers: dummydb.NewTeacherRepository(db),
		courses:  dummydb.NewCourseRepository(db),
		lessons:  dummydb.NewLessonRepository(db),
	}
	logger := testutil.NewTestLogger()
	smsSvc := smssvc.NewConsoleService(true)
	e.paySvc = payment.NewService(e.payments, e.groups, e.students, e.lessons, smsSvc, logger)
	e.groupSvc = group.NewService(e.groups, e.students, e.teachers, e.courses, e.paySvc, e.lessons, smsSvc, logger)
	e.paySvc.BindRestorer(e.groupSvc)
	return e
}

func (e *env) fixtures(t *testing.T) (teacher.Teacher, student.Student, group.Group) {
	tch := testutil.CreateTeacher(t, e.teachers, "john")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	crs := testutil.CreateCourse(t, e.courses, "English")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, tch.ID, decimal.NewFromInt(500000), []string{"Monday"}, std)
	return tch, std, grp
}

func TestService_Record(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)

	pmt, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: std.ID,
		GroupID:   grp.ID,
		Amount:    decimal.NewFromInt(300000),
		MonthFor:  "2026-02",
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if pmt.AdminStatus != payment.ConfirmationAccepted {
		t.Errorf("Record() admin status = %s, want %s", pmt.AdminStatus, payment.ConfirmationAccepted)
	}
	if pmt.TeacherStatus.Valid {
		t.Errorf("Record() teacher status = %v, want unset", pmt.TeacherStatus)
	}
	if pmt.Paid {
		t.Error("Record() marked the payment paid before teacher confirmation")
	}
	if pmt.Reference == uuid.Nil {
		t.Error("Record() did not assign a receipt reference")
	}
	if pmt.CourseID != grp.CourseID {
		t.Errorf("Record() course = %d, want %d", pmt.CourseID, grp.CourseID)
	}
}

func TestService_Record_validation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)

	tests := []struct {
		name    string
		np      payment.NewPayment
		wantFld string
	}{
		{
			name:    "zero amount",
			np:      payment.NewPayment{StudentID: std.ID, GroupID: grp.ID, Amount: decimal.Zero, MonthFor: "2026-02"},
			wantFld: "amount",
		},
		{
			name:    "amount above group price",
			np:      payment.NewPayment{StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(600000), MonthFor: "2026-02"},
			wantFld: "amount",
		},
		{
			name: "bad month key",
			np:   payment.NewPayment{StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(100000), MonthFor: "02-2026"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.paySvc.Record(ctx, tt.np)
			if err == nil {
				t.Fatal("Record() expected an error")
			}
			if tt.wantFld != "" {
				vErr, ok := err.(*core.ValidationError)
				if !ok {
					t.Fatalf("Record() error = %T, want *core.ValidationError", err)
				}
				if len(vErr.Fields) == 0 || vErr.Fields[0].Field != tt.wantFld {
					t.Errorf("Record() fields = %v, want %s", vErr.Fields, tt.wantFld)
				}
			}
		})
	}

	if _, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: 404, GroupID: grp.ID, Amount: decimal.NewFromInt(100000), MonthFor: "2026-02",
	}); !core.IsNotFound(err) {
		t.Errorf("Record() error = %v, want a not-found error", err)
	}
}

// Two installments, 300k then 200k against a 500k price: nothing settles
// until the teacher confirms both, then the whole month flips to paid.
func TestService_ConfirmByTeacher_installments(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)

	first, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(300000), MonthFor: "2026-02",
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	second, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(200000), MonthFor: "2026-02",
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	first, err = e.paySvc.ConfirmByTeacher(ctx, tch.ID, first.ID)
	if err != nil {
		t.Fatalf("ConfirmByTeacher() failed: %v", err)
	}
	if first.Paid {
		t.Error("ConfirmByTeacher() settled the month at 300000 of 500000")
	}

	second, err = e.paySvc.ConfirmByTeacher(ctx, tch.ID, second.ID)
	if err != nil {
		t.Fatalf("ConfirmByTeacher() failed: %v", err)
	}
	if !second.Paid || !second.PaidAt.Valid {
		t.Error("ConfirmByTeacher() did not settle the month once the total reached the price")
	}

	// the earlier installment settles with it
	first, err = e.paySvc.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if !first.Paid {
		t.Error("ConfirmByTeacher() left the first installment unsettled")
	}

	// confirming twice conflicts
	if _, err = e.paySvc.ConfirmByTeacher(ctx, tch.ID, second.ID); err != payment.ErrAlreadyConfirmed {
		t.Errorf("ConfirmByTeacher() error = %v, want %v", err, payment.ErrAlreadyConfirmed)
	}
}

func TestService_ConfirmByTeacher_ownership(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)
	other := testutil.CreateTeacher(t, e.teachers, "jane")

	pmt, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(500000), MonthFor: "2026-02",
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	if _, err = e.paySvc.ConfirmByTeacher(ctx, other.ID, pmt.ID); err != payment.ErrNotOwner {
		t.Errorf("ConfirmByTeacher() error = %v, want %v", err, payment.ErrNotOwner)
	}
	if _, err = e.paySvc.ConfirmByTeacher(ctx, other.ID, 404); err != payment.ErrNotFound {
		t.Errorf("ConfirmByTeacher() error = %v, want %v", err, payment.ErrNotFound)
	}
}

// A settlement for a student removed for non-payment re-enrolls them and
// notifies the parent.
func TestService_ConfirmByTeacher_restoresRemovedStudent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)

	if _, err := e.groupSvc.RemoveStudent(ctx, grp.ID, std.ID, group.RemovalNonPayment); err != nil {
		t.Fatalf("RemoveStudent() failed: %v", err)
	}
	smssvc.ClearSentMessages()

	pmt, err := e.paySvc.Record(ctx, payment.NewPayment{
		StudentID: std.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(500000), MonthFor: "2026-02",
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if _, err = e.paySvc.ConfirmByTeacher(ctx, tch.ID, pmt.ID); err != nil {
		t.Fatalf("ConfirmByTeacher() failed: %v", err)
	}

	restored, err := e.groups.GetGroupByID(ctx, grp.ID)
	if err != nil {
		t.Fatalf("GetGroupByID() failed: %v", err)
	}
	if !restored.HasStudent(std.ID) {
		t.Error("ConfirmByTeacher() did not restore the removed student")
	}
	if restored.Status != group.StatusActive {
		t.Errorf("ConfirmByTeacher() group status = %s, want %s", restored.Status, group.StatusActive)
	}

	sent := smssvc.GetSentMessages()
	if len(sent) != 1 || sent[0].Phone != std.ParentPhone {
		t.Fatalf("ConfirmByTeacher() notifications = %v, want one to %s", sent, std.ParentPhone)
	}
	if !strings.Contains(sent[0].Message, "restored") {
		t.Errorf("ConfirmByTeacher() notice = %q, want a restore notice", sent[0].Message)
	}
}

func TestService_FirstUnpaidCycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)

	// no lessons: no cycles to owe
	if _, unpaid, err := e.paySvc.FirstUnpaidCycle(ctx, std.ID, grp.ID); err != nil || unpaid {
		t.Errorf("FirstUnpaidCycle() = %v/%v, want none before lessons start", unpaid, err)
	}

	// three elapsed cycles, the second one settled
	first := time.Now().UTC().AddDate(0, 0, -70)
	testutil.CreateLesson(t, e.lessons, grp.ID, 1, first)
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(500000), "2026-01", true, true,
		first.AddDate(0, 0, 35))

	c, unpaid, err := e.paySvc.FirstUnpaidCycle(ctx, std.ID, grp.ID)
	if err != nil {
		t.Fatalf("FirstUnpaidCycle() failed: %v", err)
	}
	if !unpaid || c.Number != 0 {
		t.Errorf("FirstUnpaidCycle() = %v/%v, want cycle 0", c, unpaid)
	}

	// settling the first leaves the current cycle as the earliest unpaid
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(500000), "2026-01", true, true,
		first.AddDate(0, 0, 5))
	c, unpaid, err = e.paySvc.FirstUnpaidCycle(ctx, std.ID, grp.ID)
	if err != nil {
		t.Fatalf("FirstUnpaidCycle() failed: %v", err)
	}
	if !unpaid || c.Number != 2 {
		t.Errorf("FirstUnpaidCycle() = %v/%v, want cycle 2", c, unpaid)
	}
}

func TestService_income(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(500000), "2026-01", true, true, jan)
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(300000), "2026-02", true, true, feb)
	// unsettled payments do not count
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(200000), "2026-02", true, false, feb)

	monthly, err := e.paySvc.MonthlyIncome(ctx, 2026, time.February)
	if err != nil {
		t.Fatalf("MonthlyIncome() failed: %v", err)
	}
	if !monthly.Equal(decimal.NewFromInt(300000)) {
		t.Errorf("MonthlyIncome() = %s, want 300000", monthly)
	}

	yearly, err := e.paySvc.YearlyIncome(ctx, 2026)
	if err != nil {
		t.Fatalf("YearlyIncome() failed: %v", err)
	}
	if !yearly.Equal(decimal.NewFromInt(800000)) {
		t.Errorf("YearlyIncome() = %s, want 800000", yearly)
	}
}
