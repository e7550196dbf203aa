package attendance_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core/attendance"
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
	attendance attendance.Repository
	groups     group.Repository
	students   student.Repository
	teachers   teacher.Repository
	courses    course.Repository
	lessons    lesson.Repository
	payments   payment.Repository

	svc *attendance.Service
}

func setup(t *testing.T) *env {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	e := &env{
		attendance: dummydb.NewAttendanceRepository(db),
		groups:     dummydb.NewGroupRepository(db),
		students:   dummydb.NewStudentRepository(db),
		teachers:   dummydb.NewTeacherRepository(db),
		courses:    dummydb.NewCourseRepository(db),
		lessons:    dummydb.NewLessonRepository(db),
		payments:   dummydb.NewPaymentRepository(db),
	}
	logger := testutil.NewTestLogger()
	smsSvc := smssvc.NewConsoleService(true)
	paySvc := payment.NewService(e.payments, e.groups, e.students, e.lessons, smsSvc, logger)
	e.svc = attendance.NewService(e.attendance, e.groups, e.lessons, paySvc, logger)
	return e
}

func (e *env) fixtures(t *testing.T) (teacher.Teacher, student.Student, group.Group) {
	tch := testutil.CreateTeacher(t, e.teachers, "john")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	crs := testutil.CreateCourse(t, e.courses, "English")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, tch.ID, decimal.NewFromInt(500000), []string{"Monday"}, std)
	return tch, std, grp
}

// During the enrollment's first cycle no payment is required to mark.
func TestService_Mark_firstCycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 1, time.Now().UTC())

	outcomes, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: attendance.StatusPresent},
	})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("Mark() outcomes = %d, want 1", len(outcomes))
	}
	if outcomes[0].Error != "" || outcomes[0].Attendance == nil {
		t.Fatalf("Mark() outcome = %+v, want a created record", outcomes[0])
	}
	if outcomes[0].Attendance.Status != attendance.StatusPresent {
		t.Errorf("Mark() status = %s, want %s", outcomes[0].Attendance.Status, attendance.StatusPresent)
	}

	// marking the same student twice for one lesson is rejected
	outcomes, err = e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: attendance.StatusLate},
	})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if outcomes[0].Error != attendance.ErrDuplicate.Error() {
		t.Errorf("Mark() outcome error = %q, want %q", outcomes[0].Error, attendance.ErrDuplicate.Error())
	}
}

// Marking on another teacher's lesson fails wholesale and writes nothing.
func TestService_Mark_ownership(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, std, grp := e.fixtures(t)
	other := testutil.CreateTeacher(t, e.teachers, "jane")
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 1, time.Now().UTC())

	_, err := e.svc.Mark(ctx, other.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: attendance.StatusPresent},
	})
	if err != attendance.ErrNotOwner {
		t.Fatalf("Mark() error = %v, want %v", err, attendance.ErrNotOwner)
	}

	records, err := e.attendance.QueryAttendanceByLesson(ctx, lsn.ID)
	if err != nil {
		t.Fatalf("QueryAttendanceByLesson() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Mark() wrote %d records despite the ownership failure", len(records))
	}
}

// Outside the first cycle each student must have settled the previous cycle.
// The batch is per-entry: a gated student does not block the others.
func TestService_Mark_paymentGate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, debtor, grp := e.fixtures(t)
	payer := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	if err := e.groups.SetRoster(ctx, grp.ID, []int{debtor.ID, payer.ID}, group.StatusActive); err != nil {
		t.Fatalf("SetRoster() failed: %v", err)
	}

	// the first lesson 40 days back puts the group in its second cycle
	first := time.Now().UTC().AddDate(0, 0, -40)
	testutil.CreateLesson(t, e.lessons, grp.ID, 1, first)
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 2, time.Now().UTC())

	// payer settled inside the previous cycle window
	testutil.CreatePayment(t, e.payments, payer.ID, grp.ID, grp.CourseID, decimal.NewFromInt(500000), "2026-01", true, true,
		first.AddDate(0, 0, 20))

	outcomes, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: debtor.ID, Status: attendance.StatusPresent},
		{StudentID: payer.ID, Status: attendance.StatusPresent},
	})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("Mark() outcomes = %d, want 2", len(outcomes))
	}

	if outcomes[0].Attendance != nil || !strings.Contains(outcomes[0].Error, "has not settled") {
		t.Errorf("Mark() debtor outcome = %+v, want a payment-required rejection", outcomes[0])
	}
	if outcomes[1].Error != "" || outcomes[1].Attendance == nil {
		t.Errorf("Mark() payer outcome = %+v, want a created record", outcomes[1])
	}
}

func TestService_Mark_badEntries(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)
	outsider := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 1, time.Now().UTC())

	outcomes, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: "vanished"},
		{StudentID: outsider.ID, Status: attendance.StatusPresent},
	})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if outcomes[0].Error != attendance.ErrBadStatus.Error() {
		t.Errorf("Mark() outcome error = %q, want %q", outcomes[0].Error, attendance.ErrBadStatus.Error())
	}
	if outcomes[1].Error != attendance.ErrNotMember.Error() {
		t.Errorf("Mark() outcome error = %q, want %q", outcomes[1].Error, attendance.ErrNotMember.Error())
	}
}

func TestService_UpdateByLesson(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)
	absent := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 1, time.Now().UTC())

	if _, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: attendance.StatusAbsent},
	}); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}

	outcomes, err := e.svc.UpdateByLesson(ctx, tch.ID, lsn.ID, []attendance.Entry{
		{StudentID: std.ID, Status: attendance.StatusLate},
		{StudentID: absent.ID, Status: attendance.StatusPresent}, // never marked
	})
	if err != nil {
		t.Fatalf("UpdateByLesson() failed: %v", err)
	}
	if outcomes[0].Error != "" || outcomes[0].Attendance.Status != attendance.StatusLate {
		t.Errorf("UpdateByLesson() outcome = %+v, want status corrected to %s", outcomes[0], attendance.StatusLate)
	}
	// corrections never create records
	if outcomes[1].Error == "" {
		t.Errorf("UpdateByLesson() outcome = %+v, want a rejection for the unmarked student", outcomes[1])
	}
}

func TestService_Statistics(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)

	now := time.Now().UTC()
	statuses := []attendance.Status{attendance.StatusPresent, attendance.StatusPresent, attendance.StatusLate}
	for i, status := range statuses {
		lsn := testutil.CreateLesson(t, e.lessons, grp.ID, i+1, now.AddDate(0, 0, i))
		if _, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{{StudentID: std.ID, Status: status}}); err != nil {
			t.Fatalf("Mark() failed: %v", err)
		}
	}

	stats, err := e.svc.Statistics(ctx, std.ID, grp.ID)
	if err != nil {
		t.Fatalf("Statistics() failed: %v", err)
	}
	if stats.Present != 2 || stats.Late != 1 || stats.Absent != 0 {
		t.Errorf("Statistics() = %+v, want 2 present, 1 late", stats)
	}
}

func TestService_DailySummary(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	tch, std, grp := e.fixtures(t)

	day := time.Now().UTC()
	lsn := testutil.CreateLesson(t, e.lessons, grp.ID, 1, day)
	testutil.CreateLesson(t, e.lessons, grp.ID, 2, day.AddDate(0, 0, 1))
	if _, err := e.svc.Mark(ctx, tch.ID, lsn.ID, []attendance.Entry{{StudentID: std.ID, Status: attendance.StatusPresent}}); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}

	records, err := e.svc.DailySummary(ctx, grp.ID, day)
	if err != nil {
		t.Fatalf("DailySummary() failed: %v", err)
	}
	if len(records) != 1 || records[0].LessonID != lsn.ID {
		t.Errorf("DailySummary() = %v, want the single record for lesson %d", records, lsn.ID)
	}
}
