package group_test

import (
	"context"
	"strings"
	"testing"
	"time"

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

var meetDays = []string{"Monday", "Wednesday"}

type env struct {
	groups   group.Repository
	students student.Repository
	teachers teacher.Repository
	courses  course.Repository
	lessons  lesson.Repository
	payments payment.Repository

	groupSvc *group.Service
	paySvc   *payment.Service
}

func setup(t *testing.T) *env {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	smssvc.ClearSentMessages()

	e := &env{
		groups:   dummydb.NewGroupRepository(db),
		students: dummydb.NewStudentRepository(db),
		teachers: dummydb.NewTeacherRepository(db),
		courses:  dummydb.NewCourseRepository(db),
		lessons:  dummydb.NewLessonRepository(db),
		payments: dummydb.NewPaymentRepository(db),
	}

	logger := testutil.NewTestLogger()
	smsSvc := smssvc.NewConsoleService(true)
	e.paySvc = payment.NewService(e.payments, e.groups, e.students, e.lessons, smsSvc, logger)
	e.groupSvc = group.NewService(e.groups, e.students, e.teachers, e.courses, e.paySvc, e.lessons, smsSvc, logger)
	e.paySvc.BindRestorer(e.groupSvc)
	return e
}

func TestService_Create(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	tch := testutil.CreateTeacher(t, e.teachers, "john")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")

	grp, err := e.groupSvc.Create(ctx, group.NewGroup{
		Name:       "ENG-A1",
		CourseID:   crs.ID,
		TeacherID:  tch.ID,
		Price:      decimal.NewFromInt(500000),
		DaysOfWeek: meetDays,
		StudentIDs: []int{std.ID},
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if grp.Status != group.StatusActive {
		t.Errorf("Create() status = %s, want %s", grp.Status, group.StatusActive)
	}
	if len(grp.Students) != 1 || grp.Students[0].ID != std.ID {
		t.Errorf("Create() roster = %v, want [%d]", grp.Students, std.ID)
	}

	// duplicate name within the course
	_, err = e.groupSvc.Create(ctx, group.NewGroup{Name: "eng-a1", CourseID: crs.ID})
	if err != group.ErrNameExists {
		t.Errorf("Create() error = %v, want %v", err, group.ErrNameExists)
	}

	// unknown course
	_, err = e.groupSvc.Create(ctx, group.NewGroup{Name: "ENG-B2", CourseID: 404})
	if !core.IsNotFound(err) {
		t.Errorf("Create() error = %v, want a not-found error", err)
	}
}

func TestService_AddStudent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays)

	grp, err := e.groupSvc.AddStudent(ctx, grp.ID, std.ID)
	if err != nil {
		t.Fatalf("AddStudent() failed: %v", err)
	}
	if !grp.HasStudent(std.ID) {
		t.Errorf("AddStudent() did not add student %d", std.ID)
	}
	if grp.Status != group.StatusActive {
		t.Errorf("AddStudent() status = %s, want %s", grp.Status, group.StatusActive)
	}

	if _, err = e.groupSvc.AddStudent(ctx, grp.ID, std.ID); err != group.ErrAlreadyMember {
		t.Errorf("AddStudent() error = %v, want %v", err, group.ErrAlreadyMember)
	}
	if _, err = e.groupSvc.AddStudent(ctx, grp.ID, 404); !core.IsNotFound(err) {
		t.Errorf("AddStudent() error = %v, want a not-found error", err)
	}
}

func TestService_RemoveStudent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	std1 := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	std2 := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays, std1, std2)

	// removing one of two members freezes the group
	grp, err := e.groupSvc.RemoveStudent(ctx, grp.ID, std1.ID, group.RemovalManual)
	if err != nil {
		t.Fatalf("RemoveStudent() failed: %v", err)
	}
	if grp.Status != group.StatusFrozen {
		t.Errorf("RemoveStudent() status = %s, want %s", grp.Status, group.StatusFrozen)
	}
	if grp.HasStudent(std1.ID) {
		t.Errorf("RemoveStudent() left student %d on the roster", std1.ID)
	}

	// the parent is notified
	sent := smssvc.GetSentMessages()
	if len(sent) != 1 || sent[0].Phone != std1.ParentPhone {
		t.Errorf("RemoveStudent() notifications = %v, want one to %s", sent, std1.ParentPhone)
	}

	// removing again conflicts
	if _, err = e.groupSvc.RemoveStudent(ctx, grp.ID, std1.ID, group.RemovalManual); err != group.ErrNotMember {
		t.Errorf("RemoveStudent() error = %v, want %v", err, group.ErrNotMember)
	}

	// removing the last member completes the group
	grp, err = e.groupSvc.RemoveStudent(ctx, grp.ID, std2.ID, group.RemovalNonPayment)
	if err != nil {
		t.Fatalf("RemoveStudent() failed: %v", err)
	}
	if grp.Status != group.StatusCompleted {
		t.Errorf("RemoveStudent() status = %s, want %s", grp.Status, group.StatusCompleted)
	}

	// the non-payment removal notice names the expiry
	sent = smssvc.GetSentMessages()
	if len(sent) != 2 {
		t.Fatalf("RemoveStudent() notifications = %d, want 2", len(sent))
	}
	if !strings.Contains(sent[1].Message, "payment period") {
		t.Errorf("RemoveStudent() notice = %q, want a payment period notice", sent[1].Message)
	}
}

func TestService_RestoreStudent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	keeper := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays, keeper)

	// no lessons yet and no settled payment
	if _, err := e.groupSvc.RestoreStudent(ctx, grp.ID, std.ID); err != group.ErrNoPaidPayment {
		t.Errorf("RestoreStudent() error = %v, want %v", err, group.ErrNoPaidPayment)
	}

	// no lessons yet: any settled payment qualifies
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, crs.ID, decimal.NewFromInt(500000), "2026-01", true, true,
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	restored, err := e.groupSvc.RestoreStudent(ctx, grp.ID, std.ID)
	if err != nil {
		t.Fatalf("RestoreStudent() failed: %v", err)
	}
	if !restored.HasStudent(std.ID) || restored.Status != group.StatusActive {
		t.Errorf("RestoreStudent() = %v/%s, want member restored and %s", restored.Students, restored.Status, group.StatusActive)
	}

	if _, err = e.groupSvc.RestoreStudent(ctx, grp.ID, std.ID); err != group.ErrAlreadyMember {
		t.Errorf("RestoreStudent() error = %v, want %v", err, group.ErrAlreadyMember)
	}
}

func TestService_RestoreStudent_cycleGate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	keeper := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays, keeper)

	// first lesson 40 days ago puts the group in its second cycle
	testutil.CreateLesson(t, e.lessons, grp.ID, 1, time.Now().UTC().AddDate(0, 0, -40))

	// a settled payment from the previous cycle does not satisfy the gate
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, crs.ID, decimal.NewFromInt(500000), "2026-01", true, true,
		time.Now().UTC().AddDate(0, 0, -35))
	if _, err := e.groupSvc.RestoreStudent(ctx, grp.ID, std.ID); err != group.ErrCycleUnsettled {
		t.Errorf("RestoreStudent() error = %v, want %v", err, group.ErrCycleUnsettled)
	}

	// a settlement inside the current cycle opens the gate
	testutil.CreatePayment(t, e.payments, std.ID, grp.ID, crs.ID, decimal.NewFromInt(500000), "2026-02", true, true)
	restored, err := e.groupSvc.RestoreStudent(ctx, grp.ID, std.ID)
	if err != nil {
		t.Fatalf("RestoreStudent() failed: %v", err)
	}
	if restored.Status != group.StatusActive {
		t.Errorf("RestoreStudent() status = %s, want %s", restored.Status, group.StatusActive)
	}
}

func TestService_TransferStudent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	std := testutil.CreateStudent(t, e.students, "Alisher", "+998900000001")
	keeper := testutil.CreateStudent(t, e.students, "Bobur", "+998900000002")
	src := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays, std, keeper)
	dst := testutil.CreateGroup(t, e.groups, "ENG-B2", crs.ID, 0, decimal.NewFromInt(500000), meetDays)

	if _, err := e.groupSvc.TransferStudent(ctx, src.ID, src.ID, std.ID); err != group.ErrSameGroup {
		t.Errorf("TransferStudent() error = %v, want %v", err, group.ErrSameGroup)
	}
	if _, err := e.groupSvc.TransferStudent(ctx, dst.ID, src.ID, std.ID); err != group.ErrNotMember {
		t.Errorf("TransferStudent() error = %v, want %v", err, group.ErrNotMember)
	}

	dstAfter, err := e.groupSvc.TransferStudent(ctx, src.ID, dst.ID, std.ID)
	if err != nil {
		t.Fatalf("TransferStudent() failed: %v", err)
	}
	if !dstAfter.HasStudent(std.ID) || dstAfter.Status != group.StatusActive {
		t.Errorf("TransferStudent() target = %v/%s, want member and %s", dstAfter.Students, dstAfter.Status, group.StatusActive)
	}

	// the source keeps its status while members remain; a transfer is not a removal
	srcAfter, err := e.groups.GetGroupByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetGroupByID() failed: %v", err)
	}
	if srcAfter.Status != group.StatusActive {
		t.Errorf("TransferStudent() source status = %s, want %s", srcAfter.Status, group.StatusActive)
	}
	if srcAfter.HasStudent(std.ID) {
		t.Errorf("TransferStudent() left student %d on the source roster", std.ID)
	}

	// no parent notification on transfers
	if sent := smssvc.GetSentMessages(); len(sent) != 0 {
		t.Errorf("TransferStudent() notifications = %v, want none", sent)
	}

	if _, err = e.groupSvc.TransferStudent(ctx, src.ID, dst.ID, keeper.ID); err != nil {
		t.Fatalf("TransferStudent() failed: %v", err)
	}
	srcAfter, _ = e.groups.GetGroupByID(ctx, src.ID)
	if srcAfter.Status != group.StatusCompleted {
		t.Errorf("TransferStudent() emptied source status = %s, want %s", srcAfter.Status, group.StatusCompleted)
	}

	if _, err = e.groupSvc.TransferStudent(ctx, dst.ID, src.ID, 404); !core.IsNotFound(err) {
		t.Errorf("TransferStudent() error = %v, want a not-found error", err)
	}
}

func TestService_Update_nameUniqueness(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	crs := testutil.CreateCourse(t, e.courses, "English")
	grp := testutil.CreateGroup(t, e.groups, "ENG-A1", crs.ID, 0, decimal.NewFromInt(500000), meetDays)
	testutil.CreateGroup(t, e.groups, "ENG-B2", crs.ID, 0, decimal.NewFromInt(500000), meetDays)

	if _, err := e.groupSvc.Update(ctx, grp.ID, group.UpdateGroup{Name: "ENG-B2"}); err != group.ErrNameExists {
		t.Errorf("Update() error = %v, want %v", err, group.ErrNameExists)
	}

	// renaming to its own name is not a conflict
	updated, err := e.groupSvc.Update(ctx, grp.ID, group.UpdateGroup{Name: "ENG-A1", StartTime: "14:00"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.StartTime != "14:00" {
		t.Errorf("Update() start time = %s, want 14:00", updated.StartTime)
	}
}
