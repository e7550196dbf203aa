package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/course"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
	"github.com/RealCodeCrafter/ERP/services/logger"
)

// NewTestLogger returns a logger that swallows all output.
func NewTestLogger() core.Logger {
	return logsvc.NewConsoleLogger(log.New(ioutil.Discard, "", 0))
}

func CreateTeacher(t *testing.T, repo teacher.Repository, uname string, pwd ...string) teacher.Teacher {
	now := time.Now().UTC()
	tch := teacher.Teacher{
		FirstName: uname,
		Username:  uname,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(pwd) > 0 {
		if err := tch.SetPassword(pwd[0]); err != nil {
			t.Fatalf("CreateTeacher() failed: %v", err)
		}
	}
	tch, err := repo.CreateTeacher(context.Background(), tch)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateOperator(t *testing.T, repo operator.Repository, uname, phone string, alerts bool, pwd ...string) operator.Operator {
	now := time.Now().UTC()
	op := operator.Operator{
		FirstName: uname,
		Username:  uname,
		Phone:     phone,
		Email:     uname + "@test.cd",
		AlertsOn:  alerts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(pwd) > 0 {
		if err := op.SetPassword(pwd[0]); err != nil {
			t.Fatalf("CreateOperator() failed: %v", err)
		}
	}
	op, err := repo.CreateOperator(context.Background(), op)
	if err != nil {
		t.Fatalf("CreateOperator() failed: %v", err)
	}
	return op
}

func CreateStudent(t *testing.T, repo student.Repository, name, parentPhone string) student.Student {
	now := time.Now().UTC()
	std := student.Student{
		FirstName:   name,
		LastName:    "Doe",
		Phone:       "+998901112233",
		ParentName:  name + "'s parent",
		ParentPhone: parentPhone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateCourse(t *testing.T, repo course.Repository, name string) course.Course {
	crs := course.Course{Name: name, CreatedAt: time.Now().UTC()}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateGroup(
	t *testing.T,
	repo group.Repository,
	name string,
	courseID, teacherID int,
	price decimal.Decimal,
	days []string,
	students ...student.Student,
) group.Group {
	now := time.Now().UTC()
	grp := group.Group{
		Name:       name,
		CourseID:   courseID,
		TeacherID:  teacherID,
		Price:      price,
		StartTime:  "10:00",
		EndTime:    "12:00",
		DaysOfWeek: days,
		Status:     group.StatusActive,
		Students:   students,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	grp, err := repo.CreateGroup(context.Background(), grp)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func CreateLesson(t *testing.T, repo lesson.Repository, groupID, number int, date time.Time) lesson.Lesson {
	now := time.Now().UTC()
	lsn := lesson.Lesson{
		GroupID:   groupID,
		Name:      "Lesson",
		Number:    number,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	lsn, err := repo.CreateLesson(context.Background(), lsn)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

// CreatePayment inserts a payment directly, bypassing the service. confirmed
// sets the teacher sign-off; paid marks it settled. createdAt anchors the
// settlement date checks.
func CreatePayment(
	t *testing.T,
	repo payment.Repository,
	studentID, groupID, courseID int,
	amount decimal.Decimal,
	monthFor string,
	confirmed, paid bool,
	createdAt ...time.Time,
) payment.Payment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	pmt := payment.Payment{
		Reference:   uuid.New(),
		StudentID:   studentID,
		GroupID:     groupID,
		CourseID:    courseID,
		Amount:      amount,
		MonthFor:    monthFor,
		AdminStatus: payment.ConfirmationAccepted,
		Paid:        paid,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if confirmed {
		pmt.TeacherStatus = null.StringFrom(payment.ConfirmationAccepted)
	}
	if paid {
		pmt.PaidAt = null.TimeFrom(tstamp)
	}
	pmt, err := repo.CreatePayment(context.Background(), pmt)
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return pmt
}
